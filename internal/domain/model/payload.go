package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the opaque, source-defined body of an effort.
type Payload map[string]any

// Value implements driver.Valuer.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Payload) Scan(value any) error {
	if value == nil {
		*p = Payload{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("invalid type for Payload")
	}
	return json.Unmarshal(raw, p)
}

// Lookup walks nested objects along keys. A missing key yields (nil, nil);
// a non-object on the way yields ErrPayloadShape.
func (p Payload) Lookup(keys ...string) (any, error) {
	var cur any = map[string]any(p)
	for i, k := range keys {
		obj, ok := asObject(cur)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrPayloadShape, strings.Join(keys[:i], "."))
		}
		v, found := obj[k]
		if !found || v == nil {
			return nil, nil
		}
		cur = v
	}
	return cur, nil
}

// String returns the string at keys, "" when missing.
func (p Payload) String(keys ...string) (string, error) {
	v, err := p.Lookup(keys...)
	if err != nil || v == nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrPayloadShape, strings.Join(keys, "."))
	}
	return s, nil
}

// Text renders the value at keys as text regardless of its JSON type.
func (p Payload) Text(keys ...string) (string, bool) {
	v, err := p.Lookup(keys...)
	if err != nil || v == nil {
		return "", false
	}
	return render(v), true
}

// Number returns the numeric value at keys. ok is false when missing.
func (p Payload) Number(keys ...string) (n float64, ok bool, err error) {
	v, err := p.Lookup(keys...)
	if err != nil || v == nil {
		return 0, false, err
	}
	switch t := v.(type) {
	case float64:
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s", ErrPayloadShape, err)
		}
		return f, true, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s is not a number", ErrPayloadShape, strings.Join(keys, "."))
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("%w: %s is not a number", ErrPayloadShape, strings.Join(keys, "."))
}

// Bool returns the boolean at keys. ok is false when missing.
func (p Payload) Bool(keys ...string) (b bool, ok bool, err error) {
	v, err := p.Lookup(keys...)
	if err != nil || v == nil {
		return false, false, err
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, false, fmt.Errorf("%w: %s is not a boolean", ErrPayloadShape, strings.Join(keys, "."))
	}
	return b, true, nil
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Payload:
		return t, true
	}
	return nil, false
}

// FallbackDescription is used when no payload field describes the work.
const FallbackDescription = "your contribution"

// Describe extracts a short description of the work: title, summary,
// issue.summary, pull_request.title, then the first line of commit.message.
// Shape problems fall through to FallbackDescription.
func (p Payload) Describe() string {
	for _, path := range [][]string{{"title"}, {"summary"}, {"issue", "summary"}, {"pull_request", "title"}} {
		v, err := p.Lookup(path...)
		if err != nil {
			return FallbackDescription
		}
		if v != nil {
			return render(v)
		}
	}
	v, err := p.Lookup("commit", "message")
	if err != nil || v == nil {
		return FallbackDescription
	}
	first, _, _ := strings.Cut(render(v), "\n")
	return first
}

func render(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, Payload, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
