package recognition

import "errors"

var (
	// ErrMalformedEffort is returned for efforts a recognition cannot be tied to.
	ErrMalformedEffort = errors.New("malformed effort")
	errPick            = errors.New("picker returned index out of range")
)
