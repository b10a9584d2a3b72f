// Package classify assigns efforts to a category of the work taxonomy.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
)

// Method records how a category was chosen.
type Method string

const (
	MethodExplicit  Method = "explicit"
	MethodAssistant Method = "assistant"
	MethodRules     Method = "rules"
	MethodFallback  Method = "fallback"
)

// Confidence values for the degenerate cases.
const (
	ConfidenceOnError   = 50
	ConfidenceUntracked = 30
)

// Assistant suggests a category for free text. Answers are advisory: any
// error or out-of-taxonomy suggestion falls back to the keyword rules.
type Assistant interface {
	Suggest(ctx context.Context, text string) (model.Category, error)
}

// Classifier is safe for concurrent use.
type Classifier struct {
	assistant Assistant
	log       logger.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithAssistant enables a best-effort assistant consulted before the rules.
func WithAssistant(a Assistant) Option {
	return func(c *Classifier) {
		c.assistant = a
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// New constructs a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("classify")
	}
	return c
}

// Classify returns the category of e. A valid category already on the effort
// wins unchanged; otherwise keyword evidence decides and collaboration is the
// default. Classify never fails.
func (c *Classifier) Classify(ctx context.Context, e model.Effort) (model.Category, Method) {
	if e.Category.Valid() {
		return e.Category, MethodExplicit
	}

	text, err := ExtractText(e.Payload)
	if err != nil {
		c.log.Warn(ctx, "classification text extraction failed", logger.String("effort_id", e.ID), logger.Error(err))
		return model.Collaboration, MethodFallback
	}

	if c.assistant != nil && text != "" {
		cat, aerr := c.assistant.Suggest(ctx, text)
		if aerr == nil && cat.Valid() {
			return cat, MethodAssistant
		}
		c.log.Debug(ctx, "assistant suggestion ignored", logger.String("effort_id", e.ID), logger.String("suggestion", string(cat)), logger.Error(aerr))
	}

	return ByKeywords(text), MethodRules
}

// ByKeywords picks the category with strictly highest evidence in text.
// Ties go to the earlier category in the taxonomy; no evidence means collaboration.
func ByKeywords(text string) model.Category {
	best, bestScore := model.Collaboration, 0
	for _, cat := range model.Categories {
		if score := matches(cat, text) * keywordWeight; score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best
}

// Confidence reports in [0,100] how much of cat's keyword list appears in e.
func (c *Classifier) Confidence(e model.Effort, cat model.Category) int {
	if !cat.Valid() {
		return ConfidenceUntracked
	}
	text, err := ExtractText(e.Payload)
	if err != nil {
		return ConfidenceOnError
	}
	return min(100, matches(cat, text)*100/len(keywords[cat]))
}

var textFields = [][]string{
	{"issue", "summary"},
	{"issue", "description"},
	{"pull_request", "title"},
	{"pull_request", "body"},
	{"commit", "message"},
	{"event", "text"},
	{"text"},
	{"title"},
	{"description"},
}

// ExtractText builds the lowercase text blob keyword matching runs on.
// Missing fields contribute nothing; a nested field whose parent is not an
// object is an error.
func ExtractText(p model.Payload) (string, error) {
	var b strings.Builder
	for _, path := range textFields {
		v, err := p.Lookup(path...)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", strings.Join(path, "."), err)
		}
		if v == nil {
			continue
		}
		s, _ := p.Text(path...)
		b.WriteString(s)
		b.WriteByte(' ')
	}
	return strings.TrimSpace(strings.ToLower(b.String())), nil
}
