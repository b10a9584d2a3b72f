// Package ai provides an optional language-model classification assistant.
// Every failure degrades to the keyword rules of the classifier.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/kudosly/internal/domain/classify"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 5 * time.Second
	maxPromptLength = 4000
)

// Completer sends a prompt to a model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Assistant implements classify.Assistant over a Completer.
type Assistant struct {
	completer Completer
	limiter   *rate.Limiter
	timeout   time.Duration
	log       logger.Logger
}

var _ classify.Assistant = (*Assistant)(nil)

// Option configures an Assistant.
type Option func(*Assistant)

// WithRateLimit caps model calls at perSecond with the given burst. Calls over
// the limit are answered with ErrAssistantUnavailable.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(a *Assistant) {
		if perSecond > 0 && burst > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithTimeout bounds a single model call.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAssistant wraps c.
func NewAssistant(c Completer, opts ...Option) *Assistant {
	a := &Assistant{
		completer: c,
		limiter:   rate.NewLimiter(rate.Limit(2), 4),
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("ai")
	}
	return a
}

// Suggest asks the model for one taxonomy category.
func (a *Assistant) Suggest(ctx context.Context, text string) (model.Category, error) {
	if a.completer == nil || !a.limiter.Allow() {
		return "", classify.ErrAssistantUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.completer.Complete(ctx, Prompt(text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", classify.ErrAssistantUnavailable, err)
	}
	c, err := ParseAnswer(answer)
	if err != nil {
		a.log.Debug(ctx, "unusable assistant answer", logger.String("answer", answer))
		return "", err
	}
	return c, nil
}

// Prompt renders the classification instruction for text.
func Prompt(text string) string {
	if len(text) > maxPromptLength {
		text = text[:maxPromptLength]
	}
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return "Classify this engineering work item into exactly one category.\n" +
		"Categories: " + strings.Join(names, ", ") + ".\n" +
		"Answer with the category name only.\n\n" + text
}

// ParseAnswer extracts a taxonomy category from a model answer. Surrounding
// punctuation and case are ignored.
func ParseAnswer(answer string) (model.Category, error) {
	s := strings.ToLower(strings.TrimSpace(answer))
	s = strings.Trim(s, " \t\n\"'`.*")
	c := model.Category(strings.ReplaceAll(s, " ", "-"))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", classify.ErrOutsideTaxonomy, answer)
	}
	return c, nil
}
