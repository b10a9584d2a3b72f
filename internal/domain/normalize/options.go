package normalize

import (
	"time"

	"github.com/okian/kudosly/pkg/logger"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDirectory sets the employee directory used by the jira path.
func WithDirectory(d Directory) Option {
	return func(n *Normalizer) {
		n.directory = d
	}
}

// WithTestSource enables the harness-only "test" source.
func WithTestSource(enabled bool) Option {
	return func(n *Normalizer) {
		n.allowTest = enabled
	}
}

// WithClock overrides the time source used for effort timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithIDGenerator overrides effort id generation.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) {
		if gen != nil {
			n.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}
