package worker

import (
	"github.com/okian/kudosly/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithResults sends one Result per task to sink without blocking.
func WithResults(sink chan<- Result) Option {
	return func(w *InMemoryWorker) {
		w.results = sink
	}
}

type poolConfig struct {
	resultBuffer int
	logger       logger.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

// WithResultBuffer sets the capacity of the results channel. Results beyond
// it are dropped and counted.
func WithResultBuffer(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.resultBuffer = n
		}
	}
}

// WithPoolLogger sets the pool logger.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
