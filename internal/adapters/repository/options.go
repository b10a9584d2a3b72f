package repository

import (
	"time"

	"github.com/okian/kudosly/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxOpenConns bounds the connection pool. In-memory databases are always
// limited to one connection so every caller sees the same schema.
func WithMaxOpenConns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithSlowQueryThreshold logs queries slower than d at warn level.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.slowQuery = d
		}
	}
}
