package dedupe

import "time"

// Option configures the in-memory deduper.
type Option func(*ttlDeduper)

// WithMaxSize bounds the number of remembered ids. Zero or negative means
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *ttlDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a delivery id is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *ttlDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired ids are purged.
func WithCleanupInterval(every time.Duration) Option {
	return func(d *ttlDeduper) {
		if every > 0 {
			d.cleanup = every
		}
	}
}
