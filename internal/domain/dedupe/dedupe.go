// Package dedupe tracks webhook delivery ids so a redelivered webhook is
// ingested at most once within a retention window.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduper records seen delivery ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it
	// when it was not. The check and the record are atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed ingestion can be retried by the sender.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type ttlDeduper struct {
	// mu serialises the size bound; go-cache handles its own locking.
	mu      sync.Mutex
	seen    *cache.Cache
	ttl     time.Duration
	cleanup time.Duration
	maxSize int
	seq     uint64
}

// NewInMemoryDeduper returns a Deduper whose entries expire after the
// configured TTL. With a positive max size the oldest entry is evicted when
// the bound is reached.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ttlDeduper{
		ttl:     24 * time.Hour,
		cleanup: 10 * time.Minute,
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = cache.New(d.ttl, d.cleanup)
	return d
}

func (d *ttlDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen.Get(id); ok {
		return true
	}
	if d.maxSize > 0 && d.seen.ItemCount() >= d.maxSize {
		d.evictOldest()
	}
	d.seq++
	// Add fails only when a live entry exists.
	return d.seen.Add(id, d.seq, cache.DefaultExpiration) != nil
}

func (d *ttlDeduper) Unrecord(_ context.Context, id string) {
	d.seen.Delete(id)
}

func (d *ttlDeduper) Size() int64 {
	return int64(d.seen.ItemCount())
}

// evictOldest drops expired entries, then the earliest recorded one if the
// cache is still full. Callers hold d.mu.
func (d *ttlDeduper) evictOldest() {
	d.seen.DeleteExpired()
	if d.seen.ItemCount() < d.maxSize {
		return
	}
	var (
		oldestID  string
		oldestSeq uint64
		found     bool
	)
	for id, item := range d.seen.Items() {
		seq, _ := item.Object.(uint64)
		if !found || seq < oldestSeq {
			oldestID, oldestSeq, found = id, seq, true
		}
	}
	if found {
		d.seen.Delete(oldestID)
	}
}
