package repository

import (
	"context"
	"strings"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/metrics"
	"github.com/patrickmn/go-cache"
)

// EmployeeFinder resolves employees by email.
type EmployeeFinder interface {
	FindByEmail(ctx context.Context, email string) (model.Employee, error)
}

// CachedDirectory memoises successful email lookups. Misses are not cached
// so an employee registered after a failed lookup resolves on the next one.
type CachedDirectory struct {
	next  EmployeeFinder
	cache *cache.Cache
}

// NewCachedDirectory wraps next with a cache whose entries live for ttl.
func NewCachedDirectory(next EmployeeFinder, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{next: next, cache: cache.New(ttl, 2*ttl)}
}

// FindByEmail serves from cache, falling back to the wrapped finder.
func (d *CachedDirectory) FindByEmail(ctx context.Context, email string) (model.Employee, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if v, ok := d.cache.Get(key); ok {
		metrics.RecordDirectoryLookup("hit")
		return v.(model.Employee), nil
	}
	emp, err := d.next.FindByEmail(ctx, key)
	if err != nil {
		metrics.RecordDirectoryLookup("miss")
		return model.Employee{}, err
	}
	metrics.RecordDirectoryLookup("loaded")
	d.cache.SetDefault(key, emp)
	return emp, nil
}
