// Package repository persists efforts, recognitions, badges, awards, employees
// and digests in SQLite through gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is the gorm-backed implementation of every persistence port.
type Store struct {
	db           *gorm.DB
	log          logger.Logger
	maxOpenConns int
	slowQuery    time.Duration
}

// Open connects to the database at path, applies pragmas and migrates the
// schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{maxOpenConns: 4, slowQuery: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("repository")
	}

	memory := path == MemoryPath || strings.Contains(path, "mode=memory")
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(s.maxOpenConns)
	}
	s.db = db

	if err := s.configure(ctx, memory); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	s.log.Info(ctx, "database ready", logger.String("path", path))
	return s, nil
}

func (s *Store) configure(ctx context.Context, memory bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if !memory {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		)
	}
	for _, p := range pragmas {
		if err := s.db.WithContext(ctx).Exec(p).Error; err != nil {
			return fmt.Errorf("exec %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&model.Employee{},
		&model.Effort{},
		&model.Recognition{},
		&model.Badge{},
		&model.BadgeAward{},
		&model.WeeklyDigest{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// observe records latency for op and logs slow queries.
func (s *Store) observe(ctx context.Context, op string, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordRepositoryLatency(op, float64(elapsed.Microseconds())/1000)
	if elapsed > s.slowQuery {
		s.log.Warn(ctx, "slow query", logger.String("op", op), logger.Duration("elapsed", elapsed))
	}
}

// notFound maps gorm's miss to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func checkLimit(limit, def, maxLimit int) (int, error) {
	switch {
	case limit == 0:
		return def, nil
	case limit < 0 || limit > maxLimit:
		return 0, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return limit, nil
}
