package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/kudosly/pkg/logger"
)

// ErrInvalidConfig is returned for unusable simulation settings.
var ErrInvalidConfig = errors.New("invalid simulation config")

const directoryPermission = 0o750

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	case c.Deliveries < 1:
		return fmt.Errorf("%w: deliveries must be positive", ErrInvalidConfig)
	case c.Employees < 1:
		return fmt.Errorf("%w: employees must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.DuplicateRatio < 0 || c.DuplicateRatio > 1:
		return fmt.Errorf("%w: duplicate ratio must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// Run checks the server, registers the team, submits the deliveries
// concurrently and reports what the server made of them.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Get().Named("simulate")
	if err := cfg.validate(); err != nil {
		return Stats{}, err
	}
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout, cfg.Secrets)

	if err := c.health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	stats := Stats{}
	team := Team(cfg.Employees)
	if !cfg.SkipDirectory {
		for _, m := range team {
			created, err := c.register(ctx, m)
			if err != nil {
				return stats, fmt.Errorf("register team: %w", err)
			}
			if created {
				stats.Registered++
			}
		}
	}

	deliveries, err := NewGenerator(cfg.Seed, team).Generate(cfg.Deliveries)
	if err != nil {
		return stats, fmt.Errorf("generate deliveries: %w", err)
	}
	stats.Generated = len(deliveries)
	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, deliveries); err != nil {
			log.Warn(ctx, "failed to save deliveries", logger.String("file", cfg.OutputFile), logger.Error(err))
		}
	}

	var accepted, duplicate, rejected, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, d := range withDuplicates(deliveries, cfg.DuplicateRatio) {
		g.Go(func() error {
			res, err := c.submit(gctx, d)
			if err != nil {
				log.Debug(gctx, "delivery not accepted", logger.String("id", d.ID), logger.Error(err))
			}
			switch res {
			case outcomeAccepted:
				accepted.Add(1)
			case outcomeDuplicate:
				duplicate.Add(1)
			case outcomeRejected:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
			// a cancelled run stops the remaining submissions
			return gctx.Err()
		})
	}
	waitErr := g.Wait()

	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
	stats.Submitted = stats.Accepted + stats.Duplicate + stats.Rejected + stats.Failed
	stats.Duration = time.Since(start)
	if waitErr != nil {
		return stats, fmt.Errorf("submission interrupted: %w", waitErr)
	}

	if server, err := c.stats(ctx); err == nil {
		log.Info(ctx, "server statistics", logger.Any("stats", server))
	}
	log.Info(ctx, "simulation finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}

func save(path string, deliveries []Delivery) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(deliveries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal deliveries: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
