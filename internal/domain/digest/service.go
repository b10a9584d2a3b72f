package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the digest service needs.
type Store interface {
	FindEffortsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]model.Effort, error)
	FindRecognitionsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]model.Recognition, error)
	ActiveEmployees(ctx context.Context, start, end time.Time) ([]string, error)
	// SaveDigest upserts on (employee, week start).
	SaveDigest(ctx context.Context, d *model.WeeklyDigest) error
}

// Service generates and stores digests.
type Service struct {
	store       Store
	narrator    *Narrator
	concurrency int
	now         func() time.Time
	log         logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithConcurrency bounds parallel generation in RunWeekly.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithNarrator replaces the narrator, e.g. to inject a deterministic picker.
func WithNarrator(n *Narrator) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.narrator = n
		}
	}
}

// WithServiceClock overrides the generation timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService constructs a Service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		narrator:    NewNarrator(nil),
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("digest")
	}
	return s
}

// Generate builds and stores the digest of employeeID for [start, end).
// Regenerating the same window overwrites the stored digest.
func (s *Service) Generate(ctx context.Context, employeeID string, start, end time.Time) (model.WeeklyDigest, error) {
	efforts, err := s.store.FindEffortsInRange(ctx, employeeID, start, end)
	if err != nil {
		return model.WeeklyDigest{}, fmt.Errorf("load efforts: %w", err)
	}
	recognitions, err := s.store.FindRecognitionsInRange(ctx, employeeID, start, end)
	if err != nil {
		return model.WeeklyDigest{}, fmt.Errorf("load recognitions: %w", err)
	}

	d, err := s.narrator.Build(employeeID, start, end, efforts, recognitions)
	if err != nil {
		metrics.RecordDigest("failed")
		return model.WeeklyDigest{}, fmt.Errorf("build digest for %s: %w", employeeID, err)
	}
	d.ID = uuid.NewString()
	d.GeneratedAt = s.now().UTC()

	if err := s.store.SaveDigest(ctx, &d); err != nil {
		metrics.RecordDigest("failed")
		return model.WeeklyDigest{}, fmt.Errorf("save digest: %w", err)
	}
	metrics.RecordDigest("generated")
	s.log.Info(ctx, "digest generated",
		logger.String("employee_id", employeeID),
		logger.Int("efforts", d.TotalEfforts),
		logger.Int("recognitions", d.TotalRecognitions))
	return d, nil
}

// RunWeekly generates the digest of every employee active in the week that
// contains at. One employee's failure does not stop the others; the joined
// errors are returned with the count of stored digests.
func (s *Service) RunWeekly(ctx context.Context, at time.Time) (int, error) {
	start, end := WeekOf(at)
	employees, err := s.store.ActiveEmployees(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("list active employees: %w", err)
	}

	results := make([]error, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, emp := range employees {
		g.Go(func() error {
			_, results[i] = s.Generate(gctx, emp, start, end)
			return nil
		})
	}
	_ = g.Wait()

	var (
		done int
		errs []error
	)
	for i, e := range results {
		if e != nil {
			s.log.Error(ctx, "weekly digest failed", logger.String("employee_id", employees[i]), logger.Error(e))
			errs = append(errs, e)
			continue
		}
		done++
	}
	s.log.Info(ctx, "weekly digests finished", logger.Int("generated", done), logger.Int("failed", len(errs)))
	return done, errors.Join(errs...)
}
