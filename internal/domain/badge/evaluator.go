// Package badge evaluates badge criteria against effort history and awards
// badges idempotently.
package badge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
)

// Store is the persistence the evaluator needs.
type Store interface {
	ListBadges(ctx context.Context) ([]model.Badge, error)
	FindBadge(ctx context.Context, id model.BadgeID) (model.Badge, bool, error)
	FindEffortsByEmployee(ctx context.Context, employeeID string) ([]model.Effort, error)
	FindAward(ctx context.Context, employeeID string, id model.BadgeID) (model.BadgeAward, bool, error)
	// CreateAward inserts award unless the pair exists and returns the stored
	// row. created is false when an award was already present.
	CreateAward(ctx context.Context, award model.BadgeAward) (stored model.BadgeAward, created bool, err error)
}

// Progress describes how close an employee is to a badge.
type Progress struct {
	BadgeID  model.BadgeID `json:"badgeId"`
	Earned   bool          `json:"earned"`
	EarnedAt *time.Time    `json:"earnedDate,omitempty"`
	Progress int           `json:"progress"`
}

// shortcut is the score gate used right after an effort is scored.
type shortcut struct {
	minScore int
	badge    model.BadgeID
}

var shortcuts = map[model.Category]shortcut{
	model.BugFix:        {8, model.ProblemSolver},
	model.FeatureWork:   {9, model.InnovationSpark},
	model.CodeReview:    {7, model.KnowledgeSharer},
	model.Collaboration: {7, model.CollaborationHero},
	model.Mentoring:     {8, model.KnowledgeSharer},
}

// Evaluator awards badges.
type Evaluator struct {
	store Store
	now   func() time.Time
	log   logger.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the award timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEvaluator constructs an Evaluator over store.
func NewEvaluator(store Store, opts ...Option) *Evaluator {
	e := &Evaluator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("badge")
	}
	return e
}

// Award grants id to employeeID. An existing award is returned unchanged with
// created=false.
func (e *Evaluator) Award(ctx context.Context, employeeID string, id model.BadgeID) (model.BadgeAward, bool, error) {
	if employeeID == "" {
		return model.BadgeAward{}, false, ErrNoEmployee
	}
	if _, found, err := e.store.FindBadge(ctx, id); err != nil {
		return model.BadgeAward{}, false, fmt.Errorf("find badge %s: %w", id, err)
	} else if !found {
		return model.BadgeAward{}, false, fmt.Errorf("%w: %q", ErrUnknownBadge, id)
	}

	award, created, err := e.store.CreateAward(ctx, model.BadgeAward{
		EmployeeID: employeeID,
		BadgeID:    id,
		EarnedAt:   e.now().UTC(),
		Progress:   model.EarnedProgress,
	})
	if err != nil {
		return model.BadgeAward{}, false, fmt.Errorf("award %s to %s: %w", id, employeeID, err)
	}
	if created {
		e.log.Info(ctx, "badge awarded", logger.String("employee_id", employeeID), logger.String("badge", string(id)))
	}
	return award, created, nil
}

// AwardForEffort applies the score-gated shortcut for a freshly scored effort.
// It returns nil when the effort does not qualify.
func (e *Evaluator) AwardForEffort(ctx context.Context, eff model.Effort) (*model.BadgeAward, bool, error) {
	sc, ok := shortcuts[eff.Category]
	if !ok || eff.ImpactScore < sc.minScore || eff.EmployeeID == "" {
		return nil, false, nil
	}
	award, created, err := e.Award(ctx, eff.EmployeeID, sc.badge)
	if err != nil {
		return nil, false, err
	}
	return &award, created, nil
}

// ShortcutBadge reports the badge the shortcut would grant for c at score.
func ShortcutBadge(c model.Category, score int) (model.BadgeID, bool) {
	sc, ok := shortcuts[c]
	if !ok || score < sc.minScore {
		return "", false
	}
	return sc.badge, true
}

// Evaluate checks every badge against the employee's full history and awards
// the newly satisfied ones. Failures on one badge do not stop the others.
func (e *Evaluator) Evaluate(ctx context.Context, employeeID string) ([]model.BadgeAward, error) {
	if employeeID == "" {
		return nil, ErrNoEmployee
	}
	badges, err := e.store.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	efforts, err := e.store.FindEffortsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load efforts: %w", err)
	}

	var (
		awarded []model.BadgeAward
		errs    []error
	)
	for _, b := range badges {
		earned, _, cerr := Check(b, efforts)
		if cerr != nil {
			errs = append(errs, cerr)
			continue
		}
		if !earned {
			continue
		}
		award, created, aerr := e.Award(ctx, employeeID, b.ID)
		if aerr != nil {
			errs = append(errs, aerr)
			continue
		}
		if created {
			awarded = append(awarded, award)
		}
	}
	return awarded, errors.Join(errs...)
}

// Progress reports how far employeeID is from id.
func (e *Evaluator) Progress(ctx context.Context, employeeID string, id model.BadgeID) (Progress, error) {
	b, found, err := e.store.FindBadge(ctx, id)
	if err != nil {
		return Progress{}, fmt.Errorf("find badge %s: %w", id, err)
	}
	if !found {
		return Progress{}, fmt.Errorf("%w: %q", ErrUnknownBadge, id)
	}

	award, found, err := e.store.FindAward(ctx, employeeID, id)
	if err != nil {
		return Progress{}, fmt.Errorf("find award: %w", err)
	}
	if found {
		at := award.EarnedAt
		return Progress{BadgeID: id, Earned: true, EarnedAt: &at, Progress: model.EarnedProgress}, nil
	}

	efforts, err := e.store.FindEffortsByEmployee(ctx, employeeID)
	if err != nil {
		return Progress{}, fmt.Errorf("load efforts: %w", err)
	}
	_, pct, err := Check(b, efforts)
	if err != nil {
		return Progress{}, err
	}
	// Criteria met but not yet awarded still reads as in progress.
	return Progress{BadgeID: id, Progress: min(pct, model.EarnedProgress-1)}, nil
}
