package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kudosly/internal/adapters/repository"
	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/digest"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/internal/domain/scoring"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

// EffortSummary explains how an effort was judged.
type EffortSummary struct {
	Effort              model.Effort       `json:"effort"`
	Confidence          int                `json:"confidence"`
	Tier                scoring.Tier       `json:"impactTier"`
	Breakdown           *scoring.Breakdown `json:"breakdown,omitempty"`
	Recognition         *model.Recognition `json:"recognition,omitempty"`
	PersonalizedMessage string             `json:"personalizedMessage,omitempty"`
}

// Effort loads one effort.
func (s *Service) Effort(ctx context.Context, id string) (model.Effort, error) {
	if err := s.ready(); err != nil {
		return model.Effort{}, err
	}
	e, err := s.store.FindEffort(ctx, id)
	return e, mapNotFound(err)
}

// ListEfforts lists efforts matching f, newest first.
func (s *Service) ListEfforts(ctx context.Context, f repository.EffortFilter) ([]model.Effort, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListEfforts(ctx, f)
}

// EffortStats aggregates efforts, optionally for one employee.
func (s *Service) EffortStats(ctx context.Context, employeeID string) (repository.EffortStats, error) {
	if err := s.ready(); err != nil {
		return repository.EffortStats{}, err
	}
	return s.store.EffortStats(ctx, employeeID)
}

// Summary reports classification confidence, the score breakdown and the
// recognition of an effort.
func (s *Service) Summary(ctx context.Context, id string) (EffortSummary, error) {
	e, err := s.Effort(ctx, id)
	if err != nil {
		return EffortSummary{}, err
	}
	out := EffortSummary{
		Effort:     e,
		Confidence: s.classifier.Confidence(e, e.Category),
		Tier:       scoring.ImpactTier(e.ImpactScore),
	}
	if e.Category.Valid() {
		if b, berr := s.scorer.Breakdown(e); berr == nil {
			out.Breakdown = &b
		}
	}
	r, found, err := s.store.FindRecognitionByEffort(ctx, id)
	if err != nil {
		return EffortSummary{}, err
	}
	if found {
		out.Recognition = &r
		out.PersonalizedMessage = s.personalize(ctx, e)
	}
	return out, nil
}

// personalize addresses the recognition to the employee by name and lists
// the badges they hold.
func (s *Service) personalize(ctx context.Context, e model.Effort) string {
	recipient := e.EmployeeID
	if recipient == "" {
		recipient = "there"
	} else if emp, err := s.store.FindEmployee(ctx, e.EmployeeID); err == nil && emp.Name != "" {
		recipient = emp.Name
	}
	var names []string
	if e.EmployeeID != "" {
		awards, err := s.store.AwardsByEmployee(ctx, e.EmployeeID)
		if err != nil {
			s.logger.Warn(ctx, "awards lookup failed", logger.String("employee_id", e.EmployeeID), logger.Error(err))
		}
		for _, a := range awards {
			if b, ok, _ := s.store.FindBadge(ctx, a.BadgeID); ok {
				names = append(names, b.Name)
			}
		}
	}
	return s.generator.Personalize(e, recipient, names)
}

// Recognition loads one recognition.
func (s *Service) Recognition(ctx context.Context, id string) (model.Recognition, error) {
	if err := s.ready(); err != nil {
		return model.Recognition{}, err
	}
	r, err := s.store.FindRecognition(ctx, id)
	return r, mapNotFound(err)
}

// RecognitionsFor lists an employee's recognitions, newest first.
func (s *Service) RecognitionsFor(ctx context.Context, employeeID string, limit int) ([]model.Recognition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.RecognitionsByEmployee(ctx, employeeID, limit)
}

// Feed lists the newest recognitions.
func (s *Service) Feed(ctx context.Context, limit int) ([]model.Recognition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.RecentRecognitions(ctx, limit)
}

// BulkRecognize returns a recognition for every known, scored effort in ids,
// generating and storing the missing ones. Unknown ids are skipped.
func (s *Service) BulkRecognize(ctx context.Context, ids []string) ([]model.Recognition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]model.Recognition, 0, len(ids))
	var pending []model.Effort
	for _, id := range ids {
		e, err := s.store.FindEffort(ctx, id)
		if err != nil {
			s.logger.Debug(ctx, "bulk recognition skipped effort", logger.String("effort_id", id), logger.Error(err))
			continue
		}
		r, found, err := s.store.FindRecognitionByEffort(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, r)
			continue
		}
		if e.Scored() {
			pending = append(pending, e)
		}
	}
	for _, r := range s.generator.GenerateBulk(ctx, pending) {
		if err := s.store.CreateRecognition(ctx, &r); err != nil {
			return nil, err
		}
		metrics.RecordRecognition(string(r.Category))
		out = append(out, r)
	}
	return out, nil
}

// Badges lists badge definitions in display order.
func (s *Service) Badges(ctx context.Context) ([]model.Badge, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListBadges(ctx)
}

// UserBadges reports progress on every badge for an employee.
func (s *Service) UserBadges(ctx context.Context, employeeID string) ([]badge.Progress, error) {
	badges, err := s.Badges(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]badge.Progress, 0, len(badges))
	for _, b := range badges {
		p, err := s.evaluator.Progress(ctx, employeeID, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// BadgeProgress reports progress on one badge.
func (s *Service) BadgeProgress(ctx context.Context, employeeID string, id model.BadgeID) (badge.Progress, error) {
	if err := s.ready(); err != nil {
		return badge.Progress{}, err
	}
	return s.evaluator.Progress(ctx, employeeID, id)
}

// AwardBadge grants a badge manually. Granting twice returns the first award.
func (s *Service) AwardBadge(ctx context.Context, employeeID string, id model.BadgeID) (model.BadgeAward, bool, error) {
	if err := s.ready(); err != nil {
		return model.BadgeAward{}, false, err
	}
	award, created, err := s.evaluator.Award(ctx, employeeID, id)
	if err == nil {
		metrics.RecordBadgeAward(string(id), created)
	}
	return award, created, err
}

// EvaluateBadges checks every rule against the employee's history.
func (s *Service) EvaluateBadges(ctx context.Context, employeeID string) ([]model.BadgeAward, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	awarded, err := s.evaluator.Evaluate(ctx, employeeID)
	for _, a := range awarded {
		metrics.RecordBadgeAward(string(a.BadgeID), true)
	}
	return awarded, err
}

// GenerateDigest builds and stores the digest for [start, end). Zero bounds
// select the current week.
func (s *Service) GenerateDigest(ctx context.Context, employeeID string, start, end time.Time) (model.WeeklyDigest, error) {
	if err := s.ready(); err != nil {
		return model.WeeklyDigest{}, err
	}
	if start.IsZero() || end.IsZero() {
		start, end = digest.WeekOf(s.now().UTC())
	}
	return s.digests.Generate(ctx, employeeID, start, end)
}

// RunWeeklyDigests generates digests for everyone active in the week of at.
func (s *Service) RunWeeklyDigests(ctx context.Context, at time.Time) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.digests.RunWeekly(ctx, at)
}

// LatestDigest returns the newest digest of an employee.
func (s *Service) LatestDigest(ctx context.Context, employeeID string) (model.WeeklyDigest, error) {
	if err := s.ready(); err != nil {
		return model.WeeklyDigest{}, err
	}
	d, err := s.store.LatestDigest(ctx, employeeID)
	return d, mapNotFound(err)
}

// ListDigests returns recent digests.
func (s *Service) ListDigests(ctx context.Context, limit int) ([]model.WeeklyDigest, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListDigests(ctx, limit)
}

// CreateEmployee registers a directory record, assigning an id if missing.
func (s *Service) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	if err := s.ready(); err != nil {
		return model.Employee{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := s.store.CreateEmployee(ctx, &e); err != nil {
		return model.Employee{}, err
	}
	return e, nil
}

// Employee loads a directory record.
func (s *Service) Employee(ctx context.Context, id string) (model.Employee, error) {
	if err := s.ready(); err != nil {
		return model.Employee{}, err
	}
	e, err := s.store.FindEmployee(ctx, id)
	return e, mapNotFound(err)
}

// Ping checks that the store answers.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

// Failures returns the recent pipeline failures, newest first.
func (s *Service) Failures() []Failure {
	return s.failures.recent()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
	stats["queueLength"] = s.queue.Len(ctx)
	stats["activeWorkers"] = s.pool.Active()
	stats["droppedResults"] = s.pool.Dropped()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["failures"] = map[string]any{
		"total":  s.failures.count(),
		"recent": s.failures.recent(),
	}
	if st, err := s.store.EffortStats(ctx, ""); err == nil {
		stats["efforts"] = st
	} else {
		s.logger.Warn(ctx, "effort stats unavailable", logger.Error(err))
	}
	if n, err := s.store.CountRecognitions(ctx); err == nil {
		stats["recognitions"] = n
	}
	return stats
}
