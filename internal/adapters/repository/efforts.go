package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"gorm.io/gorm"
)

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// EffortFilter narrows ListEfforts. Zero values leave a field unfiltered.
type EffortFilter struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	Limit      int
}

// EffortStats aggregates stored efforts.
type EffortStats struct {
	Total              int64                    `json:"total"`
	Scored             int64                    `json:"scored"`
	Unresolved         int64                    `json:"unresolved"`
	AverageImpactScore float64                  `json:"averageImpactScore"`
	ByCategory         map[model.Category]int64 `json:"byCategory"`
	BySource           map[model.Source]int64   `json:"bySource"`
}

// CreateEffort inserts a new effort.
func (s *Store) CreateEffort(ctx context.Context, e *model.Effort) error {
	defer s.observe(ctx, "create_effort", time.Now())
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create effort %s: %w", e.ID, err)
	}
	return nil
}

// UpdateEffort writes back category, score and identity of an effort.
func (s *Store) UpdateEffort(ctx context.Context, e *model.Effort) error {
	defer s.observe(ctx, "update_effort", time.Now())
	res := s.db.WithContext(ctx).Model(&model.Effort{}).Where("id = ?", e.ID).
		Updates(map[string]any{
			"employee_id":  e.EmployeeID,
			"category":     e.Category,
			"impact_score": e.ImpactScore,
		})
	if res.Error != nil {
		return fmt.Errorf("update effort %s: %w", e.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update effort %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// FindEffort loads one effort by id.
func (s *Store) FindEffort(ctx context.Context, id string) (model.Effort, error) {
	defer s.observe(ctx, "find_effort", time.Now())
	var e model.Effort
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return model.Effort{}, fmt.Errorf("find effort %s: %w", id, notFound(err))
	}
	return e, nil
}

// FindEffortsByEmployee returns every effort of an employee, oldest first.
func (s *Store) FindEffortsByEmployee(ctx context.Context, employeeID string) ([]model.Effort, error) {
	defer s.observe(ctx, "efforts_by_employee", time.Now())
	var out []model.Effort
	if err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("efforts of %s: %w", employeeID, err)
	}
	return out, nil
}

// FindEffortsInRange returns an employee's efforts with timestamp in
// [start, end), oldest first.
func (s *Store) FindEffortsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]model.Effort, error) {
	defer s.observe(ctx, "efforts_in_range", time.Now())
	var out []model.Effort
	if err := s.db.WithContext(ctx).
		Where("employee_id = ? AND timestamp >= ? AND timestamp < ?", employeeID, start.UTC(), end.UTC()).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("efforts of %s in range: %w", employeeID, err)
	}
	return out, nil
}

// ListEfforts returns efforts matching f, newest first.
func (s *Store) ListEfforts(ctx context.Context, f EffortFilter) ([]model.Effort, error) {
	defer s.observe(ctx, "list_efforts", time.Now())
	limit, err := checkLimit(f.Limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&model.Effort{})
	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if !f.From.IsZero() {
		q = q.Where("timestamp >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("timestamp < ?", f.To.UTC())
	}
	out := []model.Effort{}
	if err := q.Order("timestamp DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list efforts: %w", err)
	}
	return out, nil
}

// UnscoredEffortIDs lists efforts the pipeline has not finished, oldest first.
func (s *Store) UnscoredEffortIDs(ctx context.Context) ([]string, error) {
	defer s.observe(ctx, "unscored_efforts", time.Now())
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.Effort{}).
		Where("impact_score = 0").
		Order("timestamp ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("unscored efforts: %w", err)
	}
	return ids, nil
}

type groupCount struct {
	Name  string
	Total int64
}

// EffortStats aggregates efforts, optionally for one employee.
func (s *Store) EffortStats(ctx context.Context, employeeID string) (EffortStats, error) {
	defer s.observe(ctx, "effort_stats", time.Now())
	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Effort{})
		if employeeID != "" {
			q = q.Where("employee_id = ?", employeeID)
		}
		return q
	}

	st := EffortStats{ByCategory: map[model.Category]int64{}, BySource: map[model.Source]int64{}}
	if err := scope().Count(&st.Total).Error; err != nil {
		return EffortStats{}, fmt.Errorf("count efforts: %w", err)
	}
	if err := scope().Where("impact_score > 0").Count(&st.Scored).Error; err != nil {
		return EffortStats{}, fmt.Errorf("count scored efforts: %w", err)
	}
	if err := scope().Where("employee_id = ''").Count(&st.Unresolved).Error; err != nil {
		return EffortStats{}, fmt.Errorf("count unresolved efforts: %w", err)
	}

	var avg struct{ Avg *float64 }
	if err := scope().Select("AVG(impact_score) AS avg").Where("impact_score > 0").Scan(&avg).Error; err != nil {
		return EffortStats{}, fmt.Errorf("average impact: %w", err)
	}
	if avg.Avg != nil {
		st.AverageImpactScore = math.Round(*avg.Avg*10) / 10
	}

	var rows []groupCount
	if err := scope().Select("category AS name, COUNT(*) AS total").Where("category <> ''").Group("category").Scan(&rows).Error; err != nil {
		return EffortStats{}, fmt.Errorf("efforts by category: %w", err)
	}
	for _, r := range rows {
		st.ByCategory[model.Category(r.Name)] = r.Total
	}
	rows = nil
	if err := scope().Select("source AS name, COUNT(*) AS total").Group("source").Scan(&rows).Error; err != nil {
		return EffortStats{}, fmt.Errorf("efforts by source: %w", err)
	}
	for _, r := range rows {
		st.BySource[model.Source(r.Name)] = r.Total
	}
	return st, nil
}
