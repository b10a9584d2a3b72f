package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"gorm.io/gorm/clause"
)

// SaveDigest upserts d on (employee, week start). On conflict the stored id
// is kept and copied back into d.
func (s *Store) SaveDigest(ctx context.Context, d *model.WeeklyDigest) error {
	defer s.observe(ctx, "save_digest", time.Now())
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"week_end", "summary", "narrative", "metrics", "highlights",
			"top_contributors", "top_recognitions", "learning_wins",
			"collaboration_score", "total_efforts", "total_recognitions", "generated_at",
		}),
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("save digest of %s: %w", d.EmployeeID, err)
	}

	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.WeeklyDigest{}).
		Where("employee_id = ? AND week_start = ?", d.EmployeeID, d.WeekStart).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("reload digest of %s: %w", d.EmployeeID, err)
	}
	if len(ids) == 1 {
		d.ID = ids[0]
	}
	return nil
}

// LatestDigest returns the digest with the most recent week start of an
// employee.
func (s *Store) LatestDigest(ctx context.Context, employeeID string) (model.WeeklyDigest, error) {
	defer s.observe(ctx, "latest_digest", time.Now())
	var d model.WeeklyDigest
	if err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("week_start DESC").
		First(&d).Error; err != nil {
		return model.WeeklyDigest{}, fmt.Errorf("latest digest of %s: %w", employeeID, notFound(err))
	}
	return d, nil
}

// ListDigests returns the most recently generated digests.
func (s *Store) ListDigests(ctx context.Context, limit int) ([]model.WeeklyDigest, error) {
	defer s.observe(ctx, "list_digests", time.Now())
	limit, err := checkLimit(limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out := []model.WeeklyDigest{}
	if err := s.db.WithContext(ctx).Order("week_start DESC, generated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	return out, nil
}
