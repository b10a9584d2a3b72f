package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"gorm.io/gorm/clause"
)

// SeedBadges upserts the badge catalog so edits to definitions reach
// existing databases.
func (s *Store) SeedBadges(ctx context.Context, badges []model.Badge) error {
	defer s.observe(ctx, "seed_badges", time.Now())
	if len(badges) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&badges).Error; err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}

// ListBadges returns every badge in display order.
func (s *Store) ListBadges(ctx context.Context) ([]model.Badge, error) {
	defer s.observe(ctx, "list_badges", time.Now())
	out := []model.Badge{}
	if err := s.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return out, nil
}

// FindBadge loads a badge definition.
func (s *Store) FindBadge(ctx context.Context, id model.BadgeID) (model.Badge, bool, error) {
	defer s.observe(ctx, "find_badge", time.Now())
	var b model.Badge
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return model.Badge{}, false, nil
		}
		return model.Badge{}, false, fmt.Errorf("find badge %s: %w", id, err)
	}
	return b, true, nil
}

// FindAward loads the award of badge id to an employee.
func (s *Store) FindAward(ctx context.Context, employeeID string, id model.BadgeID) (model.BadgeAward, bool, error) {
	defer s.observe(ctx, "find_award", time.Now())
	var a model.BadgeAward
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND badge_id = ?", employeeID, id).
		First(&a).Error
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return model.BadgeAward{}, false, nil
		}
		return model.BadgeAward{}, false, fmt.Errorf("find award %s/%s: %w", employeeID, id, err)
	}
	return a, true, nil
}

// CreateAward inserts award unless the (employee, badge) pair exists. The
// stored row is returned either way, so concurrent awards converge on one
// record.
func (s *Store) CreateAward(ctx context.Context, award model.BadgeAward) (model.BadgeAward, bool, error) {
	defer s.observe(ctx, "create_award", time.Now())
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
	if res.Error != nil {
		return model.BadgeAward{}, false, fmt.Errorf("create award %s/%s: %w", award.EmployeeID, award.BadgeID, res.Error)
	}
	stored, ok, err := s.FindAward(ctx, award.EmployeeID, award.BadgeID)
	if err != nil {
		return model.BadgeAward{}, false, err
	}
	if !ok {
		return model.BadgeAward{}, false, fmt.Errorf("award %s/%s vanished: %w", award.EmployeeID, award.BadgeID, ErrNotFound)
	}
	return stored, res.RowsAffected == 1, nil
}

// AwardsByEmployee lists an employee's awards, oldest first.
func (s *Store) AwardsByEmployee(ctx context.Context, employeeID string) ([]model.BadgeAward, error) {
	defer s.observe(ctx, "awards_by_employee", time.Now())
	out := []model.BadgeAward{}
	if err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("earned_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("awards of %s: %w", employeeID, err)
	}
	return out, nil
}
