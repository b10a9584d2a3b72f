package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
)

// CreateRecognition inserts a recognition.
func (s *Store) CreateRecognition(ctx context.Context, r *model.Recognition) error {
	defer s.observe(ctx, "create_recognition", time.Now())
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create recognition %s: %w", r.ID, err)
	}
	return nil
}

// FindRecognition loads one recognition by id.
func (s *Store) FindRecognition(ctx context.Context, id string) (model.Recognition, error) {
	defer s.observe(ctx, "find_recognition", time.Now())
	var r model.Recognition
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return model.Recognition{}, fmt.Errorf("find recognition %s: %w", id, notFound(err))
	}
	return r, nil
}

// FindRecognitionByEffort returns the recognition of an effort, with found
// false when none was generated.
func (s *Store) FindRecognitionByEffort(ctx context.Context, effortID string) (model.Recognition, bool, error) {
	defer s.observe(ctx, "recognition_by_effort", time.Now())
	var r model.Recognition
	err := s.db.WithContext(ctx).Where("effort_id = ?", effortID).Order("timestamp ASC").First(&r).Error
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return model.Recognition{}, false, nil
		}
		return model.Recognition{}, false, fmt.Errorf("recognition of effort %s: %w", effortID, err)
	}
	return r, true, nil
}

// RecognitionsByEmployee returns an employee's recognitions, newest first.
func (s *Store) RecognitionsByEmployee(ctx context.Context, employeeID string, limit int) ([]model.Recognition, error) {
	defer s.observe(ctx, "recognitions_by_employee", time.Now())
	limit, err := checkLimit(limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out := []model.Recognition{}
	if err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recognitions of %s: %w", employeeID, err)
	}
	return out, nil
}

// RecentRecognitions returns the newest recognitions across all employees.
func (s *Store) RecentRecognitions(ctx context.Context, limit int) ([]model.Recognition, error) {
	defer s.observe(ctx, "recent_recognitions", time.Now())
	limit, err := checkLimit(limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out := []model.Recognition{}
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recent recognitions: %w", err)
	}
	return out, nil
}

// FindRecognitionsInRange returns an employee's recognitions with timestamp
// in [start, end), oldest first.
func (s *Store) FindRecognitionsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]model.Recognition, error) {
	defer s.observe(ctx, "recognitions_in_range", time.Now())
	var out []model.Recognition
	if err := s.db.WithContext(ctx).
		Where("employee_id = ? AND timestamp >= ? AND timestamp < ?", employeeID, start.UTC(), end.UTC()).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recognitions of %s in range: %w", employeeID, err)
	}
	return out, nil
}

// CountRecognitions returns the number of stored recognitions.
func (s *Store) CountRecognitions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Recognition{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count recognitions: %w", err)
	}
	return n, nil
}
