package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"gorm.io/gorm"
)

// CreateEmployee inserts a directory record. Emails are stored lower-cased.
func (s *Store) CreateEmployee(ctx context.Context, e *model.Employee) error {
	defer s.observe(ctx, "create_employee", time.Now())
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("create employee %s: %w", e.ID, ErrDuplicate)
		}
		return fmt.Errorf("create employee %s: %w", e.ID, err)
	}
	return nil
}

// FindEmployee loads an employee by id.
func (s *Store) FindEmployee(ctx context.Context, id string) (model.Employee, error) {
	defer s.observe(ctx, "find_employee", time.Now())
	var e model.Employee
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return model.Employee{}, fmt.Errorf("find employee %s: %w", id, notFound(err))
	}
	return e, nil
}

// FindByEmail resolves an employee by email, case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (model.Employee, error) {
	defer s.observe(ctx, "find_employee_by_email", time.Now())
	var e model.Employee
	if err := s.db.WithContext(ctx).
		First(&e, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return model.Employee{}, fmt.Errorf("find employee by email: %w", notFound(err))
	}
	return e, nil
}

// ActiveEmployees lists the resolved employees with at least one effort in
// [start, end).
func (s *Store) ActiveEmployees(ctx context.Context, start, end time.Time) ([]string, error) {
	defer s.observe(ctx, "active_employees", time.Now())
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.Effort{}).
		Distinct("employee_id").
		Where("employee_id <> '' AND timestamp >= ? AND timestamp < ?", start.UTC(), end.UTC()).
		Order("employee_id ASC").
		Pluck("employee_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("active employees: %w", err)
	}
	return ids, nil
}
