package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/kudosly/internal/domain/model"
)

// EmployeeDependencies defines the directory operations.
type EmployeeDependencies interface {
	CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error)
	Employee(ctx context.Context, id string) (model.Employee, error)
}

type createEmployeeRequest struct {
	ID             string `json:"id" validate:"omitempty,max=64"`
	Name           string `json:"name" validate:"required,max=128"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Team           string `json:"team" validate:"omitempty,max=64"`
	GithubUsername string `json:"githubUsername" validate:"omitempty,max=64"`
	SlackID        string `json:"slackId" validate:"omitempty,max=64"`
}

// EmployeeHandler serves /api/v1/employees.
type EmployeeHandler struct {
	deps      EmployeeDependencies
	validator *validator.Validate
}

// HandleCreate handles POST /api/v1/employees.
func (h *EmployeeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_employee"
	var req createEmployeeRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		fail(w, op, err)
		return
	}
	e, err := h.deps.CreateEmployee(r.Context(), model.Employee{
		ID:             req.ID,
		Name:           req.Name,
		Email:          req.Email,
		Team:           req.Team,
		GithubUsername: req.GithubUsername,
		SlackID:        req.SlackID,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleGet handles GET /api/v1/employees/{id}.
func (h *EmployeeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee"
	e, err := h.deps.Employee(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
