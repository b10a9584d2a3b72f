package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/model"
)

// BadgeDependencies defines the badge operations.
type BadgeDependencies interface {
	Badges(ctx context.Context) ([]model.Badge, error)
	UserBadges(ctx context.Context, employeeID string) ([]badge.Progress, error)
	BadgeProgress(ctx context.Context, employeeID string, id model.BadgeID) (badge.Progress, error)
	AwardBadge(ctx context.Context, employeeID string, id model.BadgeID) (model.BadgeAward, bool, error)
	EvaluateBadges(ctx context.Context, employeeID string) ([]model.BadgeAward, error)
}

type awardRequest struct {
	EmployeeID string        `json:"employeeId" validate:"required,max=64"`
	BadgeID    model.BadgeID `json:"badgeId" validate:"required"`
}

// BadgeHandler serves /api/v1/badges.
type BadgeHandler struct {
	deps      BadgeDependencies
	validator *validator.Validate
}

// HandleList handles GET /api/v1/badges.
func (h *BadgeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_badges"
	badges, err := h.deps.Badges(r.Context())
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"badges": badges})
}

// HandleUser handles GET /api/v1/badges/user/{id}.
func (h *BadgeHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_badges"
	progress, err := h.deps.UserBadges(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	earned := 0
	for _, p := range progress {
		if p.Earned {
			earned++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"employeeId": r.PathValue("id"), "badges": progress, "earned": earned})
}

// HandleProgress handles GET /api/v1/badges/{badgeId}/user/{id}.
func (h *BadgeHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.badge_progress"
	p, err := h.deps.BadgeProgress(r.Context(), r.PathValue("id"), model.BadgeID(r.PathValue("badgeId")))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleAward handles POST /api/v1/badges/award.
func (h *BadgeHandler) HandleAward(w http.ResponseWriter, r *http.Request) {
	const op = "api.award_badge"
	var req awardRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		fail(w, op, err)
		return
	}
	award, created, err := h.deps.AwardBadge(r.Context(), req.EmployeeID, req.BadgeID)
	if err != nil {
		fail(w, op, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"award": award, "created": created})
}

// HandleEvaluate handles POST /api/v1/badges/evaluate/{id}.
func (h *BadgeHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate_badges"
	awarded, err := h.deps.EvaluateBadges(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employeeId": r.PathValue("id"), "awarded": awarded})
}
