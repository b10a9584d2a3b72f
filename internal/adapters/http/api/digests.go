package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/kudosly/internal/domain/model"
)

const defaultDigestLimit = 20

// DigestDependencies defines the digest operations.
type DigestDependencies interface {
	GenerateDigest(ctx context.Context, employeeID string, start, end time.Time) (model.WeeklyDigest, error)
	LatestDigest(ctx context.Context, employeeID string) (model.WeeklyDigest, error)
	ListDigests(ctx context.Context, limit int) ([]model.WeeklyDigest, error)
}

// generateDigestRequest selects the window. Both bounds or neither.
type generateDigestRequest struct {
	WeekStart *time.Time `json:"weekStart" validate:"required_with=WeekEnd"`
	WeekEnd   *time.Time `json:"weekEnd" validate:"required_with=WeekStart"`
}

// DigestHandler serves /api/v1/digest.
type DigestHandler struct {
	deps      DigestDependencies
	validator *validator.Validate
}

// HandleList handles GET /api/v1/digest.
func (h *DigestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_digests"
	limit, err := queryLimit(r, defaultDigestLimit)
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	list, err := h.deps.ListDigests(r.Context(), limit)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"digests": list, "count": len(list)})
}

// HandleLatest handles GET /api/v1/digest/latest/{id}.
func (h *DigestHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	const op = "api.latest_digest"
	d, err := h.deps.LatestDigest(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleGenerate handles POST /api/v1/digest/{id}/generate. An empty body
// generates the current week.
func (h *DigestHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_digest"
	var req generateDigestRequest
	if err := decode(w, r, h.validator, &req); err != nil && !errors.Is(err, io.EOF) {
		fail(w, op, err)
		return
	}
	var start, end time.Time
	if req.WeekStart != nil && req.WeekEnd != nil {
		start, end = *req.WeekStart, *req.WeekEnd
	}
	d, err := h.deps.GenerateDigest(r.Context(), r.PathValue("id"), start, end)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}
