package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/okian/kudosly/internal/adapters/repository"
	service "github.com/okian/kudosly/internal/app"
	"github.com/okian/kudosly/internal/domain/model"
)

// EffortDependencies defines the effort read and intake operations.
type EffortDependencies interface {
	Ingest(ctx context.Context, source model.Source, payload model.Payload) (model.Effort, error)
	Effort(ctx context.Context, id string) (model.Effort, error)
	ListEfforts(ctx context.Context, f repository.EffortFilter) ([]model.Effort, error)
	Summary(ctx context.Context, id string) (service.EffortSummary, error)
	EffortStats(ctx context.Context, employeeID string) (repository.EffortStats, error)
	Reprocess(ctx context.Context, id string, reclassify bool) error
}

// createEffortRequest is a manual intake of a raw source payload.
type createEffortRequest struct {
	Source  model.Source  `json:"source" validate:"required,oneof=jira github bitbucket slack test"`
	Payload model.Payload `json:"payload" validate:"required"`
}

// EffortHandler serves /api/v1/efforts.
type EffortHandler struct {
	deps      EffortDependencies
	validator *validator.Validate
}

// HandleList handles GET /api/v1/efforts.
func (h *EffortHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_efforts"
	limit, err := queryLimit(r, repository.DefaultListLimit)
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	efforts, err := h.deps.ListEfforts(r.Context(), repository.EffortFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		From:       from,
		To:         to,
		Limit:      limit,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"efforts": efforts, "count": len(efforts)})
}

// HandleCreate handles POST /api/v1/efforts.
func (h *EffortHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_effort"
	var req createEffortRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		fail(w, op, err)
		return
	}
	e, err := h.deps.Ingest(r.Context(), req.Source, req.Payload)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Effort: &e})
}

// HandleGet handles GET /api/v1/efforts/{id}.
func (h *EffortHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_effort"
	e, err := h.deps.Effort(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleSummary handles GET /api/v1/efforts/{id}/summary.
func (h *EffortHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.effort_summary"
	s, err := h.deps.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleStats handles GET /api/v1/efforts/stats.
func (h *EffortHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.effort_stats"
	st, err := h.deps.EffortStats(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleReprocess handles POST /api/v1/efforts/{id}/reprocess.
func (h *EffortHandler) HandleReprocess(w http.ResponseWriter, r *http.Request) {
	const op = "api.reprocess_effort"
	reclassify := false
	if raw := r.URL.Query().Get("reclassify"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fail(w, op, fmt.Errorf("%w: reclassify must be a boolean", ErrBadRequest))
			return
		}
		reclassify = b
	}
	id := r.PathValue("id")
	if err := h.deps.Reprocess(r.Context(), id, reclassify); err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "effortId": id, "reclassify": reclassify})
}
