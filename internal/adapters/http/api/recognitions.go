package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/kudosly/internal/domain/model"
)

const defaultFeedLimit = 20

// RecognitionDependencies defines the recognition operations.
type RecognitionDependencies interface {
	Recognition(ctx context.Context, id string) (model.Recognition, error)
	RecognitionsFor(ctx context.Context, employeeID string, limit int) ([]model.Recognition, error)
	Feed(ctx context.Context, limit int) ([]model.Recognition, error)
	BulkRecognize(ctx context.Context, effortIDs []string) ([]model.Recognition, error)
}

type bulkRecognitionRequest struct {
	EffortIDs []string `json:"effortIds" validate:"required,min=1,max=100,dive,required"`
}

// RecognitionHandler serves /api/v1/recognitions.
type RecognitionHandler struct {
	deps      RecognitionDependencies
	validator *validator.Validate
}

// HandleGet handles GET /api/v1/recognitions/{id}.
func (h *RecognitionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recognition"
	rec, err := h.deps.Recognition(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleUser handles GET /api/v1/recognitions/user/{id}.
func (h *RecognitionHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_recognitions"
	limit, err := queryLimit(r, defaultFeedLimit)
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	recs, err := h.deps.RecognitionsFor(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recognitions": recs, "count": len(recs)})
}

// HandleFeed handles GET /api/v1/recognitions/feed.
func (h *RecognitionHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.recognition_feed"
	limit, err := queryLimit(r, defaultFeedLimit)
	if err != nil {
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	recs, err := h.deps.Feed(r.Context(), limit)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recognitions": recs, "count": len(recs)})
}

// HandleBulk handles POST /api/v1/recognitions/bulk.
func (h *RecognitionHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_recognitions"
	var req bulkRecognitionRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		fail(w, op, err)
		return
	}
	recs, err := h.deps.BulkRecognize(r.Context(), req.EffortIDs)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recognitions": recs, "count": len(recs)})
}
