package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// WebhookDependencies defines what webhook ingestion needs.
type WebhookDependencies interface {
	SeenAndRecord(ctx context.Context, source model.Source, deliveryID string) bool
	Unrecord(ctx context.Context, source model.Source, deliveryID string)
	Ingest(ctx context.Context, source model.Source, payload model.Payload) (model.Effort, error)
}

// WebhookHandler accepts effort webhooks.
type WebhookHandler struct {
	deps       WebhookDependencies
	secrets    map[model.Source]string
	limiter    *rate.Limiter
	testSource bool
	log        logger.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(deps WebhookDependencies, cfg serverConfig) *WebhookHandler {
	limit := rate.Inf
	if cfg.webhookRate > 0 {
		limit = rate.Limit(cfg.webhookRate)
	}
	return &WebhookHandler{
		deps:       deps,
		secrets:    cfg.secrets,
		limiter:    rate.NewLimiter(limit, max(cfg.webhookBurst, 1)),
		testSource: cfg.testSource,
		log:        cfg.log,
	}
}

// HandleGeneric handles POST /api/v1/webhooks/efforts?source=.
func (h *WebhookHandler) HandleGeneric(w http.ResponseWriter, r *http.Request) {
	const op = "api.webhook"
	tag := r.URL.Query().Get("source")
	if tag == "" {
		fail(w, op, fmt.Errorf("%w: missing source", ErrBadRequest))
		return
	}
	source := model.ParseSource(tag)
	if source == model.SourceUnknown {
		fail(w, op, fmt.Errorf("%w: unknown source %q", ErrBadRequest, tag))
		return
	}
	h.accept(w, r, source)
}

// HandleSource returns the handler of a source specific webhook route.
func (h *WebhookHandler) HandleSource(source model.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.accept(w, r, source)
	}
}

// HandleHealth handles GET /api/v1/webhooks/health.
func (h *WebhookHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	sources := []model.Source{model.SourceJira, model.SourceGitHub, model.SourceBitbucket, model.SourceSlack}
	if h.testSource {
		sources = append(sources, model.SourceTest)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "sources": sources})
}

func (h *WebhookHandler) accept(w http.ResponseWriter, r *http.Request, source model.Source) {
	const op = "api.webhook"
	ctx := r.Context()

	if source == model.SourceTest && !h.testSource {
		http.NotFound(w, r)
		return
	}
	if !h.limiter.Allow() {
		metrics.RecordWebhook(string(source), "rate_limited")
		fail(w, op, ErrRateLimited)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		fail(w, op, fmt.Errorf("%w: read body: %w", ErrBadRequest, err))
		return
	}
	if !Verify(h.secrets[source], body, requestSignature(r, source)) {
		metrics.RecordWebhook(string(source), "unauthorized")
		h.log.Warn(ctx, "webhook signature rejected", logger.String("source", string(source)))
		fail(w, op, ErrUnauthorized)
		return
	}

	var payload model.Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		if err == nil {
			err = errors.New("payload must be a JSON object")
		}
		metrics.RecordWebhook(string(source), "rejected")
		fail(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	delivery := deliveryID(r)
	if delivery != "" && h.deps.SeenAndRecord(ctx, source, delivery) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	e, err := h.deps.Ingest(ctx, source, payload)
	if err != nil {
		if delivery != "" {
			// let the sender's retry through
			h.deps.Unrecord(ctx, source, delivery)
		}
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Effort: &e})
}
