// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/okian/kudosly/internal/adapters/repository"
	service "github.com/okian/kudosly/internal/app"
	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/digest"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/internal/domain/normalize"
	"github.com/okian/kudosly/pkg/logger"
)

const maxListLimit = 500

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	WebhookDependencies
	EffortDependencies
	RecognitionDependencies
	BadgeDependencies
	DigestDependencies
	EmployeeDependencies
	StatsProvider
	Pinger
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	webhookHandler     *WebhookHandler
	effortHandler      *EffortHandler
	recognitionHandler *RecognitionHandler
	badgeHandler       *BadgeHandler
	digestHandler      *DigestHandler
	employeeHandler    *EmployeeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{webhookRate: 50, webhookBurst: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get().Named("api")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		webhookHandler:     NewWebhookHandler(deps, cfg),
		effortHandler:      &EffortHandler{deps: deps, validator: v},
		recognitionHandler: &RecognitionHandler{deps: deps, validator: v},
		badgeHandler:       &BadgeHandler{deps: deps, validator: v},
		digestHandler:      &DigestHandler{deps: deps, validator: v},
		employeeHandler:    &EmployeeHandler{deps: deps, validator: v},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("GET /api/v1/webhooks/health", "webhooks_health", s.webhookHandler.HandleHealth)
	handle("POST /api/v1/webhooks/efforts", "webhooks", s.webhookHandler.HandleGeneric)
	for _, src := range []model.Source{model.SourceJira, model.SourceGitHub, model.SourceBitbucket, model.SourceSlack, model.SourceTest} {
		handle("POST /api/v1/webhooks/"+string(src), "webhooks_"+string(src), s.webhookHandler.HandleSource(src))
	}

	handle("GET /api/v1/efforts", "efforts_list", s.effortHandler.HandleList)
	handle("POST /api/v1/efforts", "efforts_create", s.effortHandler.HandleCreate)
	handle("GET /api/v1/efforts/stats", "efforts_stats", s.effortHandler.HandleStats)
	handle("GET /api/v1/efforts/{id}", "efforts_get", s.effortHandler.HandleGet)
	handle("GET /api/v1/efforts/{id}/summary", "efforts_summary", s.effortHandler.HandleSummary)
	handle("POST /api/v1/efforts/{id}/reprocess", "efforts_reprocess", s.effortHandler.HandleReprocess)

	handle("GET /api/v1/recognitions/feed", "recognitions_feed", s.recognitionHandler.HandleFeed)
	handle("POST /api/v1/recognitions/bulk", "recognitions_bulk", s.recognitionHandler.HandleBulk)
	handle("GET /api/v1/recognitions/user/{id}", "recognitions_user", s.recognitionHandler.HandleUser)
	handle("GET /api/v1/recognitions/{id}", "recognitions_get", s.recognitionHandler.HandleGet)

	handle("GET /api/v1/badges", "badges_list", s.badgeHandler.HandleList)
	handle("GET /api/v1/badges/user/{id}", "badges_user", s.badgeHandler.HandleUser)
	handle("POST /api/v1/badges/award", "badges_award", s.badgeHandler.HandleAward)
	handle("GET /api/v1/badges/{badgeId}/user/{id}", "badges_progress", s.badgeHandler.HandleProgress)
	handle("POST /api/v1/badges/evaluate/{id}", "badges_evaluate", s.badgeHandler.HandleEvaluate)

	handle("GET /api/v1/digest", "digest_list", s.digestHandler.HandleList)
	handle("GET /api/v1/digest/latest/{id}", "digest_latest", s.digestHandler.HandleLatest)
	handle("POST /api/v1/digest/{id}/generate", "digest_generate", s.digestHandler.HandleGenerate)

	handle("POST /api/v1/employees", "employees_create", s.employeeHandler.HandleCreate)
	handle("GET /api/v1/employees/{id}", "employees_get", s.employeeHandler.HandleGet)
}

type ackResponse struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Effort    *model.Effort `json:"effort,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err onto a status code and writes it.
func fail(w http.ResponseWriter, op string, err error) {
	status, code, kind := classify(err)
	if err == kind { //nolint:errorlint // bare sentinel
		writeError(w, status, code, NewKind(op, kind))
		return
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

func classify(err error) (int, string, error) {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", ErrUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", ErrRateLimited
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrNotFound), errors.Is(err, badge.ErrUnknownBadge):
		return http.StatusNotFound, "not_found", ErrNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "conflict", ErrConflict
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", ErrUnavailable
	case errors.Is(err, ErrBadRequest), errors.As(err, &verr),
		errors.Is(err, normalize.ErrUnknownSource), errors.Is(err, normalize.ErrMalformedPayload),
		errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, digest.ErrInvalidWindow),
		errors.Is(err, badge.ErrNoEmployee), errors.Is(err, model.ErrInvalidEffort):
		return http.StatusBadRequest, "bad_request", ErrBadRequest
	}
	return http.StatusInternalServerError, "internal", errors.New("internal error")
}

// queryLimit parses ?limit, returning def when absent.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, errors.New("limit must be an integer between 1 and 500")
	}
	return n, nil
}

// queryTime parses an RFC3339 query parameter, zero when absent.
func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return t, nil
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
