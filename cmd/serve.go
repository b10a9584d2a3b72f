package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/kudosly/internal/adapters/ai"
	"github.com/okian/kudosly/internal/adapters/http/api"
	"github.com/okian/kudosly/internal/adapters/http/swagger"
	app "github.com/okian/kudosly/internal/app"
	"github.com/okian/kudosly/internal/config"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func serveCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and REST API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Default Go collectors stay off; the service reports its own system metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	log := logger.Get()

	svc, err := buildService(ctx, cfg, true)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithSecrets(webhookSecrets(cfg)),
		api.WithWebhookRateLimit(cfg.WebhookRateLimit, cfg.WebhookBurst),
		api.WithTestSource(cfg.AllowTestSource),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService maps configuration onto service options. The digest schedule
// only runs for long-lived processes.
func buildService(ctx context.Context, cfg *config.Config, scheduled bool) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(logger.Get().Named("service")),
		app.WithDatabasePath(cfg.DatabasePath),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupe(cfg.DedupeSize, cfg.DedupeTTL),
		app.WithDirectoryCacheTTL(cfg.DirectoryCacheTTL),
		app.WithTestSource(cfg.AllowTestSource),
		app.WithThresholds(cfg.RecognitionThreshold, cfg.BadgeThreshold),
		app.WithFullBadgeEvaluation(cfg.FullBadgeEvaluation),
		app.WithDigestConcurrency(cfg.DigestConcurrency),
	}
	if scheduled && cfg.DigestEnabled {
		weekday, err := cfg.Weekday()
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithDigestSchedule(weekday, cfg.DigestHour))
	}
	if cfg.AIAPIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return nil, fmt.Errorf("create assistant: %w", err)
		}
		opts = append(opts, app.WithAssistant(ai.NewAssistant(gemini, ai.WithLogger(logger.Get().Named("ai")))))
	}
	return app.New(opts...), nil
}

// webhookSecrets resolves the signing secret of every source, falling back
// to the shared webhook secret.
func webhookSecrets(cfg *config.Config) map[model.Source]string {
	out := make(map[model.Source]string, len(model.Sources))
	for _, src := range model.Sources {
		secret := cfg.Secret(string(src))
		if secret == "" {
			secret = cfg.WebhookSecret
		}
		if secret != "" {
			out[src] = secret
		}
	}
	return out
}
