package api

import (
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
)

type serverConfig struct {
	secrets      map[model.Source]string
	webhookRate  float64
	webhookBurst int
	testSource   bool
	log          logger.Logger
}

// Option configures a Server.
type Option func(*serverConfig)

// WithSecrets sets the per-source webhook signing secrets. Sources without a
// secret are not verified.
func WithSecrets(secrets map[model.Source]string) Option {
	return func(c *serverConfig) {
		c.secrets = secrets
	}
}

// WithWebhookRateLimit bounds webhook ingress. A non-positive rate disables it.
func WithWebhookRateLimit(perSecond float64, burst int) Option {
	return func(c *serverConfig) {
		c.webhookRate = perSecond
		c.webhookBurst = burst
	}
}

// WithTestSource exposes the harness webhook.
func WithTestSource(enabled bool) Option {
	return func(c *serverConfig) {
		c.testSource = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}
