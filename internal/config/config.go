// Package config defines service configuration and its loading from defaults,
// an optional YAML file and KUDOSLY_ environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabasePath is the SQLite file; ":memory:" keeps everything in RAM.
	DatabasePath string `koanf:"database_path"`

	// QueueSize bounds the in-memory task queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeTTL is how long webhook delivery ids are remembered.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`
	// DedupeSize bounds the number of remembered delivery ids.
	DedupeSize int `koanf:"dedupe_size"`
	// DirectoryCacheTTL is how long an email lookup stays cached.
	DirectoryCacheTTL time.Duration `koanf:"directory_cache_ttl"`

	// AllowTestSource enables the "test" webhook source.
	AllowTestSource bool `koanf:"allow_test_source"`
	// RecognitionThreshold is the minimum impact score that earns a recognition.
	RecognitionThreshold int `koanf:"recognition_threshold"`
	// BadgeThreshold is the minimum impact score that triggers the badge shortcut.
	BadgeThreshold int `koanf:"badge_threshold"`
	// FullBadgeEvaluation re-evaluates every badge rule after each effort.
	FullBadgeEvaluation bool `koanf:"full_badge_evaluation"`

	// WebhookRateLimit is the sustained webhook rate per second; zero disables limiting.
	WebhookRateLimit float64 `koanf:"webhook_rate_limit"`
	WebhookBurst     int     `koanf:"webhook_burst"`

	// Per-source HMAC secrets. An empty secret disables verification.
	JiraWebhookSecret      string `koanf:"jira_webhook_secret"`
	GitHubWebhookSecret    string `koanf:"github_webhook_secret"`
	SlackWebhookSecret     string `koanf:"slack_webhook_secret"`
	BitbucketWebhookSecret string `koanf:"bitbucket_webhook_secret"`
	// WebhookSecret guards the generic efforts endpoint.
	WebhookSecret string `koanf:"webhook_secret"`

	// Weekly digest schedule, evaluated in UTC.
	DigestEnabled     bool   `koanf:"digest_enabled"`
	DigestWeekday     string `koanf:"digest_weekday"`
	DigestHour        int    `koanf:"digest_hour"`
	DigestConcurrency int    `koanf:"digest_concurrency"`

	// AIAPIKey enables the Gemini classification assistant when set.
	AIAPIKey string `koanf:"ai_api_key"`
	AIModel  string `koanf:"ai_model"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DatabasePath:         "data/kudosly.db",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeTTL:            24 * time.Hour,
		DedupeSize:           100_000,
		DirectoryCacheTTL:    5 * time.Minute,
		AllowTestSource:      false,
		RecognitionThreshold: 5,
		BadgeThreshold:       7,
		FullBadgeEvaluation:  false,
		WebhookRateLimit:     50,
		WebhookBurst:         100,
		DigestEnabled:        true,
		DigestWeekday:        "friday",
		DigestHour:           18,
		DigestConcurrency:    4,
		AIModel:              "gemini-2.5-flash",
	}
}

// Secret returns the webhook secret configured for a source tag.
func (c *Config) Secret(source string) string {
	switch source {
	case "jira":
		return c.JiraWebhookSecret
	case "github":
		return c.GitHubWebhookSecret
	case "slack":
		return c.SlackWebhookSecret
	case "bitbucket":
		return c.BitbucketWebhookSecret
	}
	return c.WebhookSecret
}

// Weekday parses DigestWeekday.
func (c *Config) Weekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(c.DigestWeekday)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %w: digest_weekday %q", ErrInvalidConfig, ErrInvalidSchedule, c.DigestWeekday)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	}
	if c.RecognitionThreshold < 1 || c.RecognitionThreshold > 10 {
		return fmt.Errorf("%w: recognition_threshold must be in 1..10", ErrInvalidConfig)
	}
	if c.BadgeThreshold < 1 || c.BadgeThreshold > 10 {
		return fmt.Errorf("%w: badge_threshold must be in 1..10", ErrInvalidConfig)
	}
	if c.DigestHour < 0 || c.DigestHour > 23 {
		return fmt.Errorf("%w: %w: digest_hour must be in 0..23", ErrInvalidConfig, ErrInvalidSchedule)
	}
	if c.WebhookRateLimit < 0 {
		return fmt.Errorf("%w: webhook_rate_limit must not be negative", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	return nil
}
