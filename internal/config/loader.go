package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KUDOSLY_"

// LoadOption adjusts a Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithFile reads path instead of the file named by KUDOSLY_CONFIG.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file from WithFile or KUDOSLY_CONFIG
//  3. env (prefix KUDOSLY_, flat snake_case keys)
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{path: os.Getenv(EnvPrefix + "CONFIG")}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if o.path != "" {
		if err := k.Load(file.Provider(o.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, o.path, err)
		}
	}

	// KUDOSLY_QUEUE_SIZE -> queue_size
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
