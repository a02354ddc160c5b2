package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if DROPZONE_CONFIG is set
//  3. env (prefix DROPZONE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DROPZONE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DROPZONE_ADDR, DROPZONE_API_KEY, ...
	// Map env keys like DROPZONE_API_KEY -> api_key (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DROPZONE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "dropzone_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("addr must not be empty"))
	}
	if cfg.MaxRequests < 1 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("max_requests must be at least 1"))
	}
	if cfg.WindowSeconds < 1 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("window_seconds must be at least 1"))
	}
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("sample_rate must be in (0, 1]"))
	}
	return &cfg, nil
}
