package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TAKEDOWN_"
	envConfig  = envPrefix + "CONFIG"
	defaultEnv = ".env"
)

// LoadOption adjusts where Load reads from.
type LoadOption func(*loadSettings)

type loadSettings struct {
	file     string
	dotenvs  []string
	optional bool
}

// WithFile reads YAML from path instead of $TAKEDOWN_CONFIG.
func WithFile(path string) LoadOption {
	return func(s *loadSettings) { s.file = path }
}

// WithDotenv replaces the dotenv files read before the environment. Missing files are skipped.
func WithDotenv(paths ...string) LoadOption {
	return func(s *loadSettings) { s.dotenvs = paths }
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. dotenv files, which never override variables already set
//  3. YAML file from WithFile or $TAKEDOWN_CONFIG
//  4. env (prefix TAKEDOWN_)
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	s := loadSettings{dotenvs: []string{defaultEnv}}
	for _, opt := range opts {
		opt(&s)
	}

	for _, p := range s.dotenvs {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, p, err)
		}
	}

	k := koanf.New(".")

	path := s.file
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TAKEDOWN_SQLITE_DSN -> sqlite_dsn; underscores stay to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "config" {
			return ""
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
