// Package config defines process configuration and its layered loader.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/okian/takedown/internal/domain/matcher"
	"github.com/okian/takedown/internal/domain/scoring"
)

// Output formats accepted in OutputFormats.
var knownFormats = []string{"csv", "xlsx", "json"} //nolint:gochecknoglobals // closed set

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `koanf:"log_format" yaml:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" yaml:"addr"`

	RosterPath  string `koanf:"roster_path" yaml:"roster_path"`
	ResultsPath string `koanf:"results_path" yaml:"results_path"`

	// OutputDir receives exported tables; OutputFormats picks csv, xlsx and json.
	OutputDir     string   `koanf:"output_dir" yaml:"output_dir"`
	OutputFormats []string `koanf:"output_formats" yaml:"output_formats"`

	// SQLiteDSN enables the snapshot store when set.
	SQLiteDSN string `koanf:"sqlite_dsn" yaml:"sqlite_dsn"`

	// ParseWorkers sizes the section parsing pool.
	ParseWorkers int `koanf:"parse_workers" yaml:"parse_workers"`

	// RefreshInterval re-runs the pipeline in serve mode; zero runs once.
	RefreshInterval time.Duration `koanf:"refresh_interval" yaml:"refresh_interval"`

	// TopCacheSize is how many standings rows each snapshot caches.
	TopCacheSize int `koanf:"top_cache_size" yaml:"top_cache_size"`

	// MaxStandingsLimit caps GET /api/standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit" yaml:"max_standings_limit"`

	// RefreshRate and RefreshBurst throttle POST /api/refresh per client.
	RefreshRate  float64 `koanf:"refresh_rate" yaml:"refresh_rate"`
	RefreshBurst int     `koanf:"refresh_burst" yaml:"refresh_burst"`

	Metrics Metrics `koanf:"metrics" yaml:"metrics"`

	// Rules and Matching are empty unless configured; see ScoringRules and MatchingConfig.
	Rules    scoring.Rules  `koanf:"rules" yaml:"rules,omitempty"`
	Matching matcher.Config `koanf:"matching" yaml:"matching,omitempty"`
}

// Metrics configures the Prometheus collectors behind /metrics.
type Metrics struct {
	Enabled   bool   `koanf:"enabled" yaml:"enabled"`
	Namespace string `koanf:"namespace" yaml:"namespace"`
	// Buckets are latency histogram bounds in milliseconds, ascending.
	Buckets []float64         `koanf:"buckets" yaml:"buckets,omitempty"`
	Labels  map[string]string `koanf:"labels" yaml:"labels,omitempty"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "json",
		Addr:              ":9080",
		RosterPath:        "draft_roster.csv",
		ResultsPath:       "results.txt",
		OutputDir:         "output",
		OutputFormats:     []string{"csv"},
		ParseWorkers:      runtime.NumCPU(),
		TopCacheSize:      64,
		MaxStandingsLimit: 100,
		RefreshRate:       1,
		RefreshBurst:      3,
		Metrics:           Metrics{Enabled: true, Namespace: "takedown"},
	}
}

// ScoringRules returns the configured rules, filling unset parts with defaults.
func (c *Config) ScoringRules() scoring.Rules {
	r := c.Rules
	def := scoring.DefaultRules()
	if len(r.Rounds) == 0 {
		r.Rounds = def.Rounds
	}
	if len(r.WinTypes) == 0 {
		r.WinTypes = def.WinTypes
	}
	if len(r.Placement) == 0 {
		r.Placement = def.Placement
	}
	return r
}

// MatchingConfig returns the configured matching inputs, filling unset parts with defaults.
func (c *Config) MatchingConfig() matcher.Config {
	m := c.Matching
	def := matcher.DefaultConfig()
	if m.Collisions == nil {
		m.Collisions = def.Collisions
	}
	if m.Overrides == nil {
		m.Overrides = def.Overrides
	}
	if m.SchoolAliases == nil {
		m.SchoolAliases = def.SchoolAliases
	}
	if m.NameVariants == nil {
		m.NameVariants = def.NameVariants
	}
	return m
}

// Resolved returns a copy with rules and matching filled in.
func (c *Config) Resolved() Config {
	out := *c
	out.Rules = c.ScoringRules()
	out.Matching = c.MatchingConfig()
	return out
}

// Validate checks values the loader cannot type-check.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for _, f := range c.OutputFormats {
		if !slices.Contains(knownFormats, f) {
			return fmt.Errorf("%w: output format %q", ErrInvalidConfig, f)
		}
	}
	if c.ParseWorkers < 0 {
		return fmt.Errorf("%w: parse_workers must not be negative", ErrInvalidConfig)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrInvalidConfig)
	}
	if c.MaxStandingsLimit <= 0 {
		return fmt.Errorf("%w: max_standings_limit must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return fmt.Errorf("%w: metrics buckets must be strictly ascending", ErrInvalidConfig)
		}
	}
	for rank := range c.Rules.Placement {
		if rank < 1 {
			return fmt.Errorf("%w: placement rank %d", ErrInvalidConfig, rank)
		}
	}
	seen := make(map[string]bool, len(c.Rules.Rounds))
	for _, r := range c.Rules.Rounds {
		if r.Tag == "" {
			return fmt.Errorf("%w: round without tag", ErrInvalidConfig)
		}
		if seen[r.Tag] {
			return fmt.Errorf("%w: duplicate round tag %q", ErrInvalidConfig, r.Tag)
		}
		seen[r.Tag] = true
	}
	return nil
}
