// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile enables a rotated log file in addition to stdout when set.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the root of the upstream analytics API.
	APIBaseURL string `koanf:"api_base_url"`

	// APITimeoutMS bounds each upstream request.
	APITimeoutMS int `koanf:"api_timeout_ms"`

	// RetryAttempts and RetryBackoffMS control retries of transient upstream failures.
	RetryAttempts  int `koanf:"retry_attempts"`
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// DefaultLimit is the leaderboard size when the caller does not pass one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps GET /leaderboard?limit.
	MaxLimit int `koanf:"max_limit"`

	// FetchLimit is the per-sex limit requested upstream; raised to MaxLimit when smaller.
	FetchLimit int `koanf:"fetch_limit"`

	// SeriesWindow is the default trailing window in years.
	SeriesWindow int `koanf:"series_window"`

	// MaxSeriesWindow caps GET /series?window.
	MaxSeriesWindow int `koanf:"max_series_window"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		APIBaseURL:      "http://localhost:8000",
		APITimeoutMS:    5000,
		RetryAttempts:   3,
		RetryBackoffMS:  200,
		DefaultLimit:    10,
		MaxLimit:        100,
		FetchLimit:      100,
		SeriesWindow:    10,
		MaxSeriesWindow: 50,
	}
}

// APITimeout returns the upstream timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

// RetryBackoff returns the retry backoff step as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIBaseURL) == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.APITimeoutMS <= 0:
		return fmt.Errorf("%w: api_timeout_ms must be positive", ErrInvalidConfig)
	case c.DefaultLimit < 1 || c.MaxLimit < c.DefaultLimit:
		return fmt.Errorf("%w: need 1 <= default_limit <= max_limit", ErrInvalidConfig)
	case c.SeriesWindow < 1 || c.MaxSeriesWindow < c.SeriesWindow:
		return fmt.Errorf("%w: need 1 <= series_window <= max_series_window", ErrInvalidConfig)
	}
	return nil
}
