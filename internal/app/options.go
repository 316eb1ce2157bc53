package service

import (
	"time"

	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits sets the default and maximum leaderboard size.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithFetchLimit sets the number of records fetched per sex. It is raised to
// the maximum leaderboard size when smaller, so every board size is served
// from one fetch.
func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

// WithSeriesWindow sets the default and maximum trailing window in years.
func WithSeriesWindow(defaultWindow, maxWindow int) Option {
	return func(s *Service) {
		if defaultWindow > 0 {
			s.defaultWindow = defaultWindow
		}
		if maxWindow > 0 {
			s.maxWindow = maxWindow
		}
	}
}

// WithClock overrides the clock used for the current year and cache stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxViews bounds the number of named widget views kept per kind.
func WithMaxViews(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxViews = n
		}
	}
}
