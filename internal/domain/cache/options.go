package cache

import "time"

type options struct {
	name string
	now  func() time.Time
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithName sets the cache label used in metrics and stats.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
