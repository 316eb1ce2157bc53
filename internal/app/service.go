// Package service aggregates upstream analytics queries for the widgets:
// it merges per-sex leaderboards, normalizes weight-class series and keeps
// fetched results cached for the process lifetime.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/podium/internal/adapters/analytics"
	"github.com/okian/podium/internal/domain/cache"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Cache names, also used as metric labels.
const (
	leaderboardCache = "leaderboard"
	seriesCache      = "series"
)

// Status is the outcome of an aggregated request.
type Status string

// Request statuses. Loading and idle are only observable through a View.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

type seriesKey struct {
	sex   model.Dimension
	group model.CategoryGroup
}

func (k seriesKey) String() string { return string(k.sex) + "/" + string(k.group) }

// Service is the aggregation facade. It is safe for concurrent use.
type Service struct {
	source analytics.Source

	boards     *cache.Store[model.Dimension, []model.ResultRecord]
	evolutions *cache.Store[seriesKey, series.Raw]
	flight     singleflight.Group

	defaultLimit  int
	maxLimit      int
	fetchLimit    int
	defaultWindow int
	maxWindow     int
	maxViews      int
	now           func() time.Time

	viewsMu     sync.Mutex
	boardViews  map[string]*View[LeaderboardQuery, *LeaderboardResult]
	seriesViews map[string]*View[SeriesQuery, *SeriesResult]

	logger logger.Logger
}

// New creates a service reading from source.
func New(source analytics.Source, opts ...Option) *Service {
	s := &Service{
		source:        source,
		defaultLimit:  10,
		maxLimit:      100,
		fetchLimit:    100,
		defaultWindow: 10,
		maxWindow:     50,
		maxViews:      32,
		now:           time.Now,
		boardViews:    make(map[string]*View[LeaderboardQuery, *LeaderboardResult]),
		seriesViews:   make(map[string]*View[SeriesQuery, *SeriesResult]),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.fetchLimit = max(s.fetchLimit, s.maxLimit)
	s.boards = cache.New[model.Dimension, []model.ResultRecord](cache.WithName(leaderboardCache), cache.WithClock(s.now))
	s.evolutions = cache.New[seriesKey, series.Raw](cache.WithName(seriesCache), cache.WithClock(s.now))
	return s
}

// fetchShared runs fetch at most once per key among concurrent callers.
// The fetch runs on a context detached from ctx, so a caller giving up does
// not cancel it for the others.
func fetchShared[T any](ctx context.Context, s *Service, cacheName, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	detached := context.WithoutCancel(ctx)

	ch := s.flight.DoChan(cacheName+":"+key, func() (any, error) {
		return fetch(detached)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.RecordSharedFetch(cacheName)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// withRequestID makes sure ctx carries a request id and returns it.
func withRequestID(ctx context.Context) (context.Context, string) {
	if id := analytics.RequestID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return analytics.WithRequestID(ctx, id), id
}

// CacheStats describes one cache.
type CacheStats struct {
	Entries int      `json:"entries"`
	Keys    []string `json:"keys"`
}

// Stats is a snapshot of the service state.
type Stats struct {
	Leaderboard CacheStats `json:"leaderboard"`
	Series      CacheStats `json:"series"`
	Views       int        `json:"views"`
}

// GetStats reports cache sizes and the number of widget views.
func (s *Service) GetStats() Stats {
	s.viewsMu.Lock()
	views := len(s.boardViews) + len(s.seriesViews)
	s.viewsMu.Unlock()

	return Stats{
		Leaderboard: CacheStats{
			Entries: s.boards.Len(),
			Keys:    s.boards.Keys(func(d model.Dimension) string { return string(d) }),
		},
		Series: CacheStats{
			Entries: s.evolutions.Len(),
			Keys:    s.evolutions.Keys(seriesKey.String),
		},
		Views: views,
	}
}

// Refresh marks cached leaderboards of filter and every cached series of the
// same sexes stale, so the next request refetches them. It returns the number
// of invalidated entries.
func (s *Service) Refresh(ctx context.Context, filter model.Filter) int {
	n := 0
	for _, d := range filter.Dimensions() {
		if s.boards.Invalidate(ctx, d) {
			n++
		}
		for _, g := range []model.CategoryGroup{model.Subjunior, model.Junior, model.Open} {
			if s.evolutions.Invalidate(ctx, seriesKey{sex: d, group: g}) {
				n++
			}
		}
	}
	s.logger.Info(ctx, "cache refreshed", logger.String("filter", string(filter)), logger.Int("entries", n))
	return n
}

func (s *Service) observe(ctx context.Context, kind string, start time.Time, status Status, err error, fields ...logger.Field) {
	metrics.RecordAggregation(kind, string(status), float64(time.Since(start).Milliseconds()))
	fields = append(fields, logger.String("status", string(status)))
	if err != nil {
		s.logger.Warn(ctx, kind+" request failed", append(fields, logger.Error(err))...)
		return
	}
	s.logger.Debug(ctx, kind+" request completed", fields...)
}

func statusFor(empty bool) Status {
	if empty {
		return StatusEmpty
	}
	return StatusReady
}

func validateRange(v, def, maxV int, sentinel error, name string) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 0 || v > maxV {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d, got %d", sentinel, name, maxV, v)
	}
	return v, nil
}
