package analytics

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

// retryingSource retries transient failures of an inner Source with
// linear backoff.
type retryingSource struct {
	inner       Source
	logger      logger.Logger
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// NewRetryingSource wraps inner with retries. Non-positive values select defaults.
func NewRetryingSource(inner Source, maxAttempts int, backoff time.Duration) Source {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingSource{
		inner:       inner,
		logger:      logger.Get().Named("analytics-retry"),
		maxAttempts: maxAttempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingSource) Leaderboard(ctx context.Context, sex model.Dimension, limit int) ([]model.ResultRecord, error) {
	return retry(ctx, r, EndpointLeaderboard, func() ([]model.ResultRecord, error) {
		return r.inner.Leaderboard(ctx, sex, limit)
	})
}

func (r *retryingSource) Evolution(ctx context.Context, sex model.Dimension, group model.CategoryGroup) (series.Raw, error) {
	return retry(ctx, r, EndpointEvolution, func() (series.Raw, error) {
		return r.inner.Evolution(ctx, sex, group)
	})
}

func retry[T any](ctx context.Context, r *retryingSource, endpoint string, fetch func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		v, err := fetch()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !Transient(err) || attempt == r.maxAttempts {
			break
		}

		r.logger.Warn(ctx, "upstream fetch retry",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", r.maxAttempts),
			logger.Error(err))
		metrics.RecordUpstreamRetry(endpoint)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	r.logger.Warn(ctx, "upstream fetch failed",
		logger.String("endpoint", endpoint),
		logger.Error(lastErr))
	return zero, lastErr
}
