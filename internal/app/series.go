package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/podium/internal/domain/cache"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// SeriesQuery selects a weight-class evolution chart.
type SeriesQuery struct {
	Sex    model.Dimension
	Group  model.CategoryGroup
	Window int
}

// SeriesResult is a normalized set of weight-class series.
type SeriesResult struct {
	RequestID string
	Status    Status
	Sex       model.Dimension
	Group     model.CategoryGroup
	Window    int
	series.Result
}

// Series returns the yearly bests per weight class over the trailing window
// ending at the current year. A zero window selects the default.
func (s *Service) Series(ctx context.Context, sex model.Dimension, group model.CategoryGroup, window int) (*SeriesResult, error) {
	start := time.Now()
	ctx, requestID := withRequestID(ctx)

	window, err := validateRange(window, s.defaultWindow, s.maxWindow, ErrInvalidWindow, "window")
	if err != nil {
		return nil, err
	}

	key := seriesKey{sex: sex, group: group}
	raw, err := s.evolution(ctx, key)
	if err != nil {
		s.observe(ctx, "series", start, StatusError, err,
			logger.String("request_id", requestID), logger.String("key", key.String()))
		return nil, fmt.Errorf("series %s: %w", key, err)
	}

	norm := series.Normalize(raw, window, s.now().Year())
	metrics.RecordSeriesDropped("invalid_label", norm.DroppedInvalid)
	metrics.RecordSeriesDropped("empty", norm.DroppedEmpty)
	if len(norm.Unparsed) > 0 {
		s.logger.Warn(ctx, "weight classes without numeric boundary sorted last",
			logger.String("request_id", requestID),
			logger.Any("labels", norm.Unparsed))
	}

	res := &SeriesResult{
		RequestID: requestID,
		Status:    statusFor(norm.Empty()),
		Sex:       sex,
		Group:     group,
		Window:    window,
		Result:    norm,
	}
	s.observe(ctx, "series", start, res.Status, nil,
		logger.String("request_id", requestID),
		logger.String("key", key.String()),
		logger.Int("window", window),
		logger.Int("categories", len(norm.Series)))
	return res, nil
}

func (s *Service) evolution(ctx context.Context, key seriesKey) (series.Raw, error) {
	if e, ok := s.evolutions.Get(ctx, key); ok && e.Fresh {
		return e.Value, nil
	}

	return fetchShared(ctx, s, seriesCache, key.String(), func(ctx context.Context) (series.Raw, error) {
		if e, ok := s.evolutions.Get(ctx, key); ok && e.Fresh {
			return e.Value, nil
		}
		raw, err := s.source.Evolution(ctx, key.sex, key.group)
		if err != nil {
			return nil, err
		}
		s.evolutions.Put(ctx, key, raw, cache.Meta{})
		return raw, nil
	})
}
