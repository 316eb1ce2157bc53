package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/okian/podium/internal/domain/cache"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/pkg/logger"
)

// LeaderboardQuery selects a leaderboard.
type LeaderboardQuery struct {
	Filter model.Filter
	Limit  int
}

// LeaderboardResult is a merged, ranked leaderboard.
type LeaderboardResult struct {
	RequestID string
	Status    Status
	Filter    model.Filter
	Limit     int
	Standings []model.Standing
	// Podium is the top three in display order: second, first, third.
	Podium []model.Standing
	// Rest holds the standings after the podium.
	Rest []model.Standing
}

// Leaderboard returns the best results of the selected sex, or of both sexes
// merged into one ranking. A fetch failure for any sex fails the request.
// A non-positive limit selects the default.
func (s *Service) Leaderboard(ctx context.Context, filter model.Filter, limit int) (*LeaderboardResult, error) {
	start := time.Now()
	ctx, requestID := withRequestID(ctx)

	if limit < 0 {
		limit = 0
	}
	limit, err := validateRange(limit, s.defaultLimit, s.maxLimit, ErrInvalidLimit, "limit")
	if err != nil {
		return nil, err
	}

	byDim, err := s.fetchBoards(ctx, filter.Dimensions(), s.fetchLimit)
	if err != nil {
		s.observe(ctx, "leaderboard", start, StatusError, err,
			logger.String("request_id", requestID), logger.String("filter", string(filter)))
		return nil, fmt.Errorf("leaderboard %s: %w", filter, err)
	}

	standings := ranking.Rank(ranking.Combine(filter, byDim, limit))
	podium, rest := ranking.Podium(standings)
	res := &LeaderboardResult{
		RequestID: requestID,
		Status:    statusFor(len(standings) == 0),
		Filter:    filter,
		Limit:     limit,
		Standings: standings,
		Podium:    podium,
		Rest:      rest,
	}

	s.observe(ctx, "leaderboard", start, res.Status, nil,
		logger.String("request_id", requestID),
		logger.String("filter", string(filter)),
		logger.Int("limit", limit),
		logger.Int("count", len(standings)))
	return res, nil
}

// fetchBoards loads every dimension concurrently and joins before returning.
// Errors of all failed dimensions are combined in dimension order.
func (s *Service) fetchBoards(ctx context.Context, dims []model.Dimension, need int) (map[model.Dimension][]model.ResultRecord, error) {
	results := make([][]model.ResultRecord, len(dims))
	errs := make([]error, len(dims))

	var wg sync.WaitGroup
	for i, d := range dims {
		wg.Add(1)
		go func(i int, d model.Dimension) {
			defer wg.Done()
			results[i], errs[i] = s.board(ctx, d, need)
		}(i, d)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	byDim := make(map[model.Dimension][]model.ResultRecord, len(dims))
	for i, d := range dims {
		byDim[d] = results[i]
	}
	return byDim, nil
}

// board returns the cached leaderboard of d when it is fresh and was fetched
// with at least need records; otherwise it fetches and caches it. Concurrent
// callers for the same sex share one fetch whatever board size they asked for.
func (s *Service) board(ctx context.Context, d model.Dimension, need int) ([]model.ResultRecord, error) {
	if e, ok := s.boards.Get(ctx, d); ok && e.Fresh && e.Limit >= need {
		return e.Value, nil
	}

	records, err := fetchShared(ctx, s, leaderboardCache, string(d),
		func(ctx context.Context) ([]model.ResultRecord, error) {
			// A concurrent flight may have filled the entry meanwhile.
			if e, ok := s.boards.Get(ctx, d); ok && e.Fresh && e.Limit >= need {
				return e.Value, nil
			}
			records, err := s.source.Leaderboard(ctx, d, need)
			if err != nil {
				return nil, err
			}
			s.boards.Put(ctx, d, records, cache.Meta{Limit: need})
			return records, nil
		})
	if err != nil {
		return nil, fmt.Errorf("sex %s: %w", d, err)
	}
	return records, nil
}
