package probe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/pkg/logger"
)

// Run executes every check against the server and returns the statistics.
// A non-nil error wraps ErrUnhealthy, ErrRequest or ErrViolation.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Get().Named("probe")
	client := newHTTPClient(config.Timeout, stats.RunID)
	base := strings.TrimRight(config.BaseURL, "/")

	log.Info(ctx, "starting podium probe",
		logger.String("run_id", stats.RunID),
		logger.String("baseURL", base),
		logger.Int("limit", config.Limit),
		logger.Int("window", config.Window),
		logger.String("group", config.Group))

	// Step 1: Check service health
	var health map[string]string
	stats.Requests++
	if err := client.getJSON(ctx, base+"/healthz", &health); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	// Step 2: Leaderboards
	boards := make(map[string]*LeaderboardResponse, 3)
	for _, filter := range []string{"M", "F", "mixed"} {
		q := url.Values{}
		q.Set("filter", filter)
		q.Set("limit", strconv.Itoa(config.Limit))

		var resp LeaderboardResponse
		stats.Requests++
		if err := client.getJSON(ctx, base+"/leaderboard?"+q.Encode(), &resp); err != nil {
			return stats, err
		}
		stats.Boards++
		if resp.Status == "empty" {
			stats.EmptyBoards++
		}
		log.Debug(ctx, "leaderboard fetched",
			logger.String("filter", filter),
			logger.String("request_id", resp.RequestID),
			logger.Int("entries", len(resp.Data)))

		boards[filter] = &resp
		stats.Violations = append(stats.Violations, verifyBoard("leaderboard "+filter, &resp, config.Limit)...)
	}
	stats.Violations = append(stats.Violations, verifyMixed(boards["mixed"], boards["M"], boards["F"], config.Limit)...)

	// Step 3: Series
	for _, sex := range []string{"M", "F"} {
		q := url.Values{}
		q.Set("sex", sex)
		q.Set("group", config.Group)
		q.Set("window", strconv.Itoa(config.Window))

		var resp SeriesResponse
		stats.Requests++
		if err := client.getJSON(ctx, base+"/series?"+q.Encode(), &resp); err != nil {
			return stats, err
		}
		stats.Series++
		if resp.Status == "empty" {
			stats.EmptySeries++
		}
		stats.UnparsedTotal += len(resp.Unparsed)
		log.Debug(ctx, "series fetched",
			logger.String("sex", sex),
			logger.String("request_id", resp.RequestID),
			logger.Int("categories", len(resp.Series)),
			logger.Int("years", len(resp.Axis)))

		stats.Violations = append(stats.Violations, verifySeries("series "+sex, &resp, config.Window)...)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if len(stats.Violations) > 0 {
		return stats, fmt.Errorf("%w: %d checks failed: %s", ErrViolation, len(stats.Violations), stats.Violations[0])
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

// displayFinalStats logs the run summary and every violation.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	for _, v := range stats.Violations {
		log.Warn(ctx, "check failed", logger.String("violation", v))
	}
	log.Info(ctx, "final statistics",
		logger.String("run_id", stats.RunID),
		logger.Int("requests", stats.Requests),
		logger.Int("boards", stats.Boards),
		logger.Int("emptyBoards", stats.EmptyBoards),
		logger.Int("series", stats.Series),
		logger.Int("emptySeries", stats.EmptySeries),
		logger.Int("unparsedLabels", stats.UnparsedTotal),
		logger.Int("violations", len(stats.Violations)),
		logger.String("duration", stats.Duration.String()))
}
