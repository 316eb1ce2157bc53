package probe

import (
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the podium server
	Limit   int           // Leaderboard size to request
	Window  int           // Series window in years
	Group   string        // Category group for series
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Optional log file
	Verbose bool          // Log every response
}

// LeaderboardResponse mirrors GET /leaderboard.
type LeaderboardResponse struct {
	Status    string           `json:"status"`
	RequestID string           `json:"request_id"`
	Filter    string           `json:"filter"`
	Limit     int              `json:"limit"`
	Data      []model.Standing `json:"data"`
	Podium    []model.Standing `json:"podium"`
}

// SeriesEntry mirrors one series of GET /series.
type SeriesEntry struct {
	Label  string `json:"label"`
	Points []struct {
		Year  int     `json:"year"`
		Value float64 `json:"value"`
	} `json:"points"`
	Aligned []*float64 `json:"aligned"`
}

// SeriesResponse mirrors GET /series.
type SeriesResponse struct {
	Status      string        `json:"status"`
	RequestID   string        `json:"request_id"`
	Sex         string        `json:"sex"`
	Window      int           `json:"window"`
	StartYear   int           `json:"start_year"`
	EndYear     int           `json:"end_year"`
	Axis        []int         `json:"axis"`
	Series      []SeriesEntry `json:"series"`
	Placeholder bool          `json:"placeholder"`
	Unparsed    []string      `json:"unparsed"`
}

// Stats holds probe statistics.
type Stats struct {
	RunID         string
	Requests      int
	Boards        int
	Series        int
	Violations    []string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	EmptyBoards   int
	EmptySeries   int
	UnparsedTotal int
}
