// Package analytics is the HTTP client of the upstream analytics API.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Upstream endpoint names, also used as metric labels.
const (
	EndpointLeaderboard = "historical-leaderboard"
	EndpointEvolution   = "weight-class-evolution"
)

const (
	defaultTimeout   = 5 * time.Second
	errorBodyLimit   = 512
	maxResponseBytes = 8 << 20
)

// Source is the upstream query surface the aggregator depends on.
type Source interface {
	// Leaderboard returns up to limit best results of one sex, ranked upstream.
	Leaderboard(ctx context.Context, sex model.Dimension, limit int) ([]model.ResultRecord, error)
	// Evolution returns yearly bests per weight class of one sex and category group.
	Evolution(ctx context.Context, sex model.Dimension, group model.CategoryGroup) (series.Raw, error)
}

// Client talks to the analytics API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     logger.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("analytics")
	}
	return c, nil
}

// Leaderboard fetches GET /analytics/historical-leaderboard?sex=&limit=.
func (c *Client) Leaderboard(ctx context.Context, sex model.Dimension, limit int) ([]model.ResultRecord, error) {
	q := url.Values{}
	q.Set("sex", string(sex))
	q.Set("limit", strconv.Itoa(limit))

	var rows []leaderboardRow
	if err := c.get(ctx, EndpointLeaderboard, q, &rows); err != nil {
		return nil, err
	}

	records := make([]model.ResultRecord, len(rows))
	for i, row := range rows {
		if row.Score == nil {
			return nil, fmt.Errorf("%w: %s: record %d has no best_value", ErrMalformedResponse, EndpointLeaderboard, i)
		}
		records[i] = row.ResultRecord
		records[i].Score = *row.Score
	}
	model.FillMissing(sex, records)
	return records, nil
}

// leaderboardRow tells a missing or null best_value apart from a zero score.
type leaderboardRow struct {
	model.ResultRecord
	Score *float64 `json:"best_value"`
}

// Evolution fetches GET /analytics/weight-class-evolution?sex=&category_group=.
func (c *Client) Evolution(ctx context.Context, sex model.Dimension, group model.CategoryGroup) (series.Raw, error) {
	q := url.Values{}
	q.Set("sex", string(sex))
	q.Set("category_group", string(group))

	var raw series.Raw
	if err := c.get(ctx, EndpointEvolution, q, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = series.Raw{}
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordUpstreamRequest(endpoint, Kind(err), float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analytics/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, endpoint, err)
	}

	c.logger.Debug(ctx, "upstream fetch completed",
		logger.String("endpoint", endpoint),
		logger.String("query", q.Encode()),
		logger.String("request_id", RequestID(ctx)),
		logger.Int("latency_ms", int(time.Since(start).Milliseconds())))
	return nil
}
