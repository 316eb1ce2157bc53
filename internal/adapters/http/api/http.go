// Package api exposes the aggregated leaderboards and series to the widgets.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/podium/internal/adapters/analytics"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Leaderboard(ctx context.Context, filter model.Filter, limit int) (*service.LeaderboardResult, error)
	Series(ctx context.Context, sex model.Dimension, group model.CategoryGroup, window int) (*service.SeriesResult, error)

	// Named widget views discard superseded selections.
	LeaderboardView(name string) (*service.View[service.LeaderboardQuery, *service.LeaderboardResult], error)
	SeriesView(name string) (*service.View[service.SeriesQuery, *service.SeriesResult], error)

	// Refresh marks cached results stale and returns how many were invalidated.
	Refresh(ctx context.Context, filter model.Filter) int
}

// Server wires HTTP routes for the podium API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	seriesHandler      *SeriesHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps),
		seriesHandler:      NewSeriesHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(RequestIDMiddleware(s.leaderboardHandler.HandleGetLeaderboard), "leaderboard"))
	mux.HandleFunc("/series", MetricsMiddleware(RequestIDMiddleware(s.seriesHandler.HandleGetSeries), "series"))
	mux.HandleFunc("/refresh", MetricsMiddleware(RequestIDMiddleware(s.refreshHandler.HandleRefresh), "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// failureResponse is the envelope of every failed leaderboard or series request.
type failureResponse struct {
	Status    string        `json:"status"`
	RequestID string        `json:"request_id,omitempty"`
	Error     errorResponse `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it in the failure envelope.
// A superseded view selection is reported with status "stale".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	state := string(service.StatusError)
	if code == "stale" {
		state = code
	}
	writeJSON(w, status, failureResponse{
		Status:    state,
		RequestID: analytics.RequestID(r.Context()),
		Error:     errorResponse{Code: code, Message: err.Error()},
	})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, ErrMethodNotAllowed)
	return false
}
