package api

import (
	"context"
	"net/http"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, filter model.Filter, limit int) (*service.LeaderboardResult, error)
	LeaderboardView(name string) (*service.View[service.LeaderboardQuery, *service.LeaderboardResult], error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

type standing struct {
	model.Standing
	Club string `json:"club"`
}

type leaderboardResponse struct {
	Status    string       `json:"status"`
	RequestID string       `json:"request_id"`
	Filter    model.Filter `json:"filter"`
	Limit     int          `json:"limit"`
	Data      []standing   `json:"data"`
	Podium    []standing   `json:"podium"`
}

func toStandings(in []model.Standing) []standing {
	out := make([]standing, len(in))
	for i, s := range in {
		out[i] = standing{Standing: s, Club: s.Club()}
	}
	return out
}

// HandleGetLeaderboard handles GET /leaderboard?filter=mixed|M|F&limit=K[&widget=name].
// With a widget name the request goes through that widget's view, and a
// request superseded by a newer one for the same widget answers 409.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	filter, err := model.ParseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := positiveIntParam(q, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *service.LeaderboardResult
	if widget := q.Get("widget"); widget != "" {
		view, verr := h.deps.LeaderboardView(widget)
		if verr != nil {
			writeError(w, r, verr)
			return
		}
		var snap service.Snapshot[service.LeaderboardQuery, *service.LeaderboardResult]
		snap, err = view.Select(r.Context(), service.LeaderboardQuery{Filter: filter, Limit: limit})
		res = snap.Data
	} else {
		res, err = h.deps.Leaderboard(r.Context(), filter, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Status:    string(res.Status),
		RequestID: res.RequestID,
		Filter:    res.Filter,
		Limit:     res.Limit,
		Data:      toStandings(res.Standings),
		Podium:    toStandings(res.Podium),
	})
}
