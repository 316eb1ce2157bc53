package api

import (
	"context"
	"net/http"

	"github.com/okian/podium/internal/domain/model"
)

// RefreshDependencies defines the interface for cache refreshes.
type RefreshDependencies interface {
	Refresh(ctx context.Context, filter model.Filter) int
}

// RefreshHandler handles explicit refetch requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Filter      model.Filter `json:"filter"`
	Invalidated int          `json:"invalidated"`
}

// HandleRefresh handles POST /refresh?filter=mixed|M|F.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	filter, err := model.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	n := h.deps.Refresh(r.Context(), filter)
	writeJSON(w, http.StatusOK, refreshResponse{Filter: filter, Invalidated: n})
}
