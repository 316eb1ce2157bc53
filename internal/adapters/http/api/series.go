package api

import (
	"context"
	"net/http"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
)

// SeriesDependencies defines the interface for weight-class series operations.
type SeriesDependencies interface {
	Series(ctx context.Context, sex model.Dimension, group model.CategoryGroup, window int) (*service.SeriesResult, error)
	SeriesView(name string) (*service.View[service.SeriesQuery, *service.SeriesResult], error)
}

// SeriesHandler handles series requests.
type SeriesHandler struct {
	deps SeriesDependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps SeriesDependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

type seriesEntry struct {
	Label   string         `json:"label"`
	Points  []series.Point `json:"points"`
	Aligned []*float64     `json:"aligned"`
}

type seriesResponse struct {
	Status      string              `json:"status"`
	RequestID   string              `json:"request_id"`
	Sex         model.Dimension     `json:"sex"`
	Group       model.CategoryGroup `json:"group"`
	Window      int                 `json:"window"`
	StartYear   int                 `json:"start_year"`
	EndYear     int                 `json:"end_year"`
	Axis        []int               `json:"axis"`
	Series      []seriesEntry       `json:"series"`
	Placeholder bool                `json:"placeholder"`
	Unparsed    []string            `json:"unparsed"`
}

// HandleGetSeries handles GET /series?sex=M|F&group=Subjunior|Junior|Open&window=N[&widget=name].
func (h *SeriesHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	sex, err := model.ParseDimension(q.Get("sex"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := model.ParseCategoryGroup(q.Get("group"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	window, err := positiveIntParam(q, "window")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *service.SeriesResult
	if widget := q.Get("widget"); widget != "" {
		view, verr := h.deps.SeriesView(widget)
		if verr != nil {
			writeError(w, r, verr)
			return
		}
		var snap service.Snapshot[service.SeriesQuery, *service.SeriesResult]
		snap, err = view.Select(r.Context(), service.SeriesQuery{Sex: sex, Group: group, Window: window})
		res = snap.Data
	} else {
		res, err = h.deps.Series(r.Context(), sex, group, window)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]seriesEntry, len(res.Series))
	for i, s := range res.Series {
		entries[i] = seriesEntry{Label: s.Label, Points: s.Points, Aligned: s.AlignTo(res.Axis)}
	}
	unparsed := res.Unparsed
	if unparsed == nil {
		unparsed = []string{}
	}

	writeJSON(w, http.StatusOK, seriesResponse{
		Status:      string(res.Status),
		RequestID:   res.RequestID,
		Sex:         res.Sex,
		Group:       res.Group,
		Window:      res.Window,
		StartYear:   res.StartYear,
		EndYear:     res.EndYear,
		Axis:        res.Axis,
		Series:      entries,
		Placeholder: res.Placeholder,
		Unparsed:    unparsed,
	})
}
