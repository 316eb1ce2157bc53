package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"
)

var widgetName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// WidgetState summarizes a named view for the stats surface.
type WidgetState struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Status    Status    `json:"status"`
	Selection string    `json:"selection,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// LeaderboardView returns the leaderboard view of widget name, creating it
// on first use.
func (s *Service) LeaderboardView(name string) (*View[LeaderboardQuery, *LeaderboardResult], error) {
	if !widgetName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWidget, name)
	}

	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if v, ok := s.boardViews[name]; ok {
		return v, nil
	}
	if len(s.boardViews) >= s.maxViews {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyViews, s.maxViews)
	}

	v := NewView(name,
		func(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error) {
			return s.Leaderboard(ctx, q.Filter, q.Limit)
		},
		func(r *LeaderboardResult) bool { return r.Status == StatusEmpty })
	v.now = s.now
	s.boardViews[name] = v
	return v, nil
}

// SeriesView returns the series view of widget name, creating it on first use.
func (s *Service) SeriesView(name string) (*View[SeriesQuery, *SeriesResult], error) {
	if !widgetName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWidget, name)
	}

	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if v, ok := s.seriesViews[name]; ok {
		return v, nil
	}
	if len(s.seriesViews) >= s.maxViews {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyViews, s.maxViews)
	}

	v := NewView(name,
		func(ctx context.Context, q SeriesQuery) (*SeriesResult, error) {
			return s.Series(ctx, q.Sex, q.Group, q.Window)
		},
		func(r *SeriesResult) bool { return r.Status == StatusEmpty })
	v.now = s.now
	s.seriesViews[name] = v
	return v, nil
}

// Widgets lists every named view sorted by kind and name.
func (s *Service) Widgets() []WidgetState {
	s.viewsMu.Lock()
	boards := make([]*View[LeaderboardQuery, *LeaderboardResult], 0, len(s.boardViews))
	for _, v := range s.boardViews {
		boards = append(boards, v)
	}
	charts := make([]*View[SeriesQuery, *SeriesResult], 0, len(s.seriesViews))
	for _, v := range s.seriesViews {
		charts = append(charts, v)
	}
	s.viewsMu.Unlock()

	out := make([]WidgetState, 0, len(boards)+len(charts))
	for _, v := range boards {
		snap := v.Current()
		st := WidgetState{Name: v.Name(), Kind: "leaderboard", Status: snap.Status, UpdatedAt: snap.UpdatedAt}
		if snap.Status != StatusIdle {
			st.Selection = fmt.Sprintf("filter=%s limit=%d", snap.Key.Filter, snap.Key.Limit)
		}
		if snap.Err != nil {
			st.Error = snap.Err.Error()
		}
		out = append(out, st)
	}
	for _, v := range charts {
		snap := v.Current()
		st := WidgetState{Name: v.Name(), Kind: "series", Status: snap.Status, UpdatedAt: snap.UpdatedAt}
		if snap.Status != StatusIdle {
			st.Selection = fmt.Sprintf("sex=%s group=%s window=%d", snap.Key.Sex, snap.Key.Group, snap.Key.Window)
		}
		if snap.Err != nil {
			st.Error = snap.Err.Error()
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
