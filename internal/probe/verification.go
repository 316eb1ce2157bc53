package probe

import (
	"fmt"
	"math"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
)

// verifyBoard checks size, ordering and ranks of one leaderboard.
func verifyBoard(name string, board *LeaderboardResponse, limit int) []string {
	var out []string
	if len(board.Data) > limit {
		out = append(out, fmt.Sprintf("%s: %d entries exceed limit %d", name, len(board.Data), limit))
	}
	for i, s := range board.Data {
		if s.Rank != i+1 {
			out = append(out, fmt.Sprintf("%s: entry %d has rank %d", name, i, s.Rank))
		}
		if math.IsNaN(s.Score) || math.IsInf(s.Score, 0) {
			out = append(out, fmt.Sprintf("%s: entry %d has non-finite score", name, i))
		}
		if i > 0 && s.Score > board.Data[i-1].Score {
			out = append(out, fmt.Sprintf("%s: entry %d (%.2f) outscores entry %d (%.2f)",
				name, i, s.Score, i-1, board.Data[i-1].Score))
		}
	}
	if want := min(3, len(board.Data)); len(board.Podium) != want {
		out = append(out, fmt.Sprintf("%s: podium has %d entries, want %d", name, len(board.Podium), want))
	}
	if (board.Status == "empty") != (len(board.Data) == 0) {
		out = append(out, fmt.Sprintf("%s: status %q with %d entries", name, board.Status, len(board.Data)))
	}
	return out
}

// verifyMixed checks that the mixed board is the merge of the per-sex boards.
func verifyMixed(mixed, men, women *LeaderboardResponse, limit int) []string {
	want := ranking.Merge(limit, records(men.Data), records(women.Data))
	got := records(mixed.Data)

	if len(got) != len(want) {
		return []string{fmt.Sprintf("mixed: %d entries, merge of M and F gives %d", len(got), len(want))}
	}
	var out []string
	for i := range got {
		if got[i].ID != want[i].ID || got[i].Score != want[i].Score {
			out = append(out, fmt.Sprintf("mixed: entry %d is %s (%.2f), merge gives %s (%.2f)",
				i, got[i].ID, got[i].Score, want[i].ID, want[i].Score))
		}
	}
	return out
}

// verifySeries checks that no category is empty and every year lies in the window.
func verifySeries(name string, resp *SeriesResponse, window int) []string {
	var out []string
	start, end := resp.EndYear-window, resp.EndYear

	if resp.StartYear != start {
		out = append(out, fmt.Sprintf("%s: start year %d, want %d", name, resp.StartYear, start))
	}
	if len(resp.Axis) == 0 {
		out = append(out, fmt.Sprintf("%s: empty axis", name))
	}
	for i, y := range resp.Axis {
		if y < start || y > end {
			out = append(out, fmt.Sprintf("%s: axis year %d outside [%d, %d]", name, y, start, end))
		}
		if i > 0 && y <= resp.Axis[i-1] {
			out = append(out, fmt.Sprintf("%s: axis not strictly increasing at %d", name, i))
		}
	}
	for _, s := range resp.Series {
		if len(s.Points) == 0 {
			out = append(out, fmt.Sprintf("%s: category %q has no points", name, s.Label))
		}
		for _, p := range s.Points {
			if p.Year < start || p.Year > end {
				out = append(out, fmt.Sprintf("%s: category %q has year %d outside [%d, %d]", name, s.Label, p.Year, start, end))
			}
		}
		if len(s.Aligned) != len(resp.Axis) {
			out = append(out, fmt.Sprintf("%s: category %q aligned to %d years, axis has %d", name, s.Label, len(s.Aligned), len(resp.Axis)))
		}
	}
	if resp.Placeholder != (len(resp.Series) == 0) {
		out = append(out, fmt.Sprintf("%s: placeholder=%t with %d categories", name, resp.Placeholder, len(resp.Series)))
	}
	return out
}

func records(standings []model.Standing) []model.ResultRecord {
	out := make([]model.ResultRecord, len(standings))
	for i, s := range standings {
		out[i] = s.ResultRecord
	}
	return out
}
