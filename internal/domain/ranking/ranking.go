// Package ranking merges per-dimension leaderboards into one ranked view.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/podium/internal/domain/model"
)

// DefaultLimit is the result cap used when the caller passes a non-positive one.
const DefaultLimit = 10

// Top returns at most k records of a single, already ranked sequence.
// The input order is kept as is.
func Top(records []model.ResultRecord, k int) []model.ResultRecord {
	k = normalizeLimit(k)
	if len(records) > k {
		records = records[:k]
	}
	return slices.Clone(records)
}

// Merge concatenates sequences in the given order, sorts the result by
// descending score and truncates it to k. Equal scores keep their
// concatenation order.
func Merge(k int, sequences ...[]model.ResultRecord) []model.ResultRecord {
	k = normalizeLimit(k)

	n := 0
	for _, seq := range sequences {
		n += len(seq)
	}
	merged := make([]model.ResultRecord, 0, n)
	for _, seq := range sequences {
		merged = append(merged, seq...)
	}

	slices.SortStableFunc(merged, func(a, b model.ResultRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

// Combine builds the view for filter from per-dimension results.
// Dimensions are always visited in enumeration order, so the output does not
// depend on the order in which results arrived.
func Combine(filter model.Filter, byDimension map[model.Dimension][]model.ResultRecord, k int) []model.ResultRecord {
	dims := filter.Dimensions()
	if !filter.Combined() {
		return Top(byDimension[dims[0]], k)
	}

	sequences := make([][]model.ResultRecord, 0, len(dims))
	for _, d := range dims {
		sequences = append(sequences, byDimension[d])
	}
	return Merge(k, sequences...)
}

// Rank assigns 1-based positions in sequence order.
func Rank(records []model.ResultRecord) []model.Standing {
	out := make([]model.Standing, len(records))
	for i, r := range records {
		out[i] = model.Standing{Rank: i + 1, ResultRecord: r}
	}
	return out
}

// Podium splits a ranked list into the podium in display order
// (second, first, third) and the remaining standings from fourth on.
func Podium(standings []model.Standing) (podium, rest []model.Standing) {
	top := standings[:min(3, len(standings))]
	rest = standings[len(top):]

	switch len(top) {
	case 0:
		return nil, rest
	case 1:
		return []model.Standing{top[0]}, rest
	case 2:
		return []model.Standing{top[1], top[0]}, rest
	default:
		return []model.Standing{top[1], top[0], top[2]}, rest
	}
}

func normalizeLimit(k int) int {
	if k <= 0 {
		return DefaultLimit
	}
	return k
}
