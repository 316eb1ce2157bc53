package series

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Point is a valid observation kept after normalization.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// Series is one category's points sorted by year.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Result is the normalized, sparse multi-series structure.
type Result struct {
	Series []Series `json:"series"`
	// Axis is the sorted union of years present in Series.
	Axis []int `json:"axis"`
	// Placeholder is set when Axis was synthesized because no data survived.
	Placeholder bool `json:"placeholder"`
	// Unparsed lists labels without a numeric weight class; they sort last
	// in upstream order.
	Unparsed []string `json:"unparsed,omitempty"`

	StartYear      int `json:"start_year"`
	EndYear        int `json:"end_year"`
	DroppedInvalid int `json:"-"`
	DroppedEmpty   int `json:"-"`
}

// Empty reports whether no category survived.
func (r Result) Empty() bool { return len(r.Series) == 0 }

// Labels returns the category labels in output order.
func (r Result) Labels() []string {
	out := make([]string, len(r.Series))
	for i, s := range r.Series {
		out[i] = s.Label
	}
	return out
}

// Aligned projects the series with the given label onto the shared axis.
// Years without an observation are nil.
func (r Result) Aligned(label string) ([]*float64, bool) {
	for _, s := range r.Series {
		if s.Label == label {
			return s.AlignTo(r.Axis), true
		}
	}
	return nil, false
}

// AlignTo projects the series onto a sorted axis.
func (s Series) AlignTo(axis []int) []*float64 {
	out := make([]*float64, len(axis))
	j := 0
	for i, year := range axis {
		for j < len(s.Points) && s.Points[j].Year < year {
			j++
		}
		if j < len(s.Points) && s.Points[j].Year == year {
			v := s.Points[j].Value
			out[i] = &v
		}
	}
	return out
}

var sentinelLabels = map[string]struct{}{
	"nan":       {},
	"none":      {},
	"null":      {},
	"undefined": {},
	"unknown":   {},
}

// Normalize keeps the trailing window of window years ending at currentYear.
// It is pure: the same input always yields the same Result.
func Normalize(raw Raw, window, currentYear int) Result {
	window = max(window, 0)
	res := Result{StartYear: currentYear - window, EndYear: currentYear}

	type keyed struct {
		Series
		key weightClass
	}
	kept := make([]keyed, 0, len(raw))

	for _, c := range raw {
		if !validLabel(c.Label) {
			res.DroppedInvalid++
			continue
		}
		filtered := filterPoints(c.Points, res.StartYear, currentYear)
		if len(filtered) == 0 {
			res.DroppedEmpty++
			continue
		}
		kept = append(kept, keyed{Series: Series{Label: c.Label, Points: filtered}, key: parseWeightClass(c.Label)})
	}

	// Equal keys, including every unparsed label, keep upstream order.
	slices.SortStableFunc(kept, func(a, b keyed) int {
		return a.key.compare(b.key)
	})

	years := make(map[int]struct{})
	res.Series = make([]Series, len(kept))
	for i, k := range kept {
		res.Series[i] = k.Series
		if !k.key.ok {
			res.Unparsed = append(res.Unparsed, k.Label)
		}
		for _, p := range k.Points {
			years[p.Year] = struct{}{}
		}
	}

	if len(years) == 0 {
		res.Placeholder = true
		res.Axis = make([]int, 0, window+1)
		for y := res.StartYear; y <= currentYear; y++ {
			res.Axis = append(res.Axis, y)
		}
		return res
	}

	res.Axis = make([]int, 0, len(years))
	for y := range years {
		res.Axis = append(res.Axis, y)
	}
	slices.Sort(res.Axis)
	return res
}

func validLabel(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return false
	}
	_, sentinel := sentinelLabels[l]
	return !sentinel
}

// filterPoints keeps finite values inside [start, end], one per year (the highest).
func filterPoints(points []RawPoint, start, end int) []Point {
	best := make(map[int]Point, len(points))
	for _, p := range points {
		if !p.Valid || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		if p.Year < start || p.Year > end {
			continue
		}
		if cur, ok := best[p.Year]; ok && cur.Value >= p.Value {
			continue
		}
		best[p.Year] = Point{Year: p.Year, Value: p.Value, Label: p.Label}
	}

	out := make([]Point, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Point) int { return cmp.Compare(a.Year, b.Year) })
	return out
}

// weightClass is the sort key of a category label such as "-93", "+84" or "120+".
type weightClass struct {
	magnitude float64
	open      bool
	ok        bool
}

func parseWeightClass(label string) weightClass {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimSpace(strings.TrimSuffix(s, "kg"))

	open := false
	switch {
	case strings.HasPrefix(s, "+"):
		open = true
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		s = s[1:]
	}
	if strings.HasSuffix(s, "+") {
		open = true
		s = s[:len(s)-1]
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return weightClass{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return weightClass{}
	}
	return weightClass{magnitude: f, open: open, ok: true}
}

func (w weightClass) compare(o weightClass) int {
	switch {
	case w.ok != o.ok:
		if w.ok {
			return -1
		}
		return 1
	case !w.ok:
		return 0
	}
	if c := cmp.Compare(w.magnitude, o.magnitude); c != 0 {
		return c
	}
	switch {
	case w.open == o.open:
		return 0
	case o.open:
		return -1
	default:
		return 1
	}
}
