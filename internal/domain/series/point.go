// Package series normalizes sparse per-category yearly observations into
// sorted, window-bounded series sharing one year axis.
package series

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decoding errors.
var (
	ErrMalformedPoint  = errors.New("malformed series point")
	ErrMalformedSeries = errors.New("malformed series payload")
)

// Years outside this range are rejected as malformed.
const (
	minYear = 0
	maxYear = 9999
)

// RawPoint is one upstream observation: [year, value] or [year, value, label].
// Valid is false when the value was null or not a finite number.
type RawPoint struct {
	Year  int
	Value float64
	Valid bool
	Label string
}

// Category is one upstream category label with its unsorted observations.
type Category struct {
	Label  string
	Points []RawPoint
}

// Raw is the evolution payload with categories in upstream key order.
type Raw []Category

// Points returns the observations of label.
func (r Raw) Points(label string) ([]RawPoint, bool) {
	for _, c := range r {
		if c.Label == label {
			return c.Points, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes a label -> tuples object keeping key order. A label
// repeated in the object keeps its first position and its last value.
func (r *Raw) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*r = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSeries, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected an object, got %v", ErrMalformedSeries, tok)
	}

	out := Raw{}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSeries, err)
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected a label, got %v", ErrMalformedSeries, tok)
		}

		var points []RawPoint
		if err := dec.Decode(&points); err != nil {
			if errors.Is(err, ErrMalformedPoint) {
				return fmt.Errorf("%w: %q: %w", ErrMalformedSeries, label, err)
			}
			return fmt.Errorf("%w: %q: %v", ErrMalformedSeries, label, err)
		}

		if i, seen := index[label]; seen {
			out[i].Points = points
			continue
		}
		index[label] = len(out)
		out = append(out, Category{Label: label, Points: points})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSeries, err)
	}

	*r = out
	return nil
}

// UnmarshalJSON decodes the tuple form used by the analytics API.
func (p *RawPoint) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPoint, err)
	}
	if len(tuple) < 2 || len(tuple) > 3 {
		return fmt.Errorf("%w: expected 2 or 3 elements, got %d", ErrMalformedPoint, len(tuple))
	}

	year, err := decodeYear(tuple[0])
	if err != nil {
		return err
	}
	value, valid, err := decodeValue(tuple[1])
	if err != nil {
		return err
	}

	*p = RawPoint{Year: year, Value: value, Valid: valid}
	if len(tuple) == 3 && !isNull(tuple[2]) {
		if err := json.Unmarshal(tuple[2], &p.Label); err != nil {
			return fmt.Errorf("%w: label: %v", ErrMalformedPoint, err)
		}
	}
	return nil
}

// MarshalJSON encodes the point back into tuple form; invalid values become null.
func (p RawPoint) MarshalJSON() ([]byte, error) {
	var value any
	if p.Valid {
		value = p.Value
	}
	if p.Label == "" {
		return json.Marshal([]any{p.Year, value})
	}
	return json.Marshal([]any{p.Year, value, p.Label})
}

func decodeYear(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("%w: year: %s", ErrMalformedPoint, raw)
		}
		n = json.Number(strings.TrimSpace(s))
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < minYear || f > maxYear {
		return 0, fmt.Errorf("%w: year: %s", ErrMalformedPoint, raw)
	}
	return int(f), nil
}

// decodeValue reports valid=false for null, booleans and strings that are
// not a finite number. Objects and arrays are malformed.
func decodeValue(raw json.RawMessage) (float64, bool, error) {
	if isNull(raw) {
		return 0, false, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true, nil
	}

	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return 0, false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("%w: value: %s", ErrMalformedPoint, raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, nil
	}
	return f, true, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
