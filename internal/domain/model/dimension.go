// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for filter parsing.
var (
	ErrUnknownDimension     = errors.New("unknown dimension")
	ErrUnknownCategoryGroup = errors.New("unknown category group")
)

// Dimension is the discrete key a leaderboard is partitioned by (sex).
type Dimension string

// Known dimensions.
const (
	Male   Dimension = "M"
	Female Dimension = "F"
)

// Dimensions returns the closed set of dimensions in enumeration order.
// Combined views concatenate per-dimension results in this order.
func Dimensions() []Dimension {
	return []Dimension{Male, Female}
}

// ParseDimension accepts "M"/"F" case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToUpper(strings.TrimSpace(s))) {
	case Male:
		return Male, nil
	case Female:
		return Female, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Filter selects one dimension or all of them combined.
type Filter string

// FilterMixed combines every dimension into one ranking.
const FilterMixed Filter = "mixed"

// ParseFilter accepts "mixed" (or empty) and any dimension.
func ParseFilter(s string) (Filter, error) {
	v := strings.TrimSpace(s)
	if v == "" || strings.EqualFold(v, string(FilterMixed)) {
		return FilterMixed, nil
	}
	d, err := ParseDimension(v)
	if err != nil {
		return "", err
	}
	return Filter(d), nil
}

// Dimensions expands the filter into the dimensions it covers.
func (f Filter) Dimensions() []Dimension {
	if f == FilterMixed {
		return Dimensions()
	}
	return []Dimension{Dimension(f)}
}

// Combined reports whether the filter spans more than one dimension.
func (f Filter) Combined() bool { return f == FilterMixed }

// CategoryGroup is the age division a time series is queried for.
type CategoryGroup string

// Known category groups.
const (
	Subjunior CategoryGroup = "Subjunior"
	Junior    CategoryGroup = "Junior"
	Open      CategoryGroup = "Open"
)

// ParseCategoryGroup accepts the group name case-insensitively; empty means Open.
// "Absoluto" is accepted as an alias of Open.
func ParseCategoryGroup(s string) (CategoryGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "absoluto":
		return Open, nil
	case "junior":
		return Junior, nil
	case "subjunior":
		return Subjunior, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategoryGroup, s)
}
