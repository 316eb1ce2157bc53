package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// positiveIntParam reads an optional positive integer; absent yields 0.
func positiveIntParam(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrBadRequest, name, raw)
	}
	return n, nil
}
