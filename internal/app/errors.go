package service

import "errors"

// Request validation errors.
var (
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidWidget = errors.New("invalid widget name")
	ErrTooManyViews  = errors.New("too many widget views")
	// ErrStale is returned to a view selection superseded before it resolved.
	ErrStale = errors.New("selection superseded")
)
