package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the analytics client.
var (
	// ErrNetwork covers transport failures and non-success statuses.
	ErrNetwork = errors.New("analytics: network error")
	// ErrMalformedResponse means the body does not match the expected shape.
	ErrMalformedResponse = errors.New("analytics: malformed response")
	// ErrInvalidBaseURL is returned by NewClient for an unusable base URL.
	ErrInvalidBaseURL = errors.New("analytics: invalid base url")
)

// StatusError is an ErrNetwork carrying the upstream HTTP status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analytics: %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("analytics: %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrNetwork) match status errors.
func (e *StatusError) Unwrap() error { return ErrNetwork }

// Transient reports whether a failed fetch may succeed when repeated:
// transport errors (including per-request timeouts), 5xx and 429.
func Transient(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError || se.StatusCode == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrNetwork)
}

// Kind names the error class for metrics and API responses.
func Kind(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.As(err, &se):
		return "upstream_status"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network_error"
	default:
		return "internal_error"
	}
}
