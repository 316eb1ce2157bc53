package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/podium/internal/adapters/analytics"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// classify maps an error to the HTTP status and error code returned to widgets.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrUnknownDimension),
		errors.Is(err, model.ErrUnknownCategoryGroup),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidWidget):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrTooManyViews):
		return http.StatusBadRequest, "too_many_views"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, service.ErrStale):
		return http.StatusConflict, "stale"
	case errors.Is(err, analytics.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, analytics.ErrNetwork):
		return http.StatusBadGateway, "network_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
