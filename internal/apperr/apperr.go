package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrInvalidAddress    = errors.New("address not eligible for tax calculation")
	ErrRemoteUnavailable = errors.New("tax service unavailable")
	ErrRemoteRejected    = errors.New("tax service rejected request")
	ErrStaleReference    = errors.New("referenced order no longer exists")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
)

// Kind returns a stable machine-readable label for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"

	case errors.Is(err, ErrRemoteRejected):
		return "remote_rejected"

	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"

	case errors.Is(err, ErrStaleReference):
		return "stale_reference"

	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStaleReference):
		return http.StatusNotFound

	case errors.Is(err, ErrRemoteRejected):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrRemoteUnavailable):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a failed order filing should be attempted again later.
func Retryable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrRemoteRejected) ||
		errors.Is(err, context.DeadlineExceeded)
}
