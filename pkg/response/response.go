package response

import (
	"errors"

	"taxsync/internal/apperr"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"` // error taxonomy, see apperr
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps err onto its HTTP status and kind.
func FromError(err error) (int, Response) {
	if err == nil {
		err = errors.New("unknown error")
	}
	status := apperr.HTTPStatus(err)
	resp := Error(status, err.Error())
	resp.Kind = apperr.Kind(err)
	return status, resp
}
