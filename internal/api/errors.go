package api

import (
	"errors"
	"net/http"

	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an error to an HTTP status and error type.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, psb.ErrCountMismatch):
		return http.StatusBadRequest, "count_mismatch"
	case errors.Is(err, psb.ErrInvalidMagic),
		errors.Is(err, psb.ErrFormat),
		errors.Is(err, psb.ErrCorruptBytecode),
		errors.Is(err, psb.ErrOffsetTooLarge):
		return http.StatusBadRequest, "format_error"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
