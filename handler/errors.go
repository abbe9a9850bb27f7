package handler

import (
	"errors"
	"net/http"
)

var (
	// ErrNilResponse indicates a handler returned nil instead of a Response
	ErrNilResponse = errors.New("handler returned nil response")
	// ErrBinderNotApplicable lets a binder skip requests it does not understand
	ErrBinderNotApplicable = errors.New("binder not applicable")
	// ErrInvalidJSON is returned by BindJSON for malformed or oversized bodies
	ErrInvalidJSON = errors.New("failed to parse JSON request body")
)

// HTTPError represents an HTTP error with status code and a stable key.
// The key is what API clients switch on.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // machine readable error code, e.g. "unauthorized"
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest      = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized    = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden       = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound        = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict        = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrTooManyRequests = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternal        = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
	ErrUnavailable     = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)
