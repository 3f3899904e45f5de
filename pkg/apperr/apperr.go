package apperr

import "net/http"

// Error is an HTTP-mappable application error. Code drives the response
// status, Key is a stable machine-readable identifier for clients.
type Error struct {
	Code int
	Key  string
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Key
}

// Status returns the HTTP status code for the error.
func (e Error) Status() int {
	return e.Code
}

var (
	ErrBadRequest   = Error{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized = Error{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden    = Error{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound     = Error{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict     = Error{Code: http.StatusConflict, Key: "conflict"}
	ErrTooMany      = Error{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternal     = Error{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// New creates a custom application error with the given status code and key.
func New(code int, key string) Error {
	return Error{Code: code, Key: key}
}
