package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a status-coded error used across service and gateway boundaries.
// Controllers map it straight onto the HTTP response.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two coded errors by status code so callers can compare against
// the canonical sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrBadRequest   = &Error{Code: http.StatusBadRequest, Message: "bad request"}
	ErrUnauthorized = &Error{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrNotFound     = &Error{Code: http.StatusNotFound, Message: "not found"}
	ErrConflict     = &Error{Code: http.StatusConflict, Message: "conflict"}
	ErrInternal     = &Error{Code: http.StatusInternalServerError, Message: "internal server error"}
)

func BadRequest(format string, args ...interface{}) error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) error {
	return &Error{Code: http.StatusUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Code: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func Internal(msg string, err error) error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// Status returns the HTTP status carried by err, or 500 for anything
// unrecognized.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}
