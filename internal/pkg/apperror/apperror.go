package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP representation.
type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindForbidden             Kind = "forbidden"
	KindUnauthorized          Kind = "unauthorized"
	KindInvalidRequest        Kind = "invalid_request"
	KindConflict              Kind = "conflict"
	KindInternalConfiguration Kind = "internal_configuration"
	KindGatewayFailure        Kind = "gateway_failure"
	KindInternal              Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindNotFound:              http.StatusNotFound,
	KindForbidden:             http.StatusForbidden,
	KindUnauthorized:          http.StatusUnauthorized,
	KindInvalidRequest:        http.StatusBadRequest,
	KindConflict:              http.StatusConflict,
	KindInternalConfiguration: http.StatusInternalServerError,
	KindGatewayFailure:        http.StatusBadGateway,
	KindInternal:              http.StatusInternalServerError,
}

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind   // Error category
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports sentinel equality by kind and message, so wrapped copies of a
// sentinel still match it with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    StatusFor(kind),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    StatusFor(kind),
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *AppError       { return New(KindNotFound, message) }
func Forbidden(message string) *AppError      { return New(KindForbidden, message) }
func InvalidRequest(message string) *AppError { return New(KindInvalidRequest, message) }

// StatusFor returns the HTTP status code used for kind.
func StatusFor(kind Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
