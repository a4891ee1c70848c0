// internal/pkg/apperror/apperror.go
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can choose a status code
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidState
	KindValidation
	KindUnauthorized
	KindForbidden
	KindUpstream
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation_failed"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUpstream:
		return "upstream_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is a classified error with a caller-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) error     { return New(KindNotFound, message) }
func Conflict(message string) error     { return New(KindConflict, message) }
func InvalidState(message string) error { return New(KindInvalidState, message) }
func Validation(message string) error   { return New(KindValidation, message) }
func Unauthorized(message string) error { return New(KindUnauthorized, message) }
func Forbidden(message string) error    { return New(KindForbidden, message) }

// Validationf formats a ValidationFailed message
func Validationf(format string, args ...interface{}) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Upstream marks a failed call to an external collaborator. Deadline errors
// become KindTimeout so callers can tell a slow dependency from a broken one.
func Upstream(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, service+" timed out", err)
	}
	return Wrap(KindUpstream, service+" request failed", err)
}

// KindOf returns the kind of the first classified error in the chain
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to its response status
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text that is safe to show to a client
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "Internal server error"
}
