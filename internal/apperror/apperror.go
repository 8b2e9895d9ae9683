// Package apperror defines the error kinds shared by every layer.
//
// Repositories and services return these; only the handler package knows how
// they map to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrStore      = errors.New("store failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, logged but never shown to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundf is NotFound with a free-form message, for lookups that are not keyed by id
// (a favorite is found by owner and name).
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflictf reports a uniqueness clash. Rows that clash are not always keyed
// by id (a favorite is unique per owner and name), so the message is free-form.
func Conflictf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Store wraps a persistence failure. The message is deliberately generic; the
// cause stays on the error for logging.
//
// HTTP handlers map this to 500 Internal Server Error. The operation was rolled
// back, so the client may retry.
func Store(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: fmt.Sprintf("%s failed, please retry", op),
		Cause:   cause,
	}
}
