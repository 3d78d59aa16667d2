// Package apperrors defines the error taxonomy shared by the store, the
// authorization engine and the HTTP handlers, together with its HTTP mapping.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error class.
type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

// AppError is the single error type that crosses package boundaries.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	// Cause is logged, never sent to clients.
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Validation reports missing or malformed client input.
func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// MissingFields reports required fields absent from a create request.
func MissingFields(fields ...string) *AppError {
	return Validation(fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")))
}

// NoFieldsToUpdate is returned for an update request with an empty patch.
func NoFieldsToUpdate() *AppError {
	return Validation("No fields to update")
}

// Unauthenticated covers missing, malformed, expired or forged credentials.
func Unauthenticated(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required"
	}
	return &AppError{Code: CodeUnauthenticated, Message: reason, HTTPStatus: http.StatusUnauthorized}
}

// Forbidden covers an authenticated principal failing a role or ownership check.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action"
	}
	return &AppError{Code: CodeForbidden, Message: reason, HTTPStatus: http.StatusForbidden}
}

// NotFound reports that an id did not resolve. resource is a human noun
// such as "Project" or "Material request".
func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", HTTPStatus: http.StatusNotFound}
}

// Conflict reports a uniqueness or referential conflict. The system answers
// these with 400 rather than 409.
func Conflict(reason string) *AppError {
	return &AppError{Code: CodeConflict, Message: reason, HTTPStatus: http.StatusBadRequest}
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// As extracts an AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From returns err as an AppError, converting anything unknown to Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Response is the failure envelope written to clients.
type Response struct {
	Error string `json:"error"`
}

// ToResponse converts the error to its client-facing envelope.
func (e *AppError) ToResponse() Response {
	return Response{Error: e.Message}
}
