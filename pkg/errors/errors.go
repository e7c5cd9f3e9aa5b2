package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeConfiguration    ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeUpstream         ErrorCode = "UPSTREAM_ERROR"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error. Message is always safe to return
// to a caller; Err holds the detail that only goes to server logs.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation creates a validation error whose message names the offending field(s)
func Validation(err error) *AppError {
	return Wrap(ErrCodeValidation, err.Error(), err)
}

// Configuration reports incomplete server configuration. what names the
// missing setting for the logs and never its value.
func Configuration(what string) *AppError {
	return Wrap(ErrCodeConfiguration, "server configuration is incomplete", fmt.Errorf("missing %s", what))
}

// Upstream wraps a store or provider failure behind a sanitized message
func Upstream(message string, err error) *AppError {
	return Wrap(ErrCodeUpstream, message, err)
}

// Internal wraps an unexpected failure behind a generic message
func Internal(err error) *AppError {
	return Wrap(ErrCodeInternalError, "internal server error", err)
}

// As extracts an AppError from an error chain. Errors outside the taxonomy
// come back as internal errors.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is checks if the error chain carries an AppError with the given code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

// IsConfiguration checks if error is a configuration error
func IsConfiguration(err error) bool {
	return Is(err, ErrCodeConfiguration)
}

// IsUpstream checks if error is an upstream error
func IsUpstream(err error) bool {
	return Is(err, ErrCodeUpstream)
}
