package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Record error codes. These abort processing of a single record only.
const (
	ErrRecoveryFailure    ErrorCode = "RECOVERY_FAILURE"
	ErrIdentifierNotFound ErrorCode = "IDENTIFIER_NOT_FOUND"
	ErrNotAnObject        ErrorCode = "NOT_AN_OBJECT"
)

// Setup error codes
const (
	ErrInvalidSchema ErrorCode = "INVALID_SCHEMA"
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrStorage       ErrorCode = "STORAGE_ERROR"
)

// Upstream error codes (generator and terminology service)
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrContextTooLong     ErrorCode = "CONTEXT_TOO_LONG"
	ErrModelOverloaded    ErrorCode = "MODEL_OVERLOADED"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrEmptyCompletion    ErrorCode = "EMPTY_COMPLETION"
	ErrTermNotFound       ErrorCode = "TERM_NOT_FOUND"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Label      string    `json:"label,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Label != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Label)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithLabel attaches the source label of the record the error belongs to.
func (e *Error) WithLabel(label string) *Error {
	e.Label = label
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the upstream provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// AsError extracts a *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether any *Error in the chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// NewRecoveryFailure reports text that could not be coerced into a structured value.
func NewRecoveryFailure(label string, cause error) *Error {
	return NewError(ErrRecoveryFailure, "text could not be recovered into a structured value").
		WithLabel(label).
		WithCause(cause)
}

// NewIdentifierNotFound reports a label without a record identifier marker.
func NewIdentifierNotFound(label string) *Error {
	return NewError(ErrIdentifierNotFound, "no record identifier found in label").
		WithLabel(label)
}
