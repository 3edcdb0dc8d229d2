package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Validation
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Sign-in flow
	ErrCodeForgerySuspected    ErrorCode = "FORGERY_SUSPECTED"
	ErrCodeProviderRefused     ErrorCode = "PROVIDER_REFUSED"
	ErrCodeUnsupportedProvider ErrorCode = "UNSUPPORTED_PROVIDER"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// Reason is the underlying failure text shown to clients. Only infrastructure
// failures expose it; validation and forgery errors never do.
func (e *AppError) Reason() string {
	if e.cause == nil || !e.IsInfrastructure() {
		return ""
	}
	return e.cause.Error()
}

// IsInfrastructure reports whether the error stems from a store, transport or
// unexpected upstream response rather than from the caller.
func (e *AppError) IsInfrastructure() bool {
	switch e.Code {
	case ErrCodeInternal, ErrCodeDatabase, ErrCodeExternal:
		return true
	}
	return false
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("%s is expected to be %s", field, reason))
}

// ForgerySuspected deliberately carries the same message whatever the
// verification failure was.
func ForgerySuspected() *AppError {
	return New(ErrCodeForgerySuspected, "This sign-in authorization did not properly originate with the current session")
}

func ProviderRefused(message string) *AppError {
	return New(ErrCodeProviderRefused, message)
}

func UnsupportedProvider(service string) *AppError {
	return New(ErrCodeUnsupportedProvider, fmt.Sprintf("Unsupported auth service: %s", service))
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Too many requests. Please try again later.")
}

func Internal(message string, cause error) *AppError {
	return Wrap(ErrCodeInternal, message, cause)
}

func Database(message string, cause error) *AppError {
	return Wrap(ErrCodeDatabase, message, cause)
}

func External(message string, cause error) *AppError {
	return Wrap(ErrCodeExternal, message, cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
