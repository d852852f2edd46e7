package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// User input and credential errors. Both are detected before any network
// call and are always actionable by the user.
const (
	ErrValidation  ErrorCode = "VALIDATION"
	ErrCredentials ErrorCode = "CREDENTIALS"
)

// Remote API errors.
const (
	ErrProvider  ErrorCode = "PROVIDER"
	ErrTransport ErrorCode = "TRANSPORT"
)

// Secret storage errors.
const (
	ErrIntegrity         ErrorCode = "INTEGRITY"
	ErrFormat            ErrorCode = "FORMAT"
	ErrMissingFile       ErrorCode = "MISSING_FILE"
	ErrUnsupportedCipher ErrorCode = "UNSUPPORTED_CIPHER"
)

// Local pipeline errors.
const (
	ErrImport   ErrorCode = "IMPORT"
	ErrInternal ErrorCode = "INTERNAL"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Hint      string    `json:"hint,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg = msg + " " + e.Hint
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

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHint appends a short human hint shown after the raw message.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
