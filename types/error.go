package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Run error codes
const (
	ErrConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrExecutionTimeout   ErrorCode = "EXECUTION_TIMEOUT"
	ErrBackendFailure     ErrorCode = "BACKEND_FAILURE"
	ErrUnsupportedOption  ErrorCode = "UNSUPPORTED_OPTION"
	ErrProtocolViolation  ErrorCode = "PROTOCOL_VIOLATION"
	ErrMaxTurnsExceeded   ErrorCode = "MAX_TURNS_EXCEEDED"
	ErrLogSinkFailure     ErrorCode = "LOG_SINK_FAILURE"
	ErrModelRequestFailed ErrorCode = "MODEL_REQUEST_FAILED"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
// This lets callers write errors.Is(err, types.NewError(types.ErrConfigInvalid, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
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

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// GetErrorCode extracts the error code from anywhere in the chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries code anywhere in its chain.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// NewConfigError is shorthand for a configuration error.
func NewConfigError(format string, args ...any) *Error {
	return Errorf(ErrConfigInvalid, format, args...)
}
