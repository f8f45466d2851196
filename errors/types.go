package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Lookup errors
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Scan errors
	ErrCodeScanIO          ErrorCode = "SCAN_IO"
	ErrCodeTruncatedSource ErrorCode = "TRUNCATED_SOURCE"

	// Daemon errors
	ErrCodeDaemonNotRunning  ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeDaemonUnreachable ErrorCode = "DAEMON_UNREACHABLE"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SessiondError represents a structured error with context
type SessiondError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SessiondError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SessiondError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SessiondError) WithDetail(key string, value interface{}) *SessiondError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *SessiondError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SessiondError
func New(code ErrorCode, message string) *SessiondError {
	return &SessiondError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SessiondError
func Wrap(err error, code ErrorCode, message string) *SessiondError {
	return &SessiondError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	serr, ok := err.(*SessiondError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return serr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	serr, ok := err.(*SessiondError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return serr.Code
}
