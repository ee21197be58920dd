package core

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidID        ErrorCode = "INVALID_ID"

	// Upstream API errors
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrorCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrorCodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
	ErrorCodeAPIFailure       ErrorCode = "API_FAILURE"

	// Local errors
	ErrorCodeDownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	ErrorCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
)

// Error represents a structured error with code and metadata
type Error struct {
	Err      error          `json:"error"`
	Code     ErrorCode      `json:"code"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewError creates a new structured error for domain boundaries
func NewError(err error, code ErrorCode, metadata map[string]any) *Error {
	return &Error{
		Err:      err,
		Code:     code,
		Metadata: metadata,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if len(e.Metadata) > 0 {
		return fmt.Sprintf("[%s] %v (metadata: %v)", e.Code, e.Err, e.Metadata)
	}
	return fmt.Sprintf("[%s] %v", e.Code, e.Err)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Errors that carry no code map to API_FAILURE.
func CodeOf(err error) ErrorCode {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return ErrorCodeAPIFailure
}

// IsRetryable reports whether the error is worth retrying upstream.
// Only rate limiting and transient network failures qualify.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeRateLimited, ErrorCodeTransientNetwork:
		return true
	default:
		return false
	}
}
