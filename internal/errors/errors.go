// Package errors provides error code definitions for the sync engine.
package errors

import "fmt"

// ErrorCode represents a unique error code surfaced to the host application.
type ErrorCode string

const (
	// Authentication errors
	ErrAuthRequired ErrorCode = "AUTH_REQUIRED" // no valid token stored
	ErrAuthFailed   ErrorCode = "AUTH_FAILED"   // credentials rejected by the service

	// Network errors
	ErrNetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE" // no connectivity before the call
	ErrNetwork            ErrorCode = "NETWORK_ERROR"       // timeout/handshake/DNS during the call

	// Remote service errors
	ErrRemoteRejected ErrorCode = "REMOTE_REJECTED" // 4xx/5xx with a server-supplied message

	// Local errors
	ErrStorage  ErrorCode = "STORAGE_ERROR"
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrQueued marks an action deferred to the offline queue.
	// It is a distinguished outcome, not a failure: callers report it to the
	// user as "will complete on next sync".
	ErrQueued ErrorCode = "QUEUED"

	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code, unwrapping as needed.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the error code from an error chain.
// Returns ErrInternal for errors that carry no code.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrInternal
}
