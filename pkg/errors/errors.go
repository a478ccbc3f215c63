package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeBusy          ErrorCode = "BUSY"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrCodeTransport     ErrorCode = "TRANSPORT_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error
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

// CodeOf returns the code of the first AppError in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsValidation checks if error is a field validation failure
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsBusy checks if error reports a submission already in flight
func IsBusy(err error) bool {
	return CodeOf(err) == ErrCodeBusy
}

// IsUpstream checks if error is a non-success answer from a remote service
func IsUpstream(err error) bool {
	return CodeOf(err) == ErrCodeUpstream
}

// IsTransport checks if error is a network level failure
func IsTransport(err error) bool {
	return CodeOf(err) == ErrCodeTransport
}
