package core

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsCode reports whether err carries the given error code
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error codes
const (
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors

// InvalidParameter signals a precondition violation on a numeric argument
// (sigma <= 0, probability outside (0,1), VaR level outside (0,100)).
func InvalidParameter(message string) *AppError {
	return New(CodeInvalidParameter, message)
}

// InvalidParameterf is InvalidParameter with formatting.
func InvalidParameterf(format string, args ...interface{}) *AppError {
	return New(CodeInvalidParameter, fmt.Sprintf(format, args...))
}

// DimensionMismatch signals that two parallel inputs have different lengths.
func DimensionMismatch(want, got int) *AppError {
	return New(CodeDimensionMismatch, fmt.Sprintf("dimension mismatch: expected %d values, got %d", want, got))
}

// InsufficientData signals that a computation needs more samples than supplied.
// Diagnostic sweeps degrade gracefully instead of returning this; it only
// surfaces from operations that cannot produce a partial result.
func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
