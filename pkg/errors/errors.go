package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeAccessDenied        ErrorCode = "ACCESS_DENIED"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	ErrCodePaymentSession      ErrorCode = "PAYMENT_SESSION_ERROR"
	ErrCodeSessionVerification ErrorCode = "SESSION_VERIFICATION_ERROR"
	ErrCodePaymentNotCompleted ErrorCode = "PAYMENT_NOT_COMPLETED"
	ErrCodePersistence         ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInternalError       ErrorCode = "INTERNAL_ERROR"
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

// Newf creates a new AppError with a formatted message
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Persistence wraps a storage failure. The message is generic so that
// driver details never reach callers; the cause stays available via Unwrap.
func Persistence(err error) *AppError {
	return Wrap(ErrCodePersistence, "storage unavailable", err)
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsNotFound checks if error is NotFound
func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

// IsUnauthorized checks if error is Unauthorized
func IsUnauthorized(err error) bool {
	return Is(err, ErrCodeUnauthorized)
}

// IsAccessDenied checks if error is AccessDenied
func IsAccessDenied(err error) bool {
	return Is(err, ErrCodeAccessDenied)
}

// IsInvalidStatus checks if error is InvalidStatus
func IsInvalidStatus(err error) bool {
	return Is(err, ErrCodeInvalidStatus)
}
