package errors

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	ErrInternalServer ErrorCode = 1000 + iota
	ErrInvalidInput
	ErrInvalidRequestData
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrConflict
	ErrAlreadyExists
	ErrTokenExpired
	ErrInvalidTokenFormat
	ErrMissingAuthorizationHeader
	ErrGetFailed
	ErrCreateFailed
	ErrUpdateFailed
	ErrDeleteFailed
)

// AppError is the error type returned by services. Code decides the HTTP status,
// Message is safe to show to the caller and Err keeps the underlying cause for logs.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err is an AppError carrying code.
func Is(err error, code ErrorCode) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func Validation(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(ErrNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(ErrConflict, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(ErrForbidden, message, nil)
}

func Integrity(message string, err error) *AppError {
	return NewAppError(ErrInternalServer, message, err)
}
