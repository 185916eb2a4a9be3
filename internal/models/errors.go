package models

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeDuplicateUsername = "DUPLICATE_USERNAME"
	CodeNotFound          = "NOT_FOUND"
	CodeWrongPassword     = "WRONG_PASSWORD"
	CodeValidation        = "VALIDATION_ERROR"
	CodeImportParse       = "IMPORT_PARSE_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
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

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewDuplicateUsernameError(username string) *AppError {
	return &AppError{
		Code:    CodeDuplicateUsername,
		Message: fmt.Sprintf("username %q is already taken", username),
	}
}

func NewWrongPasswordError() *AppError {
	return &AppError{
		Code:    CodeWrongPassword,
		Message: "incorrect password",
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewImportParseError(err error) *AppError {
	return &AppError{
		Code:    CodeImportParse,
		Message: "could not parse import data",
		Err:     err,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal error",
		Err:     err,
	}
}
