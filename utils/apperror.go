package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindInternal     ErrorKind = "internal"
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type returned across service boundaries. Handlers
// turn it into the failure envelope with the matching HTTP status.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict, KindInvalidState:
		return fiber.StatusBadRequest
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ErrUnauthorized(msg string) *AppError { return &AppError{Kind: KindUnauthorized, Message: msg} }
func ErrForbidden(msg string) *AppError    { return &AppError{Kind: KindForbidden, Message: msg} }
func ErrNotFound(msg string) *AppError     { return &AppError{Kind: KindNotFound, Message: msg} }
func ErrConflict(msg string) *AppError     { return &AppError{Kind: KindConflict, Message: msg} }
func ErrInvalidState(msg string) *AppError { return &AppError{Kind: KindInvalidState, Message: msg} }

func ErrValidation(fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation error", Fields: fields}
}

// ErrInternal wraps an unexpected failure. The message is what clients see;
// the wrapped error is only logged.
func ErrInternal(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// AsAppError classifies any error. Record-not-found and duplicate-key
// errors from GORM become NotFound and Conflict.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &AppError{Kind: kindForStatus(fiberErr.Code), Message: fiberErr.Message}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &AppError{Kind: KindNotFound, Message: "Resource not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &AppError{Kind: KindConflict, Message: "Resource already exists", Err: err}
	}
	return ErrInternal("Internal server error", err)
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusBadRequest, fiber.StatusConflict:
		return KindInvalidState
	case fiber.StatusUnprocessableEntity:
		return KindValidation
	}
	if status < 500 {
		return KindInvalidState
	}
	return KindInternal
}
