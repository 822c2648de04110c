// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// Kind classifies domain failures so handlers can map them to HTTP statuses
// without string matching.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidInput         Kind = "invalid_input"
	KindInvalidQuantity      Kind = "invalid_quantity"
	KindInsufficientQuantity Kind = "insufficient_quantity"
	KindInsufficientCapacity Kind = "insufficient_capacity"
	KindConflict             Kind = "conflict"
	KindUnavailable          Kind = "unavailable"
)

var kindStatus = map[Kind]int{
	KindNotFound:             http.StatusNotFound,
	KindInvalidInput:         http.StatusBadRequest,
	KindInvalidQuantity:      http.StatusBadRequest,
	KindInsufficientQuantity: http.StatusBadRequest,
	KindInsufficientCapacity: http.StatusBadRequest,
	KindConflict:             http.StatusConflict,
	KindUnavailable:          http.StatusServiceUnavailable,
}

// AppError is a typed domain error raised by services and repositories.
type AppError struct {
	Kind   Kind
	Status int
	Detail string
}

func (e *AppError) Error() string { return e.Detail }

// Is matches any AppError of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the detail message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound             = &AppError{Kind: KindNotFound, Status: http.StatusNotFound}
	ErrInvalidInput         = &AppError{Kind: KindInvalidInput, Status: http.StatusBadRequest}
	ErrInvalidQuantity      = &AppError{Kind: KindInvalidQuantity, Status: http.StatusBadRequest}
	ErrInsufficientQuantity = &AppError{Kind: KindInsufficientQuantity, Status: http.StatusBadRequest}
	ErrInsufficientCapacity = &AppError{Kind: KindInsufficientCapacity, Status: http.StatusBadRequest}
	ErrConflict             = &AppError{Kind: KindConflict, Status: http.StatusConflict}
	ErrUnavailable          = &AppError{Kind: KindUnavailable, Status: http.StatusServiceUnavailable}
)

func newApp(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Status: kindStatus[kind], Detail: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *AppError {
	return newApp(KindNotFound, format, args...)
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return newApp(KindInvalidInput, format, args...)
}

func InvalidQuantity(format string, args ...interface{}) *AppError {
	return newApp(KindInvalidQuantity, format, args...)
}

func InsufficientQuantity(format string, args ...interface{}) *AppError {
	return newApp(KindInsufficientQuantity, format, args...)
}

func InsufficientCapacity(format string, args ...interface{}) *AppError {
	return newApp(KindInsufficientCapacity, format, args...)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newApp(KindConflict, format, args...)
}

func Unavailable(format string, args ...interface{}) *AppError {
	return newApp(KindUnavailable, format, args...)
}

// StatusOf returns the HTTP status for err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
