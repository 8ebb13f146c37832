package apperrors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError is an error that carries the HTTP status it should be reported with.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Common errors
var (
	ErrInvalidRequest = NewAppError(http.StatusBadRequest, "Invalid request payload")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, "Unauthorized")
	ErrNotFound       = NewAppError(http.StatusNotFound, "Resource not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, "Rate limit exceeded")
)

func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, msg)
}

// ValidationError collects field level messages for a rejected record.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Messages returns the messages collected for field.
func (e *ValidationError) Messages(field string) []string {
	if e == nil {
		return nil
	}
	return e.Fields[field]
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, msg := range e.Fields[field] {
			parts = append(parts, field+" "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotAuthorizedError is a denied request. It is never fatal: Redirect names
// the page the requester should be sent to instead.
type NotAuthorizedError struct {
	Action   string
	Redirect string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s, redirecting to %s", e.Action, e.Redirect)
}
