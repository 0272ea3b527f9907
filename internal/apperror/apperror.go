// Package apperror defines the domain error taxonomy shared by the service,
// repository and handler layers.
//
// Every error a caller can act on is an *AppError wrapping one of the
// sentinels below. Handlers map sentinels to HTTP statuses with errors.Is;
// services and repositories never mention HTTP.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrDuplicate     = errors.New("duplicate")
	ErrSelfReference = errors.New("self reference")
	ErrForbidden     = errors.New("forbidden")

	// PERMISSION FAMILY:
	// Both wrap ErrForbidden, so errors.Is(err, ErrForbidden) holds for an
	// anonymous caller and for a rejected PUT as well as for a plain
	// non-author mutation. Handlers check the narrower sentinel first.
	ErrUnauthenticated  = fmt.Errorf("%w: authentication required", ErrForbidden)
	ErrMethodNotAllowed = fmt.Errorf("%w: method not allowed", ErrForbidden)
)

// FieldError is one violated rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err     error        // sentinel
	Message string       // Human-readable error message
	Field   string       // Optional: field causing the error
	Fields  []FieldError // Optional: every violated field, for aggregated validation
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// Validation aggregates several field errors into one. The message lists
// every field so plain-text consumers still see the whole picture.
func Validation(fields []FieldError) *AppError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	e := &AppError{
		Err:     ErrValidation,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
	if len(fields) == 1 {
		e.Field = fields[0].Field
	}
	return e
}

// Duplicate reports an entity or relation that already exists.
func Duplicate(message string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: message,
	}
}

func SelfReference(message string) *AppError {
	return &AppError{
		Err:     ErrSelfReference,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is the permission error for an anonymous caller.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

func MethodNotAllowed(method string) *AppError {
	return &AppError{
		Err:     ErrMethodNotAllowed,
		Message: fmt.Sprintf("method %q not allowed", method),
	}
}

// IsPermission reports whether err belongs to the permission family.
func IsPermission(err error) bool {
	return errors.Is(err, ErrForbidden)
}
