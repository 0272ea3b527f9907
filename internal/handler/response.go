package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so success and
// failure bodies have one shape across the API.
//
// CONSISTENT ERROR FORMAT:
//
//	{"error": "validation_error",
//	 "message": "name: this field is required",
//	 "fields": {"name": ["this field is required"]}}
//
// "fields" only appears for validation errors. A rule that belongs to no
// single field is reported under "non_field_errors".

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/apperror"
)

// maxBodyBytes bounds request bodies. Recipe images arrive inline as base64
// data URIs, so the limit is generous.
const maxBodyBytes = 10 << 20

const nonFieldErrors = "non_field_errors"

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string              `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string              `json:"message"` // Human-readable description
	Fields  map[string][]string `json:"fields,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body; once Encode writes, any
// later header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation       → 400 validation_error
//	ErrDuplicate        → 400 duplicate
//	ErrSelfReference    → 400 self_reference
//	ErrUnauthenticated  → 401 unauthenticated
//	ErrMethodNotAllowed → 405 method_not_allowed
//	ErrForbidden        → 403 forbidden
//	ErrNotFound         → 404 not_found
//	anything else       → 500 internal_error
//
// ErrUnauthenticated and ErrMethodNotAllowed both wrap ErrForbidden, so
// they are checked before it.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// NEVER expose internal error details to the client: the raw
		// message may carry SQL or file paths.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	var fields map[string][]string

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
		fields = fieldMap(appErr)
	case errors.Is(err, apperror.ErrDuplicate):
		status = http.StatusBadRequest
		errorType = "duplicate"
	case errors.Is(err, apperror.ErrSelfReference):
		status = http.StatusBadRequest
		errorType = "self_reference"
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
		errorType = "unauthenticated"
		w.Header().Set("WWW-Authenticate", `Token realm="api"`)
	case errors.Is(err, apperror.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
		errorType = "method_not_allowed"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	default:
		slog.Error("unmapped application error", slog.String("error", err.Error()))
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Fields:  fields,
	})
}

func fieldMap(e *apperror.AppError) map[string][]string {
	fields := e.Fields
	if len(fields) == 0 {
		fields = []apperror.FieldError{{Field: e.Field, Message: e.Message}}
	}
	m := make(map[string][]string, len(fields))
	for _, f := range fields {
		name := f.Field
		if name == "" {
			name = nonFieldErrors
		}
		m[name] = append(m[name], f.Message)
	}
	return m
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed input is a validation error, so it answers 400 like any other
// bad field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body must not be empty")
		default:
			return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
		}
	}
	return nil
}
