// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Success responses may return any JSON shape. Error responses always look like:
//
//	{ "status": "error", "error": "age: Age must be at least 18", "fields": [...] }
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/registration"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string                   `json:"status"`
	Error  string                   `json:"error"`
	Fields registration.FieldErrors `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() → WriteHeader() → body, in that order: headers lock on the
// first write.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError reports failing form fields, one entry per field.
func ValidationError(errs registration.FieldErrors) Response {
	return Response{
		Status: StatusError,
		Error:  errs.Error(),
		Fields: errs,
	}
}

// FieldError reports a single failing field.
func FieldError(fe *registration.FieldError) Response {
	return ValidationError(registration.FieldErrors{*fe})
}
