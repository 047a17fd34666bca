// Package response writes the JSON bodies of the student API.
//
// Successful replies are whatever value the handler passes in. Failures
// always use the Response envelope so clients can show Error verbatim and,
// for validation failures, point at Field.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/student-register/internal/validate"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list, a state…).
// Error responses always look like:
//
//	{ "status": "error", "error": "Student ID must contain only numbers." }
//
// Field is set for validation failures so a form can highlight the input.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // human-readable error detail
	Field  string `json:"field,omitempty"` // offending input, validation only
}

// Envelope status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON sets the JSON content type, writes status and encodes data.
// The header must be set before WriteHeader, after which it is frozen.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK is the envelope for successful operations that return no data.
func OK() Response {
	return Response{Status: StatusOK}
}

// GeneralError reports err as-is, for decode and storage failures.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Message is GeneralError for a plain message.
func Message(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a form validation failure into a Response.
//
// Only the first rule that failed is reported, so the client can show it
// verbatim:
//
//	{ "status": "error", "error": "Please enter a valid email address.", "field": "email" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(err *validate.Error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Message,
		Field:  err.Field,
	}
}
