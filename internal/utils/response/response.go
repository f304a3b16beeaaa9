// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every body is an envelope of the shape
//
//	{ "success": true,  "data": ..., "message": "...", "pagination": {...} }
//	{ "success": false, "message": "...", "error": "..." }
//
// where the optional members are omitted when empty.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Response is the standard envelope.
type Response struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Pagination *types.Pagination `json:"pagination,omitempty"`
}

// WriteJSON writes data as JSON with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body writes. Once WriteHeader
// is called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK wraps a successful result.
func OK(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// Page wraps a list result with its pagination metadata.
func Page(data any, p types.Pagination) Response {
	return Response{Success: true, Data: data, Pagination: &p}
}

// Fail wraps a client-facing failure message.
func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// WriteError maps err onto an HTTP status and envelope:
//
//	*types.ValidationError  → 400, the validation message
//	*types.ConstraintError  → 409, "Email already exists"
//	anything else           → 500, "Internal server error" plus the error text
func WriteError(w http.ResponseWriter, err error) {
	var (
		verr *types.ValidationError
		cerr *types.ConstraintError
	)

	switch {
	case errors.As(err, &verr):
		msg := verr.Message
		if msg == "" {
			msg = verr.Error()
		}
		WriteJSON(w, http.StatusBadRequest, Fail(msg))
	case errors.As(err, &cerr):
		WriteJSON(w, http.StatusConflict, Fail("Email already exists"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		WriteJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Message: "Internal server error",
			Error:   err.Error(),
		})
	}
}

// WriteNotFound writes the 404 envelope for a missing user.
func WriteNotFound(w http.ResponseWriter) {
	WriteJSON(w, http.StatusNotFound, Fail("User not found"))
}
