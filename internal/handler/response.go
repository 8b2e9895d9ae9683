package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so success bodies and
// error bodies have one shape across the API:
//
//	{"error": "not_found", "message": "planet not found with id 42"}
//
// Clients can always read the same two fields, whatever the status code.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/starwars-api/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body. Once Encode writes,
// later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation → 400   ErrForbidden → 403   ErrNotFound → 404
//	ErrConflict   → 409   ErrStore     → 500   anything else → 500
//
// Store failures and unknown errors are logged with their cause. The client
// only ever sees the AppError message, which never carries SQL or driver text.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrStore):
			errorType = "store_error"
			attrs := []any{slog.String("message", appErr.Message)}
			if appErr.Cause != nil {
				attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
			}
			logger.Error("request failed on store", attrs...)
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error: NEVER expose the raw text, it may contain SQL or file paths.
	logger.Error("unhandled error", slog.String("error", err.Error()))
	HandleInternalError(w, nil)
}

// HandleNotFound answers requests that match no route, including favorite
// kinds the router does not know.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
	})
}

// HandleMethodNotAllowed answers requests whose path exists under another method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path),
	})
}

// HandleInternalError sends the generic 500 body. The recover middleware uses
// it after a handler panics.
func HandleInternalError(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer, got "+strconv.Quote(raw))
	}
	return id, nil
}
