package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"eventd/internal/domain"
	"eventd/internal/store"
)

// errBadRequestBody is returned when a request body cannot be decoded.
var errBadRequestBody = fmt.Errorf("%w: malformed request body", domain.ErrValidation)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on
// the error taxonomy. This keeps internal error types and messages from
// leaking to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, client-facing message for the
// error. Internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrEventNotFound):
		return "Event not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case store.IsNotFoundError(err):
		return "Not found"

	case errors.Is(err, domain.ErrEventCancelled):
		return "Event is already cancelled"

	case errors.Is(err, domain.ErrInvalidState):
		return "Operation not allowed in the event's current state"

	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// respondError writes the mapped status code and safe message as JSON and
// logs the underlying error.
func respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := MapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", slog.String("error", err.Error()))
	} else {
		log.Debug("request rejected",
			slog.Int("status", code),
			slog.String("error", err.Error()))
	}
	respondJSON(w, log, code, map[string]string{"error": GetSafeErrorMessage(err)})
}

func respondJSON(w http.ResponseWriter, log *slog.Logger, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("failed to write response", slog.String("error", err.Error()))
	}
}
