package handlers

import (
	"encoding/json"
	"errors"
	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().
			Err(err).
			Str("req_id", obs.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, r, status, dto.ErrorResponse{Detail: detail})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Validation and lookup failures report the client-facing message of a
// domain.Error; anything else is logged and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, r, http.StatusBadRequest, domain.PublicMessage(err, "invalid request"))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, domain.PublicMessage(err, "not found"))
	default:
		log.Error().
			Err(err).
			Str("req_id", obs.RequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// MethodNotAllowed answers requests to read-only routes made with another method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
