// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campushq/campus-events/internal/auth"
	"github.com/campushq/campus-events/internal/model"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handleError is the single place domain errors become HTTP statuses.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrPersistenceFailed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrEventNotOpen),
		errors.Is(err, model.ErrAlreadyRegistered),
		errors.Is(err, model.ErrEventFull),
		errors.Is(err, model.ErrNotRegistered),
		errors.Is(err, model.ErrDuplicateEvent),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrUsernameTaken),
		errors.Is(err, model.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrUnknownSearchField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// callerIdentity returns the authenticated caller. The zero identity has
// no permissions, so a missing middleware shows up as 403, never a panic.
func callerIdentity(r *http.Request) model.Identity {
	identity, _ := auth.IdentityFromContext(r.Context())
	return identity
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
