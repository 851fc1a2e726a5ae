package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campushq/campus-events/internal/model"
)

// Authenticator rejects requests without a valid bearer token and
// attaches the verified identity to the request context.
func (s *Service) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "authorization header must be a bearer token")
			return
		}

		identity, err := s.VerifyToken(token)
		if err != nil {
			unauthorized(w, model.ErrInvalidToken.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequirePermission gates a route group on a single permission. It must
// run after Authenticator.
func RequirePermission(perm model.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, "missing authorization header")
				return
			}
			if !identity.Role.Can(perm) {
				writeJSONError(w, http.StatusForbidden, model.ErrPermissionDenied.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
