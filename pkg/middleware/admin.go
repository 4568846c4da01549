package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/clarifaisql/engine/pkg/apperrors"
)

// AdminSecretHeader carries the shared admin secret on protected endpoints.
const AdminSecretHeader = "X-Admin-Secret"

// RequireAdminSecret returns middleware that rejects requests whose
// X-Admin-Secret header does not match the configured secret. An empty
// configured secret disables admin access entirely rather than opening it.
func RequireAdminSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(AdminSecretHeader)

			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error":   apperrors.ErrUnauthorized.Error(),
					"message": "Invalid admin secret",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
