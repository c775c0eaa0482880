package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/response"
)

// PermissionChecker decides whether a role may call a route.
type PermissionChecker interface {
	Allowed(role, path, method string) bool
}

// Authorize rejects operators whose role lacks a policy for the request.
// It must run after Auth.
func Authorize(checker PermissionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if !checker.Allowed(role, r.URL.Path, r.Method) {
				log.Warn().
					Str("user_id", GetUserID(r.Context())).
					Str("role", role).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Permission denied")
				response.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
