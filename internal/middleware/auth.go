package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// TokenVerifier resolves a bearer token to an operator.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*jwt.Identity, error)
}

// Auth returns middleware that requires a valid bearer token.
// Every rejection gets the same 401 body.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Unauthorized(w)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil || identity == nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				response.Unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on WebSocket upgrades, so the feed endpoint may pass ?token= instead.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// GetIdentity extracts the operator from context
func GetIdentity(ctx context.Context) *jwt.Identity {
	if id, ok := ctx.Value(IdentityKey).(*jwt.Identity); ok {
		return id
	}
	return nil
}

// GetUserID extracts the operator id, or "" when unauthenticated.
func GetUserID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return ""
}

// GetRole extracts role from context
func GetRole(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.Role
	}
	return ""
}

// WithIdentity attaches an operator to ctx. Used by tests and tooling.
func WithIdentity(ctx context.Context, id *jwt.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}
