package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-todo-auth/internal/infrastructure/jwt"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	DeviceKey contextKey = "device"
)

// TokenVerifier validates a signed token of the wanted type.
type TokenVerifier interface {
	Verify(tokenStr string, want jwtinfra.TokenType) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer access token and injects
// its claims into the request context. Refresh tokens are rejected.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONMessage(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := verifier.Verify(tokenStr, jwtinfra.TokenAccess)
			if err != nil {
				writeJSONMessage(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
