package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/service"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Auth verifies the bearer token minted by the identity provider and
// stores the verified identity in the request context. Parent resolution
// happens in the handlers; the token alone proves who is calling.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			identity, err := authService.ValidateToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (*service.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*service.Identity)
	return identity, ok
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
