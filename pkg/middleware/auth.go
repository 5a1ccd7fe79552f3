package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const (
	identityKey contextKeyType = "identity"
	rawTokenKey contextKeyType = "raw_token"
)

// Identity describes the authenticated principal attached to a request.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	// Preferences carries the per-user settings resolved at authentication
	// time. The concrete type is owned by the application.
	Preferences any `json:"preferences,omitempty"`
	// TokenID is the jti of the access token the request authenticated with.
	// Empty for tokens minted before per-token IDs were introduced.
	TokenID string `json:"-"`
}

// Authenticator resolves a bearer token to an identity. Implementations are
// expected to verify the signature, consult the blacklist, and confirm the
// user still exists.
type Authenticator func(ctx context.Context, token string) (*Identity, error)

// Auth validates bearer tokens and injects the resolved identity into the
// request context. Every verification failure produces the same response
// body so callers cannot distinguish a revoked token from a malformed one.
func Auth(authenticate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			identity, err := authenticate(r.Context(), parts[1])
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, rawTokenKey, parts[1])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.UserID
	}
	return ""
}

// RawTokenFromContext returns the bearer token the request authenticated with.
func RawTokenFromContext(ctx context.Context) string {
	if tok, ok := ctx.Value(rawTokenKey).(string); ok {
		return tok
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
