package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// identity stored in a request context.
type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "accessToken"
)

// RequireAuth enforces a valid bearer token on protected routes. On success
// it stores the identity and the raw token in the request context; the token
// is forwarded downstream so the row store can apply row-level security.
func RequireAuth(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, identity, err := extractIdentity(r, verifier)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the identity when a valid bearer token is present but
// never blocks the request. Anonymous readers pass straight through.
func OptionalAuth(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, identity, err := extractIdentity(r, verifier); err == nil {
				ctx := context.WithValue(r.Context(), identityKey, identity)
				ctx = context.WithValue(ctx, tokenKey, token)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the verified identity, or ok=false when the
// request is anonymous.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// TokenFromContext returns the raw bearer token for forwarding to the row
// store, or "" when the request is anonymous.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func extractIdentity(r *http.Request, verifier *TokenVerifier) (string, Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", Identity{}, errors.New("auth: missing bearer token")
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identity, nil
}
