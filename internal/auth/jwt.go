// Package auth verifies the access tokens the hosted auth provider issues and
// exposes the request identity to handlers.
//
// The API server never mints tokens. It verifies provider-signed JWTs locally
// (HS256 with the project's JWT secret) and forwards the raw bearer token to
// the row store, where row-level security makes the final call. Verification
// here is a fast reject for garbage tokens, not the authorization boundary.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified subject of a request.
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier validates provider-issued JWTs.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the project's JWT secret.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// claims is the provider's JWT payload. The provider puts the user id in
// "sub" and the email in a non-registered "email" claim.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verify parses and verifies an access token, returning the identity inside.
//
// jwt.WithValidMethods pins HS256 so a token claiming alg=none or an
// asymmetric method is rejected before the signature check.
func (v *TokenVerifier) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
