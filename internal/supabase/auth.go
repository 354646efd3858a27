package supabase

import (
	"context"
	"encoding/json"
	"fmt"
)

// AuthClient talks to the platform's auth endpoints (password sign-in,
// sign-up, sign-out, token refresh, current-user lookup).
type AuthClient struct {
	client *Client
}

// SignUp registers a new account. metadata is stored as user_metadata on the
// auth user (display name at signup time).
func (a *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	return a.sessionRequest(ctx, a.client.authURL+"/signup", payload)
}

// SignInWithPassword authenticates with email and password.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	return a.sessionRequest(ctx, a.client.authURL+"/token?grant_type=password", payload)
}

// RefreshToken exchanges a refresh token for a fresh session.
func (a *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	payload := map[string]string{
		"refresh_token": refreshToken,
	}
	return a.sessionRequest(ctx, a.client.authURL+"/token?grant_type=refresh_token", payload)
}

// GetUser fetches the account behind an access token.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := a.client.request(ctx, "GET", a.client.authURL+"/user", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, parseError(resp.body, resp.status)
	}

	var user User
	if err := json.Unmarshal(resp.body, &user); err != nil {
		return nil, fmt.Errorf("supabase: decoding user: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind an access token. Callers clear local
// state regardless of whether this succeeds.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := a.client.request(ctx, "POST", a.client.authURL+"/logout", nil, nil, accessToken)
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return parseError(resp.body, resp.status)
	}
	return nil
}

func (a *AuthClient) sessionRequest(ctx context.Context, url string, payload any) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("supabase: encoding request: %w", err)
	}

	resp, err := a.client.request(ctx, "POST", url, body, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, parseError(resp.body, resp.status)
	}

	var session Session
	if err := json.Unmarshal(resp.body, &session); err != nil {
		return nil, fmt.Errorf("supabase: decoding session: %w", err)
	}
	return &session, nil
}
