// Package model defines the client-side domain shapes and their conversions
// from the backend's raw row representations.
//
// Row structs mirror the backend's snake_case columns exactly. Conversions to
// domain shapes are explicit and fail loudly on missing required fields
// instead of silently propagating zero values.
package model

import (
	"fmt"
	"time"
)

// User is the domain shape for an account, mirrored locally after a session
// or profile fetch. The backend owns the authoritative row.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileRow is the backend's profiles table shape.
type ProfileRow struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToDomain converts a profile row to a User. The row must carry an id.
func (r ProfileRow) ToDomain() (User, error) {
	if r.ID == "" {
		return User{}, fmt.Errorf("model: profile row missing id")
	}
	return User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.DisplayName,
		AvatarURL: r.AvatarURL,
		CreatedAt: r.CreatedAt,
	}, nil
}
