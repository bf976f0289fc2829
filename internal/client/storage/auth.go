package storage

import (
	"context"
)

// AuthStorage stores the current session on disk.
type AuthStorage interface {
	// SaveAuth stores the session.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns ErrAuthNotFound if no session is stored.
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session (logout).
	DeleteAuth(ctx context.Context) error
}

// AuthData is the persisted session.
type AuthData struct {
	Email        string `json:"email"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
