package storage

import (
	"context"

	"github.com/wordbase/wordbase/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts a new user.
	// Returns ErrUserAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrUserNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrUserNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateProfile updates nickname, tagline and avatar reference.
	UpdateProfile(ctx context.Context, user *models.User) error
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	SaveToken(ctx context.Context, token *models.RefreshToken) error

	// GetToken returns ErrTokenNotFound if the token is absent or
	// already expired.
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)

	DeleteToken(ctx context.Context, token string) error

	// DeleteUserTokens drops every token for one user (logout).
	DeleteUserTokens(ctx context.Context, userID string) error
}
