package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// SaveToken stores a refresh token.
func (s *Storage) SaveToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			user_id = excluded.user_id,
			expires_at = excluded.expires_at
	`

	_, err := s.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// GetToken returns ErrTokenNotFound if the token is absent or expired.
func (s *Storage) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at
		FROM refresh_tokens
		WHERE token = ? AND expires_at > ?
	`

	rt := &models.RefreshToken{}
	var expiresAt int64

	err := s.db.QueryRowContext(ctx, query, token, time.Now().Unix()).Scan(
		&rt.Token,
		&rt.UserID,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	rt.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return rt, nil
}

// DeleteToken removes one refresh token.
func (s *Storage) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// DeleteUserTokens removes every refresh token for one user.
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return nil
}
