package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// CreateUser inserts a new user. Returns ErrUserAlreadyExists if the
// email is taken.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, nickname, tagline, avatar_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Nickname,
		user.Tagline,
		user.AvatarID,
		user.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail returns ErrUserNotFound if absent.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID returns ErrUserNotFound if absent.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, nickname, tagline, avatar_id, created_at
		FROM users
		WHERE ` + where

	user := &models.User{}
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Nickname,
		&user.Tagline,
		&user.AvatarID,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()

	return user, nil
}

// UpdateProfile updates nickname, tagline and avatar reference.
func (s *Storage) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET nickname = ?, tagline = ?, avatar_id = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Nickname,
		user.Tagline,
		user.AvatarID,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
