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

// PutFile stores an uploaded blob.
func (s *Storage) PutFile(ctx context.Context, file *models.StoredFile) error {
	query := `
		INSERT INTO stored_files (id, owner, name, content_type, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			content_type = excluded.content_type,
			data = excluded.data
	`

	_, err := s.db.ExecContext(ctx, query,
		file.ID,
		file.Owner,
		file.Name,
		file.ContentType,
		file.Data,
		file.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put file: %w", err)
	}

	return nil
}

// GetFile returns ErrFileNotFound if absent.
func (s *Storage) GetFile(ctx context.Context, id string) (*models.StoredFile, error) {
	query := `
		SELECT id, owner, name, content_type, data, created_at
		FROM stored_files
		WHERE id = ?
	`

	file := &models.StoredFile{}
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID,
		&file.Owner,
		&file.Name,
		&file.ContentType,
		&file.Data,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	file.CreatedAt = time.Unix(createdAt, 0).UTC()

	return file, nil
}
