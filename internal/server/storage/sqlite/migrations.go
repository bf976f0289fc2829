package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// GetMigration returns ErrMigrationNotFound if absent.
func (s *Storage) GetMigration(ctx context.Context, target, sourceVersion string) (*models.MigrationRecord, error) {
	query := `
		SELECT uid, target, source_version, status, started_at, finished_at
		FROM migration_records
		WHERE target = ? AND source_version = ?
	`

	record := &models.MigrationRecord{}

	err := s.db.QueryRowContext(ctx, query, target, sourceVersion).Scan(
		&record.UID,
		&record.Target,
		&record.SourceVersion,
		&record.Status,
		&record.StartedAt,
		&record.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMigrationNotFound
		}
		return nil, fmt.Errorf("failed to get migration record: %w", err)
	}

	return record, nil
}

// PutMigration inserts or updates the record for its
// (target, sourceVersion) pair.
func (s *Storage) PutMigration(ctx context.Context, record *models.MigrationRecord) error {
	query := `
		INSERT INTO migration_records (uid, target, source_version, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (target, source_version) DO UPDATE SET
			uid = excluded.uid,
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.UID,
		record.Target,
		record.SourceVersion,
		record.Status,
		record.StartedAt,
		record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put migration record: %w", err)
	}

	return nil
}
