package storage

import (
	"context"

	"github.com/wordbase/wordbase/internal/models"
)

// AppVersionStore persists published client releases.
type AppVersionStore interface {
	// PublishVersion records a new release.
	PublishVersion(ctx context.Context, version *models.AppVersion) error

	// LatestVersion returns the newest release for a platform. When
	// beta is false, beta releases are excluded.
	// Returns ErrVersionNotFound if nothing is published.
	LatestVersion(ctx context.Context, platform string, beta bool) (*models.AppVersion, error)
}

// FileStore persists uploaded blobs.
type FileStore interface {
	PutFile(ctx context.Context, file *models.StoredFile) error

	// GetFile returns ErrFileNotFound if absent.
	GetFile(ctx context.Context, id string) (*models.StoredFile, error)
}

// MigrationStore tracks legacy-import progress per target account.
type MigrationStore interface {
	// GetMigration returns ErrMigrationNotFound if absent.
	GetMigration(ctx context.Context, target, sourceVersion string) (*models.MigrationRecord, error)

	// PutMigration inserts or updates the record for its
	// (target, sourceVersion) pair.
	PutMigration(ctx context.Context, record *models.MigrationRecord) error
}
