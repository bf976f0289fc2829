package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// PublishVersion records a new client release.
func (s *Storage) PublishVersion(ctx context.Context, version *models.AppVersion) error {
	query := `
		INSERT INTO app_versions (platform, version, beta, publisher, description, download_url, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		version.Platform,
		version.Version,
		boolToInt(version.Beta),
		version.Publisher,
		version.Description,
		version.DownloadURL,
		version.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to publish version: %w", err)
	}

	return nil
}

// LatestVersion returns the newest release for a platform; beta
// releases are included only when beta is true.
func (s *Storage) LatestVersion(ctx context.Context, platform string, beta bool) (*models.AppVersion, error) {
	query := `
		SELECT platform, version, beta, publisher, description, download_url, timestamp
		FROM app_versions
		WHERE platform = ? AND (? OR beta = 0)
		ORDER BY timestamp DESC
		LIMIT 1
	`

	v := &models.AppVersion{}
	var isBeta int

	err := s.db.QueryRowContext(ctx, query, platform, boolToInt(beta)).Scan(
		&v.Platform,
		&v.Version,
		&isBeta,
		&v.Publisher,
		&v.Description,
		&v.DownloadURL,
		&v.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	v.Beta = intToBool(isBeta)

	return v, nil
}
