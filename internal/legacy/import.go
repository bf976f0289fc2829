// Package legacy imports account exports from the previous generation
// of the service. The import is idempotent per (account, source
// version): finished accounts are skipped on rerun, failed ones are
// retried.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// Categories and well-known entry names used by the importer.
const (
	categoryUser       = "user"
	categorySettings   = "settings"
	categoryRecords    = "records"
	categoryStatistics = "statistics"

	nameDisplayName  = "displayName"
	nameClockInStats = "clock-in-stats"
)

// Export is the top-level structure of a legacy export file.
type Export struct {
	SourceVersion string       `json:"sourceVersion"`
	Users         []ExportUser `json:"users"`
}

// ExportUser is one exported account with its data.
type ExportUser struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Nickname     string `json:"nickname,omitempty"`

	// Settings maps setting name to its JSON value.
	Settings map[string]json.RawMessage `json:"settings,omitempty"`

	// Records maps term to its study record.
	Records map[string]json.RawMessage `json:"records,omitempty"`

	// ClockIn seeds the clock-in accumulation: the day IDs already
	// counted and the current total.
	ClockIn *ClockInExport `json:"clockIn,omitempty"`

	// Entries carries any remaining data verbatim.
	Entries []ExportEntry `json:"entries,omitempty"`
}

// ClockInExport is the exported clock-in state.
type ClockInExport struct {
	IDs   []string `json:"ids"`
	Value float64  `json:"value"`
}

// ExportEntry is a generic exported data entry.
type ExportEntry struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	SyncAt   int64           `json:"syncAt,omitempty"`
	UpdateAt int64           `json:"updateAt,omitempty"`
}

// Importer writes legacy exports into the live stores.
type Importer struct {
	logger     *slog.Logger
	users      storage.UserStore
	entries    storage.EntryStore
	migrations storage.MigrationStore
}

// NewImporter builds an importer.
func NewImporter(logger *slog.Logger, users storage.UserStore, entries storage.EntryStore, migrations storage.MigrationStore) *Importer {
	return &Importer{
		logger:     logger,
		users:      users,
		entries:    entries,
		migrations: migrations,
	}
}

// ImportFile reads an export file and imports every account in it.
// Accounts already finished for the export's source version are
// skipped. It returns the number of accounts imported.
func (i *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read export file: %w", err)
	}

	var export Export
	if err := json.Unmarshal(raw, &export); err != nil {
		return 0, fmt.Errorf("failed to parse export file: %w", err)
	}

	if export.SourceVersion == "" {
		return 0, errors.New("export file has no sourceVersion")
	}

	imported := 0
	for idx := range export.Users {
		user := &export.Users[idx]

		done, err := i.importUser(ctx, export.SourceVersion, user)
		if err != nil {
			return imported, fmt.Errorf("failed to import %q: %w", user.Email, err)
		}
		if done {
			imported++
		}
	}

	return imported, nil
}

// importUser imports one account. It returns false when the account
// was already finished and skipped.
func (i *Importer) importUser(ctx context.Context, sourceVersion string, user *ExportUser) (bool, error) {
	if user.Email == "" {
		return false, errors.New("exported user has no email")
	}

	record, err := i.migrations.GetMigration(ctx, user.Email, sourceVersion)
	switch {
	case err == nil:
		if record.Status == models.MigrationFinished {
			i.logger.Info("import already finished, skipping",
				slog.String("target", user.Email))
			return false, nil
		}
	case errors.Is(err, storage.ErrMigrationNotFound):
		record = &models.MigrationRecord{
			UID:           uuid.New().String(),
			Target:        user.Email,
			SourceVersion: sourceVersion,
		}
	default:
		return false, err
	}

	record.Status = models.MigrationMigrating
	record.StartedAt = time.Now().UnixMilli()
	record.FinishedAt = 0
	if err := i.migrations.PutMigration(ctx, record); err != nil {
		return false, err
	}

	if err := i.importUserData(ctx, user); err != nil {
		record.Status = models.MigrationFailed
		record.FinishedAt = time.Now().UnixMilli()
		if putErr := i.migrations.PutMigration(ctx, record); putErr != nil {
			i.logger.Error("failed to record import failure",
				slog.String("target", user.Email), slog.Any("error", putErr))
		}
		return false, err
	}

	record.Status = models.MigrationFinished
	record.FinishedAt = time.Now().UnixMilli()
	if err := i.migrations.PutMigration(ctx, record); err != nil {
		return false, err
	}

	i.logger.Info("account imported", slog.String("target", user.Email))

	return true, nil
}

func (i *Importer) importUserData(ctx context.Context, user *ExportUser) error {
	userID, err := i.ensureUser(ctx, user)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()

	upsert := func(category, name, entryType string, data json.RawMessage, syncAt, updateAt int64) error {
		if syncAt == 0 {
			syncAt = now
		}
		if updateAt == 0 {
			updateAt = now
		}
		return i.entries.Upsert(ctx, &models.DataEntry{
			Owner:    userID,
			Category: category,
			Name:     name,
			Type:     entryType,
			Data:     data,
			SyncAt:   syncAt,
			UpdateAt: updateAt,
		})
	}

	if user.Nickname != "" {
		data, err := json.Marshal(user.Nickname)
		if err != nil {
			return err
		}
		if err := upsert(categoryUser, nameDisplayName, models.TypeValue, data, 0, 0); err != nil {
			return err
		}
	}

	for name, value := range user.Settings {
		if err := upsert(categorySettings, name, models.TypeValue, value, 0, 0); err != nil {
			return err
		}
	}

	for term, data := range user.Records {
		if err := upsert(categoryRecords, term, models.TypeValue, data, 0, 0); err != nil {
			return err
		}
	}

	if user.ClockIn != nil {
		data, err := json.Marshal(map[string]any{
			"ids":   user.ClockIn.IDs,
			"value": user.ClockIn.Value,
		})
		if err != nil {
			return err
		}
		if err := upsert(categoryStatistics, nameClockInStats, models.TypeAccumulation, data, 0, 0); err != nil {
			return err
		}
	}

	for _, entry := range user.Entries {
		if entry.Category == "" || entry.Name == "" {
			return fmt.Errorf("exported entry missing category or name")
		}
		if err := upsert(entry.Category, entry.Name, entry.Type, entry.Data, entry.SyncAt, entry.UpdateAt); err != nil {
			return err
		}
	}

	return nil
}

// ensureUser creates the target account if absent, reusing the legacy
// bcrypt hash so existing passwords keep working.
func (i *Importer) ensureUser(ctx context.Context, user *ExportUser) (string, error) {
	existing, err := i.users.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return "", err
	}

	created := &models.User{
		ID:           uuid.New().String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Nickname:     user.Nickname,
		CreatedAt:    time.Now(),
	}
	if err := i.users.CreateUser(ctx, created); err != nil {
		return "", err
	}

	return created.ID, nil
}
