package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

const entryColumns = "owner, category, name, type, data, sync_at, update_at, removed"

// buildFilterClause compiles one EntryFilter into a SQL condition.
func buildFilterClause(f storage.EntryFilter, args *[]any) string {
	var conds []string

	in := func(column string, values []string) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			*args = append(*args, v)
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}

	if len(f.Owners) > 0 {
		in("owner", f.Owners)
	}
	if len(f.Categories) > 0 {
		in("category", f.Categories)
	}
	if len(f.NotCategories) > 0 {
		placeholders := make([]string, len(f.NotCategories))
		for i, v := range f.NotCategories {
			placeholders[i] = "?"
			*args = append(*args, v)
		}
		conds = append(conds, fmt.Sprintf("category NOT IN (%s)", strings.Join(placeholders, ", ")))
	}
	if len(f.Names) > 0 {
		in("name", f.Names)
	}
	if f.SyncedAfter != nil {
		conds = append(conds, "sync_at > ?")
		*args = append(*args, *f.SyncedAfter)
	}

	if len(conds) == 0 {
		return "1=1"
	}
	return "(" + strings.Join(conds, " AND ") + ")"
}

// Find returns all entries matching any of the filters.
func (s *Storage) Find(ctx context.Context, filters []storage.EntryFilter) ([]*models.DataEntry, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	var args []any
	clauses := make([]string, len(filters))
	for i, f := range filters {
		clauses[i] = buildFilterClause(f, &args)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM data_entries WHERE %s",
		entryColumns, strings.Join(clauses, " OR "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DataEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}

// Upsert creates or fully overwrites the entry at its key.
func (s *Storage) Upsert(ctx context.Context, entry *models.DataEntry) error {
	query := `
		INSERT INTO data_entries (owner, category, name, type, data, sync_at, update_at, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, category, name) DO UPDATE SET
			type = excluded.type,
			data = excluded.data,
			sync_at = excluded.sync_at,
			update_at = excluded.update_at,
			removed = excluded.removed
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.Owner,
		entry.Category,
		entry.Name,
		entry.Type,
		dataToSQL(entry.Data),
		entry.SyncAt,
		entry.UpdateAt,
		boolToInt(entry.Removed),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}

// Load fetches a single entry for mutation.
func (s *Storage) Load(ctx context.Context, key models.EntryKey) (*models.DataEntry, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM data_entries WHERE owner = ? AND category = ? AND name = ?",
		entryColumns,
	)

	row := s.db.QueryRowContext(ctx, query, key.Owner, key.Category, key.Name)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// Save writes back a previously loaded entry.
func (s *Storage) Save(ctx context.Context, entry *models.DataEntry) error {
	query := `
		UPDATE data_entries
		SET type = ?, data = ?, sync_at = ?, update_at = ?, removed = ?
		WHERE owner = ? AND category = ? AND name = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		entry.Type,
		dataToSQL(entry.Data),
		entry.SyncAt,
		entry.UpdateAt,
		boolToInt(entry.Removed),
		entry.Owner,
		entry.Category,
		entry.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected == 0 {
		return storage.ErrEntryNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.DataEntry, error) {
	entry := &models.DataEntry{}
	var data sql.NullString
	var removed int

	err := row.Scan(
		&entry.Owner,
		&entry.Category,
		&entry.Name,
		&entry.Type,
		&data,
		&entry.SyncAt,
		&entry.UpdateAt,
		&removed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	if data.Valid {
		entry.Data = json.RawMessage(data.String)
	}
	entry.Removed = intToBool(removed)

	return entry, nil
}

func dataToSQL(data json.RawMessage) any {
	if data == nil {
		return nil
	}
	return string(data)
}
