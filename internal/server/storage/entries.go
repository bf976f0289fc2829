package storage

import (
	"context"

	"github.com/wordbase/wordbase/internal/models"
)

// EntryFilter selects data entries. All set fields are ANDed: owner
// in Owners, category in Categories and not in NotCategories, name in
// Names, syncAt strictly greater than *SyncedAfter. Nil/empty fields
// are unconstrained.
type EntryFilter struct {
	Owners        []string
	Categories    []string
	NotCategories []string
	Names         []string
	SyncedAfter   *int64
}

// EntryStore is the persistence surface the sync engine needs: a bulk
// filtered read, an idempotent upsert by key, and single-record
// read-modify-write. There are no cross-record transactions.
type EntryStore interface {
	// Find returns all entries matching any of the filters (filters
	// are ORed together). Order is unspecified.
	Find(ctx context.Context, filters []EntryFilter) ([]*models.DataEntry, error)

	// Upsert creates or fully overwrites the entry at its key.
	Upsert(ctx context.Context, entry *models.DataEntry) error

	// Load fetches a single entry for mutation.
	// Returns ErrEntryNotFound if absent.
	Load(ctx context.Context, key models.EntryKey) (*models.DataEntry, error)

	// Save writes back a previously loaded entry.
	Save(ctx context.Context, entry *models.DataEntry) error
}
