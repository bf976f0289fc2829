package storage

import (
	"context"
	"encoding/json"
)

// Entry is one locally stored record. Dirty marks value entries edited
// since the last successful sync. Pending carries unsent accumulation
// changes; each gets its own ID and is never mutated afterwards, so a
// change the server already applied is skipped on resend while later
// ones still land.
type Entry struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	UpdateAt int64           `json:"updateAt"`
	Removed  bool            `json:"removed,omitempty"`
	Dirty    bool            `json:"dirty,omitempty"`
	Pending  []PendingChange `json:"pending,omitempty"`
}

// PendingChange is one accumulation change queued for the next sync.
// Once created it is immutable; its ID makes server-side application
// idempotent.
type PendingChange struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// EntryStorage is the local entry store.
type EntryStorage interface {
	// PutEntry creates or overwrites the entry.
	PutEntry(ctx context.Context, entry *Entry) error

	// GetEntry returns ErrEntryNotFound if absent.
	GetEntry(ctx context.Context, category, name string) (*Entry, error)

	// ListEntries returns all entries, optionally restricted to one
	// category when category is non-empty. Tombstones are included.
	ListEntries(ctx context.Context, category string) ([]*Entry, error)

	// DeleteEntry removes the entry outright (used when the server
	// confirms a deletion). Local deletions go through PutEntry with
	// Removed set so they still propagate.
	DeleteEntry(ctx context.Context, category, name string) error
}

// MetadataStorage keeps sync bookkeeping.
type MetadataStorage interface {
	// GetSyncCursor returns 0 when no sync has completed yet.
	GetSyncCursor(ctx context.Context) (int64, error)

	// SaveSyncCursor stores the server cursor after a sync.
	SaveSyncCursor(ctx context.Context, cursor int64) error
}
