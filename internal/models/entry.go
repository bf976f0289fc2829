package models

import "encoding/json"

// GlobalOwner is the sentinel owner of entries shared across all users.
const GlobalOwner = "global"

// Built-in entry type names. An empty type on the wire or in storage
// means TypeValue.
const (
	TypeValue        = "value"
	TypeAccumulation = "accumulation"
)

// EntryKey identifies a single synchronized record.
type EntryKey struct {
	Owner    string
	Category string
	Name     string
}

// DataEntry is the unit of synchronized state.
//
// SyncAt is the server timestamp of the last write and serves as the
// sync cursor; UpdateAt is the calibrated logical time of the last
// semantic update and drives conflict ordering. Both are Unix
// milliseconds. A removed entry keeps its row as a tombstone with Data
// cleared so the deletion itself propagates to other clients.
type DataEntry struct {
	Owner    string          `json:"owner"`
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	SyncAt   int64           `json:"syncAt"`
	UpdateAt int64           `json:"updateAt"`
	Removed  bool            `json:"removed,omitempty"`
}

// Key returns the entry's storage key.
func (e *DataEntry) Key() EntryKey {
	return EntryKey{Owner: e.Owner, Category: e.Category, Name: e.Name}
}

// NewHeadEntry builds a per-owner head record for a shared name in a
// passive category: metadata only, no payload, logical time zero so
// any real content is considered newer.
func NewHeadEntry(owner, category, name string, now int64) *DataEntry {
	return &DataEntry{
		Owner:    owner,
		Category: category,
		Name:     name,
		SyncAt:   now,
		UpdateAt: 0,
	}
}
