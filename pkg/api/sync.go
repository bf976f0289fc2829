// Package api holds the wire types shared by server and client.
package api

import "encoding/json"

// UpUpdate is one client-submitted change for a named entry.
type UpUpdate struct {
	Type     string          `json:"type,omitempty"`
	UpdateAt int64           `json:"updateAt"`
	Data     json.RawMessage `json:"data,omitempty"`
	Removed  bool            `json:"removed,omitempty"`
}

// DownUpdate is one server-delivered change: a resolved value or a
// tombstone.
type DownUpdate struct {
	Value   json.RawMessage `json:"value,omitempty"`
	Removed bool            `json:"removed,omitempty"`
}

// SyncRequest is the body of POST /api/v1/sync. SyncAt is the
// client's persisted cursor, Time the client's current clock, both
// Unix milliseconds; pointers distinguish absent fields, which are a
// parameter error. Updates maps category -> name -> change.
type SyncRequest struct {
	SyncAt  *int64                         `json:"syncAt"`
	Time    *int64                         `json:"time"`
	Updates map[string]map[string]UpUpdate `json:"updates"`
}

// SyncResponse carries the new cursor and everything the client has
// not seen, grouped category -> name.
type SyncResponse struct {
	SyncAt  int64                            `json:"syncAt"`
	Updates map[string]map[string]DownUpdate `json:"updates"`
}
