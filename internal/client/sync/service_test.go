package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbase/wordbase/internal/client/storage"
	"github.com/wordbase/wordbase/pkg/api"
)

type entryKey struct {
	category, name string
}

type fakeStore struct {
	entries map[entryKey]*storage.Entry
	cursor  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[entryKey]*storage.Entry)}
}

func (s *fakeStore) PutEntry(_ context.Context, entry *storage.Entry) error {
	clone := *entry
	s.entries[entryKey{entry.Category, entry.Name}] = &clone
	return nil
}

func (s *fakeStore) GetEntry(_ context.Context, category, name string) (*storage.Entry, error) {
	e, ok := s.entries[entryKey{category, name}]
	if !ok {
		return nil, storage.ErrEntryNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *fakeStore) ListEntries(_ context.Context, category string) ([]*storage.Entry, error) {
	var out []*storage.Entry
	for _, e := range s.entries {
		if category != "" && e.Category != category {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, category, name string) error {
	delete(s.entries, entryKey{category, name})
	return nil
}

func (s *fakeStore) GetSyncCursor(_ context.Context) (int64, error) {
	return s.cursor, nil
}

func (s *fakeStore) SaveSyncCursor(_ context.Context, cursor int64) error {
	s.cursor = cursor
	return nil
}

type fakeAPI struct {
	lastReq *api.SyncRequest
	resp    *api.SyncResponse
	err     error
}

func (f *fakeAPI) Sync(_ context.Context, _ string, req api.SyncRequest) (*api.SyncResponse, error) {
	f.lastReq = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncPushesDirtyEntries(t *testing.T) {
	store := newFakeStore()
	store.cursor = 50

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records",
		Name:     "apple",
		Value:    json.RawMessage(`{"w":true}`),
		UpdateAt: 100,
		Dirty:    true,
	}))
	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records",
		Name:     "banana",
		Value:    json.RawMessage(`{"w":false}`),
		UpdateAt: 90,
	}))

	client := &fakeAPI{resp: &api.SyncResponse{SyncAt: 200}}
	svc := NewService(client, store, store, testLogger())

	result, err := svc.Sync(t.Context(), "token")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)
	assert.Zero(t, result.Pulled)
	assert.Equal(t, int64(200), result.SyncAt)

	require.NotNil(t, client.lastReq)
	assert.Equal(t, int64(50), *client.lastReq.SyncAt)
	require.Contains(t, client.lastReq.Updates, "records")
	assert.Contains(t, client.lastReq.Updates["records"], "apple")
	// Clean entries stay local.
	assert.NotContains(t, client.lastReq.Updates["records"], "banana")

	// The pushed entry is settled.
	entry, err := store.GetEntry(t.Context(), "records", "apple")
	require.NoError(t, err)
	assert.False(t, entry.Dirty)

	cursor, err := store.GetSyncCursor(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(200), cursor)
}

func TestSyncPushesPendingAccumulation(t *testing.T) {
	store := newFakeStore()

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "statistics",
		Name:     "clock-in-stats",
		Type:     "accumulation",
		Pending:  []storage.PendingChange{{ID: "c1", Value: 1}},
	}))

	merged := json.RawMessage(`{"ids":["c1"],"value":1}`)
	client := &fakeAPI{resp: &api.SyncResponse{
		SyncAt: 300,
		Updates: map[string]map[string]api.DownUpdate{
			"statistics": {"clock-in-stats": {Value: merged}},
		},
	}}
	svc := NewService(client, store, store, testLogger())

	result, err := svc.Sync(t.Context(), "token")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 1, result.Pulled)

	up := client.lastReq.Updates["statistics"]["clock-in-stats"]
	assert.JSONEq(t, `[{"id":"c1","value":1}]`, string(up.Data))

	// The echoed merge replaces the pending change.
	entry, err := store.GetEntry(t.Context(), "statistics", "clock-in-stats")
	require.NoError(t, err)
	assert.Nil(t, entry.Pending)
	assert.JSONEq(t, string(merged), string(entry.Value))
}

func TestSyncAppliesDownSet(t *testing.T) {
	store := newFakeStore()

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records",
		Name:     "old",
		Value:    json.RawMessage(`{"w":true}`),
	}))

	client := &fakeAPI{resp: &api.SyncResponse{
		SyncAt: 400,
		Updates: map[string]map[string]api.DownUpdate{
			"records": {
				"fresh": {Value: json.RawMessage(`{"w":false}`)},
				"old":   {Removed: true},
			},
		},
	}}
	svc := NewService(client, store, store, testLogger())

	result, err := svc.Sync(t.Context(), "token")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pulled)

	entry, err := store.GetEntry(t.Context(), "records", "fresh")
	require.NoError(t, err)
	assert.JSONEq(t, `{"w":false}`, string(entry.Value))
	assert.False(t, entry.Dirty)

	_, err = store.GetEntry(t.Context(), "records", "old")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)
}

func TestSyncSettlesLocalDeletion(t *testing.T) {
	store := newFakeStore()

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records",
		Name:     "gone",
		Removed:  true,
		Dirty:    true,
		UpdateAt: 100,
	}))

	client := &fakeAPI{resp: &api.SyncResponse{SyncAt: 500}}
	svc := NewService(client, store, store, testLogger())

	_, err := svc.Sync(t.Context(), "token")
	require.NoError(t, err)

	up := client.lastReq.Updates["records"]["gone"]
	assert.True(t, up.Removed)

	// Once the server holds the tombstone the local row disappears.
	_, err = store.GetEntry(t.Context(), "records", "gone")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)
}

// accumServer applies accumulation changes with id-dedup like the
// server does, optionally dropping the response after applying.
type accumServer struct {
	total        float64
	seen         map[string]bool
	dropResponse bool
}

func (f *accumServer) Sync(_ context.Context, _ string, req api.SyncRequest) (*api.SyncResponse, error) {
	for _, byName := range req.Updates {
		for _, up := range byName {
			var changes []storage.PendingChange
			if err := json.Unmarshal(up.Data, &changes); err != nil {
				return nil, err
			}
			for _, c := range changes {
				if f.seen[c.ID] {
					continue
				}
				f.seen[c.ID] = true
				f.total += c.Value
			}
		}
	}
	if f.dropResponse {
		return nil, errors.New("connection reset")
	}
	return &api.SyncResponse{SyncAt: 1000}, nil
}

func TestSyncRetryAfterLostResponse(t *testing.T) {
	store := newFakeStore()
	server := &accumServer{seen: make(map[string]bool), dropResponse: true}
	svc := NewService(server, store, store, testLogger())

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "statistics",
		Name:     "clock-in-stats",
		Type:     "accumulation",
		Pending:  []storage.PendingChange{{ID: "c1", Value: 3}},
	}))

	// The server applies the change but the response never arrives.
	_, err := svc.Sync(t.Context(), "token")
	require.Error(t, err)

	entry, err := store.GetEntry(t.Context(), "statistics", "clock-in-stats")
	require.NoError(t, err)
	require.Len(t, entry.Pending, 1)

	// A new addition queued before the retry must keep its own ID.
	entry.Pending = append(entry.Pending, storage.PendingChange{ID: "c2", Value: 2})
	require.NoError(t, store.PutEntry(t.Context(), entry))

	server.dropResponse = false
	_, err = svc.Sync(t.Context(), "token")
	require.NoError(t, err)

	// c1 is deduplicated, c2 still lands.
	assert.InDelta(t, 5.0, server.total, 0)

	entry, err = store.GetEntry(t.Context(), "statistics", "clock-in-stats")
	require.NoError(t, err)
	assert.Empty(t, entry.Pending)
}

func TestSyncFailureKeepsState(t *testing.T) {
	store := newFakeStore()
	store.cursor = 50

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records",
		Name:     "apple",
		Value:    json.RawMessage(`{"w":true}`),
		Dirty:    true,
	}))

	client := &fakeAPI{err: errors.New("network down")}
	svc := NewService(client, store, store, testLogger())

	_, err := svc.Sync(t.Context(), "token")
	require.Error(t, err)

	entry, err := store.GetEntry(t.Context(), "records", "apple")
	require.NoError(t, err)
	assert.True(t, entry.Dirty)

	cursor, err := store.GetSyncCursor(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(50), cursor)
}

func TestPendingCount(t *testing.T) {
	store := newFakeStore()

	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records", Name: "a", Dirty: true,
	}))
	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "records", Name: "b",
	}))
	require.NoError(t, store.PutEntry(t.Context(), &storage.Entry{
		Category: "statistics", Name: "c",
		Pending: []storage.PendingChange{{ID: "x", Value: 1}},
	}))

	svc := NewService(&fakeAPI{}, store, store, testLogger())

	count, err := svc.PendingCount(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
