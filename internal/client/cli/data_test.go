package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbase/wordbase/internal/client/storage/boltdb"
)

func runCommand(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd("test")
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append([]string{"--db", dbPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "client.db")
}

func TestSetAndGet(t *testing.T) {
	db := testDBPath(t)

	out, err := runCommand(t, db, "set", "records", "apple", `{"w":true}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved records/apple")

	out, err = runCommand(t, db, "get", "records", "apple")
	require.NoError(t, err)
	assert.JSONEq(t, `{"w":true}`, out)
}

func TestSetPlainString(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "set", "settings", "pronunciation", "us")
	require.NoError(t, err)

	out, err := runCommand(t, db, "get", "settings", "pronunciation")
	require.NoError(t, err)
	assert.JSONEq(t, `"us"`, out)
}

func TestGetMissing(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "get", "records", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListFiltersAndMarksDirty(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "set", "records", "apple", `1`)
	require.NoError(t, err)
	_, err = runCommand(t, db, "set", "settings", "audio", `"on"`)
	require.NoError(t, err)

	out, err := runCommand(t, db, "list", "records")
	require.NoError(t, err)
	assert.Contains(t, out, "records/apple")
	assert.NotContains(t, out, "settings/audio")
	// Unsynced entries are flagged.
	assert.Contains(t, out, "* records/apple")

	out, err = runCommand(t, db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "records/apple")
	assert.Contains(t, out, "settings/audio")
}

func TestDeleteLeavesTombstone(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "set", "records", "apple", `1`)
	require.NoError(t, err)

	out, err := runCommand(t, db, "delete", "records", "apple")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted records/apple")

	_, err = runCommand(t, db, "get", "records", "apple")
	require.Error(t, err)

	// The tombstone survives locally until the next sync.
	store, err := boltdb.New(context.Background(), db)
	require.NoError(t, err)
	defer store.Close()

	entry, err := store.GetEntry(context.Background(), "records", "apple")
	require.NoError(t, err)
	assert.True(t, entry.Removed)
	assert.True(t, entry.Dirty)
}

func TestDeleteMissing(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "delete", "records", "nope")
	require.Error(t, err)
}

func TestBumpAccumulates(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "bump", "statistics", "clock-in-stats")
	require.NoError(t, err)
	_, err = runCommand(t, db, "bump", "statistics", "clock-in-stats", "2")
	require.NoError(t, err)

	store, err := boltdb.New(context.Background(), db)
	require.NoError(t, err)
	defer store.Close()

	entry, err := store.GetEntry(context.Background(), "statistics", "clock-in-stats")
	require.NoError(t, err)
	// Each bump queues its own change; a resent change the server has
	// already applied is skipped without losing the ones after it.
	require.Len(t, entry.Pending, 2)
	assert.InDelta(t, 1.0, entry.Pending[0].Value, 0)
	assert.InDelta(t, 2.0, entry.Pending[1].Value, 0)
	assert.NotEmpty(t, entry.Pending[0].ID)
	assert.NotEmpty(t, entry.Pending[1].ID)
	assert.NotEqual(t, entry.Pending[0].ID, entry.Pending[1].ID)
	assert.Equal(t, "accumulation", entry.Type)
}

func TestBumpInvalidAmount(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "bump", "statistics", "clock-in-stats", "abc")
	require.Error(t, err)
}

func TestStatusWithoutSession(t *testing.T) {
	db := testDBPath(t)

	_, err := runCommand(t, db, "set", "records", "apple", `1`)
	require.NoError(t, err)

	out, err := runCommand(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
	assert.Contains(t, out, "Last sync: never")
	assert.Contains(t, out, "1 pending sync")
}
