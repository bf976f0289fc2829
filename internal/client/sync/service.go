// Package sync pushes local edits to the server and folds the server's
// answer back into the local store.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wordbase/wordbase/internal/client/storage"
	"github.com/wordbase/wordbase/pkg/api"
)

// APIClient is the server surface the service needs.
type APIClient interface {
	Sync(ctx context.Context, accessToken string, req api.SyncRequest) (*api.SyncResponse, error)
}

// Result summarizes one sync run.
type Result struct {
	Pushed int
	Pulled int
	SyncAt int64
}

// Service synchronizes the local store with the server.
type Service struct {
	client  APIClient
	entries storage.EntryStorage
	meta    storage.MetadataStorage
	logger  *slog.Logger
}

// NewService builds a sync service.
func NewService(client APIClient, entries storage.EntryStorage, meta storage.MetadataStorage, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		entries: entries,
		meta:    meta,
		logger:  logger,
	}
}

// Sync pushes every dirty entry and pending accumulation change, then
// applies the server's down-set. The server reconciles conflicts, so
// whatever comes back is authoritative.
func (s *Service) Sync(ctx context.Context, accessToken string) (*Result, error) {
	cursor, err := s.meta.GetSyncCursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync cursor: %w", err)
	}

	local, err := s.entries.ListEntries(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list local entries: %w", err)
	}

	updates := make(map[string]map[string]api.UpUpdate)
	pushed := 0

	for _, entry := range local {
		up, ok := upUpdate(entry)
		if !ok {
			continue
		}

		byName := updates[entry.Category]
		if byName == nil {
			byName = make(map[string]api.UpUpdate)
			updates[entry.Category] = byName
		}
		byName[entry.Name] = up
		pushed++
	}

	now := time.Now().UnixMilli()
	resp, err := s.client.Sync(ctx, accessToken, api.SyncRequest{
		SyncAt:  &cursor,
		Time:    &now,
		Updates: updates,
	})
	if err != nil {
		return nil, err
	}

	pulled := 0
	for category, byName := range resp.Updates {
		for name, down := range byName {
			if err := s.applyDown(ctx, category, name, down); err != nil {
				return nil, fmt.Errorf("failed to apply %s/%s: %w", category, name, err)
			}
			pulled++
		}
	}

	// The server accepted the push; entries it did not echo back are
	// settled as-is.
	for category, byName := range updates {
		for name := range byName {
			if _, echoed := resp.Updates[category][name]; echoed {
				continue
			}
			if err := s.markClean(ctx, category, name); err != nil {
				return nil, fmt.Errorf("failed to settle %s/%s: %w", category, name, err)
			}
		}
	}

	if err := s.meta.SaveSyncCursor(ctx, resp.SyncAt); err != nil {
		return nil, fmt.Errorf("failed to save sync cursor: %w", err)
	}

	s.logger.Info("sync completed",
		slog.Int("pushed", pushed),
		slog.Int("pulled", pulled),
		slog.Int64("sync_at", resp.SyncAt))

	return &Result{Pushed: pushed, Pulled: pulled, SyncAt: resp.SyncAt}, nil
}

// PendingCount returns the number of entries with unsent changes.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	local, err := s.entries.ListEntries(ctx, "")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range local {
		if entry.Dirty || len(entry.Pending) > 0 {
			count++
		}
	}
	return count, nil
}

// upUpdate converts a local entry into its wire form. Accumulation
// entries send their pending changes, value entries their whole value.
func upUpdate(entry *storage.Entry) (api.UpUpdate, bool) {
	if len(entry.Pending) > 0 {
		data, err := json.Marshal(entry.Pending)
		if err != nil {
			return api.UpUpdate{}, false
		}
		return api.UpUpdate{
			Type:     entry.Type,
			UpdateAt: entry.UpdateAt,
			Data:     data,
		}, true
	}

	if !entry.Dirty {
		return api.UpUpdate{}, false
	}

	return api.UpUpdate{
		Type:     entry.Type,
		UpdateAt: entry.UpdateAt,
		Data:     entry.Value,
		Removed:  entry.Removed,
	}, true
}

func (s *Service) applyDown(ctx context.Context, category, name string, down api.DownUpdate) error {
	if down.Removed {
		return s.entries.DeleteEntry(ctx, category, name)
	}

	entry, err := s.entries.GetEntry(ctx, category, name)
	if err != nil {
		entry = &storage.Entry{Category: category, Name: name}
	}

	entry.Value = down.Value
	entry.Removed = false
	entry.Dirty = false
	entry.Pending = nil

	return s.entries.PutEntry(ctx, entry)
}

func (s *Service) markClean(ctx context.Context, category, name string) error {
	entry, err := s.entries.GetEntry(ctx, category, name)
	if err != nil {
		return nil
	}

	if entry.Removed {
		// The server has the tombstone now; the local copy can go.
		return s.entries.DeleteEntry(ctx, category, name)
	}

	entry.Dirty = false
	entry.Pending = nil
	return s.entries.PutEntry(ctx, entry)
}
