package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/wordbase/wordbase/internal/client/storage"
)

// entryKey builds the bucket key for a category/name pair. The NUL
// separator cannot occur in either part.
func entryKey(category, name string) []byte {
	return []byte(category + "\x00" + name)
}

// PutEntry creates or overwrites the entry.
func (s *Storage) PutEntry(ctx context.Context, entry *storage.Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		return tx.Bucket(bucketEntries).Put(entryKey(entry.Category, entry.Name), data)
	})
}

// GetEntry fetches one entry.
func (s *Storage) GetEntry(ctx context.Context, category, name string) (*storage.Entry, error) {
	var entry *storage.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntries).Get(entryKey(category, name))
		if data == nil {
			return storage.ErrEntryNotFound
		}

		entry = &storage.Entry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListEntries returns all entries, restricted to category when it is
// non-empty.
func (s *Storage) ListEntries(ctx context.Context, category string) ([]*storage.Entry, error) {
	var entries []*storage.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()

		var prefix []byte
		if category != "" {
			prefix = []byte(category + "\x00")
		}

		k, v := c.First()
		if prefix != nil {
			k, v = c.Seek(prefix)
		}

		for ; k != nil; k, v = c.Next() {
			if prefix != nil && !bytes.HasPrefix(k, prefix) {
				break
			}

			entry := &storage.Entry{}
			if err := json.Unmarshal(v, entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}
			entries = append(entries, entry)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteEntry removes the entry outright.
func (s *Storage) DeleteEntry(ctx context.Context, category, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete(entryKey(category, name))
	})
}
