package boltdb

import (
	"context"
	"encoding/binary"

	"go.etcd.io/bbolt"
)

var cursorKey = []byte("sync_cursor")

// GetSyncCursor returns the stored server cursor, or 0 before the
// first sync.
func (s *Storage) GetSyncCursor(ctx context.Context) (int64, error) {
	var cursor int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(cursorKey)
		if len(data) == 8 {
			cursor = int64(binary.BigEndian.Uint64(data))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return cursor, nil
}

// SaveSyncCursor stores the server cursor.
func (s *Storage) SaveSyncCursor(ctx context.Context, cursor int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data := make([]byte, 8)
		binary.BigEndian.PutUint64(data, uint64(cursor))
		return tx.Bucket(bucketMeta).Put(cursorKey, data)
	})
}
