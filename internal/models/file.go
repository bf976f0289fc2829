package models

import "time"

// StoredFile is an uploaded binary blob (avatars). Blobs live in the
// database next to the entries; they are small and served by ID.
type StoredFile struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
