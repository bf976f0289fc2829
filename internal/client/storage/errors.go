package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no session is stored.
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrEntryNotFound indicates that the entry does not exist locally.
	ErrEntryNotFound = errors.New("entry not found")
)
