package storage

import "errors"

var (
	// ErrEntryNotFound is returned when a data entry does not exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUserAlreadyExists is returned when registering a taken email.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenNotFound is returned when a refresh token does not exist
	// or has expired.
	ErrTokenNotFound = errors.New("token not found")

	// ErrFileNotFound is returned when a stored file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrVersionNotFound is returned when no app version is published
	// for a platform.
	ErrVersionNotFound = errors.New("app version not found")

	// ErrMigrationNotFound is returned when no migration record exists
	// for a target.
	ErrMigrationNotFound = errors.New("migration record not found")
)
