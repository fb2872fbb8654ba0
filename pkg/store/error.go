package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when inserting a record that would
	// violate a uniqueness constraint (one profile per user).
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConnection is returned when the storage backend connection fails.
	ErrConnection = errors.New("store connection failed")
)
