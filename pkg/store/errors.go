package store

import "errors"

// Common errors returned by the store.
var (
	// ErrSessionNotFound is returned by read operations when a
	// session id is not present. Mutations on missing ids are
	// silent no-ops instead.
	ErrSessionNotFound = errors.New("session not found")

	// ErrPersist is returned when the in-memory mutation succeeded
	// but writing the collection to durable storage failed. The
	// mutation stands; the caller decides whether to warn or retry.
	ErrPersist = errors.New("failed to persist sessions")

	// ErrStorageClosed is returned when the storage backend has
	// been closed.
	ErrStorageClosed = errors.New("storage is closed")
)
