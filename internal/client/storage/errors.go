package storage

import "errors"

// Common client storage errors
var (
	// ErrTokenNotFound indicates that no session token is stored
	ErrTokenNotFound = errors.New("session token not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrUnknownBackend indicates that configured storage backend is not supported
	ErrUnknownBackend = errors.New("unknown storage backend")
)
