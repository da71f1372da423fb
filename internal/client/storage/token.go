package storage

import (
	"context"
)

//go:generate moq -out token_mock.go . TokenStorage

// TokenStorage defines interface for persisting the session token on client.
// This is the lowest storage layer - it keeps the raw token string as-is,
// under a single well-known key, and doesn't interpret it.
type TokenStorage interface {
	// SaveToken stores the raw token, replacing any previous one
	SaveToken(ctx context.Context, token string) error

	// GetToken retrieves the stored token
	// Returns ErrTokenNotFound if no token exists
	GetToken(ctx context.Context) (string, error)

	// DeleteToken removes the stored token (logout)
	// Deleting a missing token is not an error
	DeleteToken(ctx context.Context) error
}
