// Package memory implements storage.TokenStorage in process memory.
// Used when durable storage is unavailable or not wanted (tests, CI, one-off runs).
package memory

import (
	"context"
	"sync"

	"github.com/iudanet/tradedesk/internal/client/storage"
)

// Storage keeps the token in memory; it is lost when the process exits
type Storage struct {
	token string
	mu    sync.RWMutex
}

var _ storage.TokenStorage = (*Storage)(nil)

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{}
}

// SaveToken stores the token
func (s *Storage) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// GetToken returns the token or storage.ErrTokenNotFound
func (s *Storage) GetToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", storage.ErrTokenNotFound
	}
	return s.token, nil
}

// DeleteToken clears the token
func (s *Storage) DeleteToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Close is a no-op, kept so both backends share the same lifecycle
func (s *Storage) Close() error {
	return nil
}
