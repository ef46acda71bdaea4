package token

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. Remembered sessions do
// not survive a restart; it exists for tests and for running the portal
// without a state directory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the remembered token, or "" when none is stored.
func (s *MemoryStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Set replaces the remembered token.
func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear forgets the remembered token.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
