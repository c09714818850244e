package auth

import (
	"context"
	"sync"
)

// MemoryStore provides an in-memory implementation of the CredentialStore
// interface. Sessions backed by it do not survive a restart; it exists for
// tests and throwaway runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

// Get returns the value of a named entry, or the empty string when absent.
func (s *MemoryStore) Get(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[name], nil
}

// Set stores or replaces a named entry.
func (s *MemoryStore) Set(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = value
	return nil
}

// Delete removes a named entry.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	return nil
}
