package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/payflow/internal/orders/ports"
)

// Store keeps idempotency responses in process memory. Replayed responses do
// not survive a restart, matching the default in-memory order store.
type Store struct {
	mu        sync.RWMutex
	responses map[string]ports.StoredResponse
}

// NewStore creates a new in-memory idempotency store.
func NewStore() *Store {
	return &Store{responses: make(map[string]ports.StoredResponse)}
}

// Get returns the stored response for a given key if present.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	response, ok := s.responses[key]
	if !ok {
		return nil, nil
	}
	snapshot := response
	snapshot.Body = append([]byte(nil), response.Body...)
	return &snapshot, nil
}

// Save stores or overwrites the response for a key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key] = response
	return nil
}
