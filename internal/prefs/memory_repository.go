package prefs

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and single-process deployments.
type InMemoryRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		values: make(map[string][]byte),
	}
}

// Get retrieves the payload stored under key.
func (r *InMemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Set stores the payload under key.
func (r *InMemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	r.values[key] = copied
	return nil
}

// Delete removes the payload stored under key.
func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
