package repositories

import (
	"context"
	"sync"
)

// MemoryCredentialRepository implements [CredentialStore] in process memory. Values do not survive a restart.
type MemoryCredentialRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{values: make(map[string]string)}
}

func (r *MemoryCredentialRepository) Name() string { return "memory" }

func (r *MemoryCredentialRepository) Save(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *MemoryCredentialRepository) Load(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	return value, ok, nil
}

func (r *MemoryCredentialRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
