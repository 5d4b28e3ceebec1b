package blobstore

import (
	"context"
	"sync"
)

// MemoryStore keeps blobs in process memory. Used in tests and as a
// throwaway backend when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.blobs[key]
	if !ok {
		return nil, KeyNotFoundError{Key: key}
	}

	cp := make([]byte, len(value))
	copy(cp, value)

	return cp, nil
}

func (store *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)

	store.blobs[key] = cp

	return nil
}

func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.blobs, key)

	return nil
}
