package blob

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Upload stores data under its content address.
func (s *MemoryStore) Upload(_ context.Context, data []byte) (string, error) {
	ref := Ref(data)

	s.mu.Lock()
	if _, ok := s.blobs[ref]; !ok {
		s.blobs[ref] = append([]byte(nil), data...)
	}
	s.mu.Unlock()

	return ref, nil
}

// Download returns a copy of the stored bytes.
func (s *MemoryStore) Download(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blobs[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Ref: ref}
	}
	return append([]byte(nil), data...), nil
}

// Delete removes a reference; absence is not an error.
func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
	return nil
}
