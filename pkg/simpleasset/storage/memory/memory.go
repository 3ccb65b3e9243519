// Package memory provides an in-memory blob store, primarily for tests and
// development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Store is an in-memory implementation of the simpleasset.BlobStore interface
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory blob store
func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
	}
}

// ReadFileToBuffer reads the full object under key into memory
func (s *Store) ReadFileToBuffer(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", simpleasset.ErrObjectNotFound, key)
	}

	// Return a copy to prevent external modifications
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// WriteFileFromBuffer writes data under key and returns the stored key
func (s *Store) WriteFileFromBuffer(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return key, nil
}

// WriteFileIfAbsent atomically writes data under key only if no object exists
// there yet, reporting whether the write happened. The ingestion core does not
// use this; it exists so callers (and tests) can detect the
// check-then-write race inherent in unsynchronized name resolution.
func (s *Store) WriteFileIfAbsent(ctx context.Context, key string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; exists {
		return false, nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return true, nil
}

// FileExists reports whether an object exists under key
func (s *Store) FileExists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.objects[key]
	return exists, nil
}

// Delete removes the object under key, if any
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return fmt.Errorf("%w: %s", simpleasset.ErrObjectNotFound, key)
	}
	delete(s.objects, key)
	return nil
}

// Len reports the number of stored objects
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
