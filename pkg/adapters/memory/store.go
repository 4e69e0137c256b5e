// Package memory provides in-memory adapters, useful for tests and for
// workflows that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/calyptra/flume/pkg/ports"
	"github.com/calyptra/flume/pkg/schema"
)

// Store implements ports.SnapshotStore in memory. Unlike the durable
// adapters it never serializes, so channel values keep their exact Go
// types across a save/load round trip. Safe for concurrent use.
type Store struct {
	data map[string]*schema.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory snapshot store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*schema.Snapshot),
	}
}

// Save persists a deep copy of the snapshot, so later mutation of the
// caller's copy cannot leak into the store.
func (s *Store) Save(ctx context.Context, key string, snap *schema.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = snap.Clone()
	return nil
}

// Load retrieves the snapshot. Each call hands out a fresh copy.
func (s *Store) Load(ctx context.Context, key string) (*schema.Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ports.ErrSnapshotNotFound)
	}
	return snap.Clone(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*Store)(nil)
