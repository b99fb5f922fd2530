// Package memory provides a process-local snapshot store. Payloads are kept
// in their encoded form so a loaded snapshot never aliases the saved one.
package memory

import (
	"context"
	"sync"

	"github.com/JonMunkholm/harris/internal/core"
)

var _ core.SnapshotStore = (*Store)(nil)

// Store keeps the latest snapshot in memory.
type Store struct {
	mu      sync.RWMutex
	buckets map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the last saved snapshot.
func (s *Store) Load(context.Context) (core.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.buckets == nil {
		return core.Snapshot{}, false, nil
	}
	snap, err := core.DecodeBuckets(s.buckets)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	buckets, err := core.EncodeBuckets(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.buckets = buckets
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
