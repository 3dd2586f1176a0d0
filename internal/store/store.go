// Package store holds the single published snapshot behind an atomic
// pointer. The coordinator is the only writer and serializes itself, so the
// swap needs no lock; readers always observe a whole snapshot.
package store

import (
	"sync/atomic"

	"WorkflowRadar/internal/domain"
)

// SnapshotStore owns exactly one live snapshot at a time.
type SnapshotStore struct {
	current atomic.Pointer[domain.Snapshot]
}

// New starts with an empty snapshot so readers never see nil.
func New() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(domain.EmptySnapshot())
	return s
}

// Load returns the currently published snapshot.
func (s *SnapshotStore) Load() *domain.Snapshot {
	return s.current.Load()
}

// Swap installs the next snapshot in one atomic replacement. The previous
// generation is simply dropped; there is no history.
func (s *SnapshotStore) Swap(next *domain.Snapshot) {
	s.current.Store(next)
}
