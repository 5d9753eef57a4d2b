package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
// It keeps only the latest snapshot per document.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]domain.Snapshot),
	}
}

// Get retrieves the latest snapshot of a document.
func (s *SnapshotStore) Get(_ context.Context, documentID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

// Put stores a snapshot, superseding the previous one.
func (s *SnapshotStore) Put(_ context.Context, snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.DocumentID] = *snapshot
	return nil
}

// Delete removes the snapshot of a document.
func (s *SnapshotStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, documentID)
	return nil
}
