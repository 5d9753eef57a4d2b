package driven

import (
	"context"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// SnapshotStore persists the latest extraction snapshot per document.
// The change detector receives it at construction; lifecycle (init and
// teardown) belongs to the caller, never to a hidden singleton.
type SnapshotStore interface {
	// Get retrieves the latest snapshot for a document.
	// Returns domain.ErrNotFound when no snapshot exists.
	Get(ctx context.Context, documentID string) (*domain.Snapshot, error)

	// Put stores a snapshot, superseding the previous one.
	Put(ctx context.Context, snapshot *domain.Snapshot) error

	// Delete removes the snapshot for a document.
	Delete(ctx context.Context, documentID string) error
}
