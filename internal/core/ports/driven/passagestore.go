package driven

import (
	"context"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// PassageStore persists documents and their passages.
// The store is mutated only by the ingest service; retrieval reads it.
type PassageStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SavePassages stores passages for a document. The slice order is
	// position order; implementations must preserve it.
	SavePassages(ctx context.Context, passages []domain.Passage) error

	// GetPassages retrieves all passages for a document in position order.
	GetPassages(ctx context.Context, documentID string) ([]domain.Passage, error)

	// GetPassage retrieves a specific passage by ID.
	GetPassage(ctx context.Context, id string) (*domain.Passage, error)

	// DeletePassages removes all passages for a document.
	DeletePassages(ctx context.Context, documentID string) error

	// FindByTerms returns passages of active documents containing at
	// least one of the given terms, up to limit. Used as the candidate
	// fetch when no query embedding is available.
	FindByTerms(ctx context.Context, terms []string, limit int) ([]domain.Passage, error)
}
