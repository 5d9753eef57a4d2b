package driving

import (
	"context"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// Ingestor splits document text into passages and embeds them.
type Ingestor interface {
	// Ingest chunks text, embeds every passage with bounded retry and
	// persists the result. Embedding failures never drop passages:
	// the result reports partial failure counts instead.
	//
	// Re-ingestion of the same document replaces its prior passage set
	// and is serialised per document ID.
	Ingest(ctx context.Context, documentID, text string) (*domain.IngestResult, error)
}
