package driving

import (
	"context"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// SearchService is the retrieval façade: query in, ranked page out.
type SearchService interface {
	// Search extracts query features, builds filters, fetches
	// similarity candidates, scores and ranks them, and returns one
	// page of results plus the applied query interpretation.
	//
	// When the query embedding is unavailable the service falls back to
	// keyword-only scoring instead of failing the request.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.ResultPage, error)
}
