package driven

import "context"

// CorpusStats supplies corpus-wide statistics for IDF and BM25.
// The core consumes these numbers; it does not own the statistics store.
type CorpusStats interface {
	// DocumentCount returns the number of active documents.
	DocumentCount(ctx context.Context) (int, error)

	// DocumentFrequency returns the number of documents containing term.
	DocumentFrequency(ctx context.Context, term string) (int, error)

	// AveragePassageLength returns the mean passage length in characters.
	AveragePassageLength(ctx context.Context) (float64, error)
}
