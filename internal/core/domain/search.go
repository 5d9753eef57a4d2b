package domain

// SearchOptions configures one retrieval call.
type SearchOptions struct {
	// Limit is the maximum number of results per page.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Filters are caller-supplied constraints, merged with the
	// constraints inferred from the query.
	Filters *Filters

	// Intent tunes filter defaults (limit, minimum relevance).
	Intent Intent

	// PreferRecent steepens the recency decay.
	PreferRecent bool

	// Weights overrides the default scoring weights when non-nil.
	Weights *ScoringWeights
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	// Passage is the matched passage.
	Passage Passage

	// Document is the passage's source document.
	Document Document

	// Score is the combined relevance score.
	Score float64

	// Components is the per-signal score breakdown.
	Components ComponentScores

	// Explanation is a short human-readable account of the score.
	Explanation string
}

// QueryInfo describes how the query was interpreted.
type QueryInfo struct {
	// Original is the query as received.
	Original string

	// Expanded lists the terms and phrases actually matched against.
	Expanded []string
}

// Pagination describes the returned page.
type Pagination struct {
	Limit   int
	Offset  int
	Total   int
	HasMore bool
}

// ResultPage is the full response of one retrieval call.
type ResultPage struct {
	// Results is the ranked, paginated result slice.
	Results []SearchResult

	// TotalCount is the number of results before pagination.
	TotalCount int

	// Query is the applied query interpretation.
	Query QueryInfo

	// Pagination is the page metadata.
	Pagination Pagination

	// ProcessingTimeMs is the elapsed wall-clock time in milliseconds.
	ProcessingTimeMs int64

	// KeywordOnly reports that semantic scoring was skipped because the
	// query embedding was unavailable.
	KeywordOnly bool
}
