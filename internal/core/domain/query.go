package domain

// MetadataHints are coarse filter hints inferred from query keywords.
type MetadataHints struct {
	// DocumentTypes are normative types mentioned in the query.
	DocumentTypes []string

	// Jurisdictions are territorial scopes mentioned in the query.
	Jurisdictions []string

	// LegalAreas are branches of law mentioned in the query.
	LegalAreas []string

	// DateRange covers explicit years found in the query.
	DateRange *DateRange
}

// QueryFeatures is everything derived from one query string. It lives
// for the duration of a single retrieval call and is never persisted.
type QueryFeatures struct {
	// Original is the raw query as received.
	Original string

	// Terms are the lowercased tokens of at least 3 characters.
	Terms []string

	// Phrases are adjacent-term pairs, useful for exact-phrase boosts.
	Phrases []string

	// IDF maps each term to its inverse document frequency.
	// Empty when no corpus statistics were available.
	IDF map[string]float64

	// Embedding is the query vector, nil when embedding failed or was
	// unavailable. Retrieval falls back to keyword-only scoring then.
	Embedding []float32

	// Hints are metadata constraints inferred from keyword patterns.
	Hints MetadataHints
}
