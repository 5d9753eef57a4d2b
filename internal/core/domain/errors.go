package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search degrades to keyword-only scoring.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Candidate fetch degrades to keyword matching.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRetryable marks a transient external failure. Callers wrap
	// transient embedding-API errors with it so the retry combinator
	// knows the operation may be attempted again.
	ErrRetryable = errors.New("retryable failure")
)
