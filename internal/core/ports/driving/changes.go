package driving

import (
	"context"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// BatchItem is one document extraction submitted for batch change detection.
type BatchItem struct {
	// DocumentID identifies the document.
	DocumentID string

	// Text is the freshly extracted full text.
	Text string

	// Meta is the metadata captured at extraction time.
	Meta *domain.DocumentMeta
}

// ChangeDetector classifies fresh extractions against stored snapshots.
type ChangeDetector interface {
	// Detect compares a fresh extraction against the previous snapshot.
	// A nil previous snapshot yields a "created" classification; the
	// detector never fails on malformed input.
	Detect(ctx context.Context, documentID, text string, meta *domain.DocumentMeta, previous *domain.Snapshot) domain.ChangeResult

	// Hash computes the content digest of normalised text.
	Hash(text string) string

	// Validate reports whether text matches the expected digest.
	Validate(text, digest string) bool

	// Diff computes line-level diff statistics between two texts.
	Diff(oldText, newText string) domain.DiffStats

	// DetectBatch processes many extractions, looking up previous
	// snapshots in the snapshot store. Individual failures never abort
	// the batch.
	DetectBatch(ctx context.Context, items []BatchItem) []domain.ChangeResult

	// Summarize aggregates a slice of change results.
	Summarize(results []domain.ChangeResult) domain.ChangeSummary
}
