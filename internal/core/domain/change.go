package domain

// ChangeKind classifies the outcome of change detection for one document.
type ChangeKind string

const (
	// ChangeCreated means no previous snapshot existed.
	ChangeCreated ChangeKind = "created"

	// ChangeUnchanged means the content digest matched the previous snapshot.
	ChangeUnchanged ChangeKind = "unchanged"

	// ChangeUpdated means the content digest differed from the previous snapshot.
	ChangeUpdated ChangeKind = "updated"
)

// ChangeResult is the outcome of comparing a fresh extraction against
// the previous snapshot of the same document.
type ChangeResult struct {
	// DocumentID identifies the document that was checked.
	DocumentID string

	// Kind is the classification (created, unchanged, updated).
	Kind ChangeKind

	// PreviousDigest is the digest of the prior snapshot, empty for created.
	PreviousDigest string

	// CurrentDigest is the digest of the fresh extraction.
	CurrentDigest string

	// Similarity is the word-set similarity between the two texts in [0,1].
	// 1.0 for unchanged, strictly below 1.0 for updated.
	Similarity float64

	// SizeDelta is the character-count difference (current minus previous).
	SizeDelta int

	// Version is the extraction version, previous version + 1 for updates.
	Version int

	// MetadataChanged reports whether any key metadata field differed.
	MetadataChanged bool

	// TitleChanged reports whether the normalised titles differed.
	TitleChanged bool

	// SignificantChange is true for created documents, and for updates
	// with similarity below the significance threshold or with metadata
	// or title changes.
	SignificantChange bool
}

// DiffStats summarises a line-level diff between two texts.
type DiffStats struct {
	// LinesAdded counts lines present only in the new text.
	LinesAdded int

	// LinesRemoved counts lines present only in the old text.
	LinesRemoved int

	// LinesModified counts line pairs treated as edits.
	LinesModified int

	// PercentChanged is the changed-line share over the larger text, 0-100.
	PercentChanged float64
}

// ChangeSummary aggregates a batch of change results.
type ChangeSummary struct {
	// Created, Unchanged and Updated count results per classification.
	Created   int
	Unchanged int
	Updated   int

	// Significant counts results flagged as significant changes.
	Significant int

	// AverageSimilarity is the mean similarity across all results.
	AverageSimilarity float64
}
