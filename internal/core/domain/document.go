package domain

import "time"

// DocumentMeta holds the legal metadata attached to a document.
// All fields are optional; scoring treats absent fields as neutral.
type DocumentMeta struct {
	// Type is the normative type ("constitucion", "ley", "decreto", ...).
	Type string

	// Number is the official document number ("27.401").
	Number string

	// Institution is the issuing entity class ("corte_suprema", "congreso").
	Institution string

	// Jurisdiction is the territorial scope ("nacional", "provincial").
	Jurisdiction string

	// LegalArea is the branch of law ("constitucional", "penal", ...).
	LegalArea string

	// Title is the human-readable document title.
	Title string

	// PublishedAt is the original publication date.
	PublishedAt *time.Time

	// ReformedAt is the date of the most recent reform, if any.
	ReformedAt *time.Time
}

// Document represents an indexed legal document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, official registry).
	URI string

	// Meta is the legal metadata used for filtering and scoring.
	Meta DocumentMeta

	// Active reports whether the document participates in retrieval.
	// Superseded or withdrawn documents are kept but deactivated.
	Active bool

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// EffectiveDate returns the most recent of the publication and reform
// dates, or nil when neither is known. Recency scoring uses this.
func (d *Document) EffectiveDate() *time.Time {
	if d.Meta.ReformedAt != nil {
		if d.Meta.PublishedAt == nil || d.Meta.ReformedAt.After(*d.Meta.PublishedAt) {
			return d.Meta.ReformedAt
		}
	}
	return d.Meta.PublishedAt
}

// Passage is a bounded slice of a document's text, the unit of
// embedding and retrieval. A document's passages form a contiguous
// sequence of positions starting at 0.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the 0-based ordinal within the document.
	Position int

	// Content is the raw passage text (at most the configured chunk size).
	Content string

	// Embedding is the vector representation. A nil embedding is valid:
	// the passage remains searchable through keyword scoring only.
	Embedding []float32

	// CreatedAt is when the passage was created.
	CreatedAt time.Time
}

// Snapshot is one point-in-time extraction of a document's full text.
// Snapshots are superseded by the next extraction, never mutated.
type Snapshot struct {
	// DocumentID identifies the document this snapshot belongs to.
	DocumentID string

	// Text is the full extracted text.
	Text string

	// Digest is the SHA-256 hex digest of the normalised text.
	Digest string

	// Meta is the metadata captured at extraction time.
	Meta *DocumentMeta

	// Version counts extractions, starting at 1.
	Version int

	// ExtractedAt is when this extraction happened.
	ExtractedAt time.Time
}

// IngestResult summarises one ingestion of a document.
type IngestResult struct {
	// Passages are the created passages in position order.
	Passages []Passage

	// TotalChunks is the number of passages created.
	TotalChunks int

	// EmbeddingsGenerated counts passages that received an embedding.
	EmbeddingsGenerated int

	// EmbeddingsFailed counts passages whose embedding failed after retries.
	EmbeddingsFailed int

	// Success is true only when zero embedding failures occurred.
	Success bool
}
