// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per passage.
const DefaultChunkSize = 1000

// Processor splits document text into fixed-size passages.
// With the default zero overlap, concatenating the passages of a
// document reconstructs its text exactly and positions form the
// contiguous range 0..ceil(len/size)-1.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the passage size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between passages in characters.
// Overlap breaks the exact-reconstruction property; it defaults to 0.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// ChunkSize returns the configured passage size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Split cuts text into passages for the given document.
// Sizes are measured in characters (runes), not bytes, so accented
// text never splits mid-rune. Empty text produces no passages.
func (p *Processor) Split(documentID, text string) []domain.Passage {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	step := p.chunkSize - p.overlap
	estimated := total/step + 1
	passages := make([]domain.Passage, 0, estimated)

	now := time.Now().UTC()
	position := 0

	for start := 0; start < total; start += step {
		end := start + p.chunkSize
		if end > total {
			end = total
		}

		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Position:   position,
			Content:    string(runes[start:end]),
			CreatedAt:  now,
		})
		position++
	}

	return passages
}
