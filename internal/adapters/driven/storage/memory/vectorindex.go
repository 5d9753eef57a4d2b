package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory cosine similarity index.
// Suitable for small corpora and tests.
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		vectors: make(map[string][]float32),
	}
}

// Add inserts a vector for the given passage ID.
func (v *VectorIndex) Add(_ context.Context, passageID string, embedding []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors[passageID] = append([]float32(nil), embedding...)
	return nil
}

// Delete removes a vector from the index.
func (v *VectorIndex) Delete(_ context.Context, passageID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.vectors, passageID)
	return nil
}

// Search scans every stored vector and returns the k most similar.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(v.vectors))
	for id, vec := range v.vectors {
		sim := cosineSimilarity(query, vec)
		hits = append(hits, driven.VectorHit{PassageID: id, Similarity: sim})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped at 0 so scores stay in [0,1]. Mismatched dimensions or zero
// vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	return cos
}
