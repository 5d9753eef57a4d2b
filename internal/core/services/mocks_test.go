package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// --- Shared mock implementations for service tests ---

// mockStats implements driven.CorpusStats with fixed values.
type mockStats struct {
	docCount int
	termDF   map[string]int
	avgLen   float64
	err      error
}

func (m *mockStats) DocumentCount(_ context.Context) (int, error) {
	return m.docCount, m.err
}

func (m *mockStats) DocumentFrequency(_ context.Context, term string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.termDF[term], nil
}

func (m *mockStats) AveragePassageLength(_ context.Context) (float64, error) {
	return m.avgLen, m.err
}

// mockEmbedder implements driven.EmbeddingService.
// failures controls how many leading calls fail with the given error.
type mockEmbedder struct {
	mu        sync.Mutex
	vector    []float32
	err       error
	failures  int
	calls     int
	seenTexts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seenTexts = append(m.seenTexts, text)
	if m.err != nil && (m.failures == 0 || m.calls <= m.failures) {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedder) ModelName() string            { return "mock-embedding" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPassageStore implements driven.PassageStore in memory.
type mockPassageStore struct {
	mu        sync.Mutex
	documents map[string]domain.Document
	passages  map[string][]domain.Passage
	saveErr   error
}

func newMockPassageStore() *mockPassageStore {
	return &mockPassageStore{
		documents: make(map[string]domain.Document),
		passages:  make(map[string][]domain.Passage),
	}
}

func (m *mockPassageStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = *doc
	return nil
}

func (m *mockPassageStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockPassageStore) SavePassages(_ context.Context, passages []domain.Passage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if len(passages) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passages[passages[0].DocumentID] = passages
	return nil
}

func (m *mockPassageStore) GetPassages(_ context.Context, documentID string) ([]domain.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passages[documentID], nil
}

func (m *mockPassageStore) GetPassage(_ context.Context, id string) (*domain.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, list := range m.passages {
		for _, p := range list {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPassageStore) DeletePassages(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.passages, documentID)
	return nil
}

func (m *mockPassageStore) FindByTerms(_ context.Context, terms []string, limit int) ([]domain.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Passage
	for docID, list := range m.passages {
		if doc, ok := m.documents[docID]; ok && !doc.Active {
			continue
		}
		for _, p := range list {
			if containsAnyTerm(p.Content, terms) {
				out = append(out, p)
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// mockVectorIndex implements driven.VectorIndex.
type mockVectorIndex struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	hits      []driven.VectorHit
	searchErr error
	deleted   []string
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{vectors: make(map[string][]float32)}
}

func (m *mockVectorIndex) Add(_ context.Context, passageID string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[passageID] = embedding
	return nil
}

func (m *mockVectorIndex) Delete(_ context.Context, passageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, passageID)
	m.deleted = append(m.deleted, passageID)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Close() error { return nil }
