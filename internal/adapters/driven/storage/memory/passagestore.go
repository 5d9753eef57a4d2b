package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// Ensure PassageStore implements the interfaces.
var (
	_ driven.PassageStore = (*PassageStore)(nil)
	_ driven.CorpusStats  = (*PassageStore)(nil)
)

// PassageStore is an in-memory implementation of driven.PassageStore.
// It doubles as the corpus statistics source, computed over the stored
// passages on demand.
type PassageStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	passages  map[string][]domain.Passage
}

// NewPassageStore creates a new in-memory passage store.
func NewPassageStore() *PassageStore {
	return &PassageStore{
		documents: make(map[string]domain.Document),
		passages:  make(map[string][]domain.Passage),
	}
}

// SaveDocument stores or updates a document.
func (s *PassageStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *PassageStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SavePassages stores the passages of one document, replacing any
// previous set.
func (s *PassageStore) SavePassages(_ context.Context, passages []domain.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := append([]domain.Passage(nil), passages...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	s.passages[sorted[0].DocumentID] = sorted
	return nil
}

// GetPassages retrieves all passages of a document in position order.
func (s *PassageStore) GetPassages(_ context.Context, documentID string) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Passage(nil), s.passages[documentID]...), nil
}

// GetPassage retrieves a specific passage by ID.
func (s *PassageStore) GetPassage(_ context.Context, id string) (*domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, passages := range s.passages {
		for _, p := range passages {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeletePassages removes all passages of a document.
func (s *PassageStore) DeletePassages(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passages, documentID)
	return nil
}

// FindByTerms returns up to limit passages of active documents whose
// content contains at least one of the terms.
func (s *PassageStore) FindByTerms(_ context.Context, terms []string, limit int) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Passage
	for docID, passages := range s.passages {
		if doc, ok := s.documents[docID]; ok && !doc.Active {
			continue
		}
		for _, p := range passages {
			if !matchesAnyTerm(p.Content, terms) {
				continue
			}
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// DocumentCount returns the number of stored documents.
func (s *PassageStore) DocumentCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// DocumentFrequency returns the number of documents containing the term.
func (s *PassageStore) DocumentFrequency(_ context.Context, term string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)
	count := 0
	for _, passages := range s.passages {
		for _, p := range passages {
			if strings.Contains(strings.ToLower(p.Content), term) {
				count++
				break
			}
		}
	}
	return count, nil
}

// AveragePassageLength returns the mean passage length in characters.
func (s *PassageStore) AveragePassageLength(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	count := 0
	for _, passages := range s.passages {
		for _, p := range passages {
			total += len([]rune(p.Content))
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(total) / float64(count), nil
}

func matchesAnyTerm(content string, terms []string) bool {
	contentLower := strings.ToLower(content)
	for _, term := range terms {
		if strings.Contains(contentLower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
