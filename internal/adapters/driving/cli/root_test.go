package cli

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/lexsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/services"
)

// mockSearchService returns a fixed result page.
type mockSearchService struct {
	page *domain.ResultPage
	err  error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.ResultPage, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

// mockIngestor records ingested documents.
type mockIngestor struct {
	mu    sync.Mutex
	docs  []string
	texts map[string]string
	err   error
}

func (m *mockIngestor) Ingest(_ context.Context, documentID, text string) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.docs = append(m.docs, documentID)
	if m.texts == nil {
		m.texts = make(map[string]string)
	}
	m.texts[documentID] = text
	return &domain.IngestResult{
		TotalChunks:         2,
		EmbeddingsGenerated: 2,
		Success:             true,
	}, nil
}

func samplePage() *domain.ResultPage {
	published := time.Date(2017, 11, 8, 0, 0, 0, 0, time.UTC)
	return &domain.ResultPage{
		Results: []domain.SearchResult{
			{
				Passage: domain.Passage{
					ID:         "ley-27401-p0",
					DocumentID: "ley-27401",
					Position:   0,
					Content:    "Responsabilidad penal de las personas juridicas privadas.",
				},
				Document: domain.Document{
					ID:     "ley-27401",
					Active: true,
					Meta: domain.DocumentMeta{
						Type:        "ley",
						Number:      "27.401",
						Title:       "Ley de Responsabilidad Penal Empresaria",
						PublishedAt: &published,
					},
				},
				Score:       0.87,
				Explanation: "strong keyword match",
			},
		},
		TotalCount: 1,
		Query: domain.QueryInfo{
			Original: "responsabilidad penal",
			Expanded: []string{"responsabilidad", "penal"},
		},
		Pagination: domain.Pagination{Limit: 10, Total: 1},
	}
}

// setupTestServices swaps the package services for mocks and returns a
// cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldSearch := searchService
	oldIngest := ingestService
	oldDetect := changeDetector
	oldConfig := configStore

	searchService = &mockSearchService{page: samplePage()}
	ingestService = &mockIngestor{}
	changeDetector = services.NewChangeService(memory.NewSnapshotStore())
	configStore = memory.NewConfigStore()

	return func() {
		searchService = oldSearch
		ingestService = oldIngest
		changeDetector = oldDetect
		configStore = oldConfig
	}
}
