package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/logger"
	"github.com/custodia-labs/lexsearch/internal/postprocessors/chunker"
	"github.com/custodia-labs/lexsearch/internal/retry"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultEmbedWorkers bounds concurrent embedding requests per ingestion.
const DefaultEmbedWorkers = 4

// IngestService splits documents into passages and embeds them with
// bounded concurrency and bounded retry. Embedding failures degrade to
// passages without embeddings; the corpus never silently loses text
// because of an external outage.
type IngestService struct {
	passages driven.PassageStore
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	chunker  *chunker.Processor
	policy   retry.Policy
	limiter  *rate.Limiter
	workers  int

	// Per-document locks serialise re-ingestion of the same document.
	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithChunker sets the chunking processor.
func WithChunker(c *chunker.Processor) IngestOption {
	return func(s *IngestService) {
		if c != nil {
			s.chunker = c
		}
	}
}

// WithRetryPolicy sets the embedding retry policy.
func WithRetryPolicy(p retry.Policy) IngestOption {
	return func(s *IngestService) {
		s.policy = p
	}
}

// WithEmbedWorkers bounds the embedding worker pool.
func WithEmbedWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit throttles embedding requests to n per second.
func WithRateLimit(perSecond float64) IngestOption {
	return func(s *IngestService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIngestService creates an ingest service. The vector index and
// embedding service are optional; without them passages are persisted
// for keyword-only retrieval.
func NewIngestService(
	passages driven.PassageStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		passages: passages,
		vectors:  vectors,
		embedder: embedder,
		chunker:  chunker.New(),
		policy:   retry.DefaultPolicy(),
		limiter:  rate.NewLimiter(rate.Inf, 0),
		workers:  DefaultEmbedWorkers,
		docLocks: make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest chunks text, embeds each passage and persists the result.
//
// Re-ingestion replaces the prior passage set: the old passages are
// deleted synchronously up front, and embedding plus recreation happen
// afterwards with no store transaction held across the network calls.
func (s *IngestService) Ingest(ctx context.Context, documentID, text string) (*domain.IngestResult, error) {
	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Ingestion")
	logger.Debug("Document %s: %d characters", documentID, len(text))

	passages := s.chunker.Split(documentID, text)
	logger.Debug("Document %s: %d passages at chunk size %d",
		documentID, len(passages), s.chunker.ChunkSize())

	if err := s.replacePriorPassages(ctx, documentID); err != nil {
		return nil, err
	}
	if err := s.upsertDocument(ctx, documentID); err != nil {
		return nil, err
	}

	failed := s.embedAll(ctx, passages)

	if err := s.passages.SavePassages(ctx, passages); err != nil {
		return nil, fmt.Errorf("save passages: %w", err)
	}

	if s.vectors != nil {
		for _, p := range passages {
			if p.Embedding == nil {
				continue
			}
			if err := s.vectors.Add(ctx, p.ID, p.Embedding); err != nil {
				logger.Warn("Vector index add %s failed: %v", p.ID, err)
			}
		}
	}

	generated := 0
	for _, p := range passages {
		if p.Embedding != nil {
			generated++
		}
	}

	result := &domain.IngestResult{
		Passages:            passages,
		TotalChunks:         len(passages),
		EmbeddingsGenerated: generated,
		EmbeddingsFailed:    failed,
		Success:             failed == 0,
	}

	ratio := 1.0
	if result.TotalChunks > 0 {
		ratio = float64(result.EmbeddingsGenerated) / float64(result.TotalChunks)
	}
	logger.Info("Ingested %s: %d passages, %d embedded (%.0f%%), success=%t",
		documentID, result.TotalChunks, result.EmbeddingsGenerated, ratio*100, result.Success)

	return result, nil
}

// replacePriorPassages deletes the previous passage set and its vector
// entries. This runs before any embedding call so no long-lived
// transaction spans the external API.
func (s *IngestService) replacePriorPassages(ctx context.Context, documentID string) error {
	old, err := s.passages.GetPassages(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Prior passage lookup %s failed: %v", documentID, err)
	}

	if err := s.passages.DeletePassages(ctx, documentID); err != nil {
		return fmt.Errorf("delete prior passages: %w", err)
	}

	if s.vectors != nil {
		for _, p := range old {
			if err := s.vectors.Delete(ctx, p.ID); err != nil {
				logger.Warn("Vector index delete %s failed: %v", p.ID, err)
			}
		}
	}

	return nil
}

// upsertDocument creates the document record on first ingestion and
// refreshes its update timestamp afterwards.
func (s *IngestService) upsertDocument(ctx context.Context, documentID string) error {
	now := time.Now().UTC()

	doc, err := s.passages.GetDocument(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		doc = &domain.Document{ID: documentID, Active: true, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("get document: %w", err)
	}
	doc.UpdatedAt = now

	if err := s.passages.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// embedAll fills in passage embeddings using a bounded worker pool and
// returns the number of passages whose embedding failed after retries.
// Each goroutine writes a distinct slice element, so only the failure
// counter needs a lock.
func (s *IngestService) embedAll(ctx context.Context, passages []domain.Passage) int {
	if s.embedder == nil || len(passages) == 0 {
		if s.embedder == nil && len(passages) > 0 {
			logger.Info("No embedding service configured; passages stored for keyword-only retrieval")
		}
		return 0
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i := range passages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.limiter.Wait(ctx); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			var vec []float32
			err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
				v, err := s.embedder.Embed(ctx, passages[i].Content)
				if err != nil {
					return err
				}
				vec = v
				return nil
			})
			if err != nil {
				logger.Warn("Embedding passage %d failed after retries: %v (persisting without embedding)",
					passages[i].Position, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			passages[i].Embedding = vec
		}(i)
	}

	wg.Wait()
	return failed
}

func (s *IngestService) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[documentID] = lock
	}
	return lock
}
