package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.SearchService = (*RetrievalService)(nil)

// candidateFactor oversizes the candidate fetch relative to the page so
// filtering and per-document deduplication still fill the page.
const candidateFactor = 4

// RetrievalService is the retrieval orchestrator. One Search call runs
// the full pipeline: feature extraction, filter building, candidate
// fetch, scoring, ranking and pagination.
type RetrievalService struct {
	passages driven.PassageStore
	vectors  driven.VectorIndex
	stats    driven.CorpusStats
	features *QueryFeatureService
	filters  *FilterService
	scorer   *RelevanceScorer
	now      func() time.Time
}

// NewRetrievalService creates the orchestrator. The vector index is
// optional; without it every search is keyword-only.
func NewRetrievalService(
	passages driven.PassageStore,
	vectors driven.VectorIndex,
	stats driven.CorpusStats,
	features *QueryFeatureService,
	filters *FilterService,
) *RetrievalService {
	return &RetrievalService{
		passages: passages,
		vectors:  vectors,
		stats:    stats,
		features: features,
		filters:  filters,
		scorer:   NewRelevanceScorer(),
		now:      time.Now,
	}
}

// Search runs the retrieval pipeline for one query.
//
// An unavailable query embedding never fails the request: scoring
// drops the semantic component and redistributes its weight over the
// remaining signals, and the response reports KeywordOnly.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.ResultPage, error) {
	started := s.now()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidInput
	}

	logger.Section("Retrieval")
	features := s.features.Extract(ctx, query)
	filters := s.buildFilters(features, opts)

	for _, hint := range s.filters.Suggest(filters) {
		logger.Debug("Filter hint: %s", hint)
	}

	keywordOnly := features.Embedding == nil
	candidates, err := s.fetchCandidates(ctx, features, filters)
	if errors.Is(err, domain.ErrVectorIndexUnavailable) {
		keywordOnly = true
		candidates, err = s.keywordCandidates(ctx, features, filters)
	}
	if err != nil {
		return nil, err
	}

	weights := domain.DefaultScoringWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	if keywordOnly {
		weights = weights.WithoutSemantic()
	}

	sc := ScoreContext{
		Features:     features,
		Weights:      weights,
		PreferRecent: opts.PreferRecent,
		Now:          s.now(),
	}
	if s.stats != nil {
		if avg, err := s.stats.AveragePassageLength(ctx); err == nil {
			sc.AvgPassageLength = avg
		}
	}

	results := s.scoreCandidates(ctx, candidates, filters, sc)

	sortResults(results)
	results = dedupeByDocument(results)

	total := len(results)
	page := paginate(results, filters.Offset, filters.Limit)

	elapsed := s.now().Sub(started)
	logger.Info("Search %q: %d candidates, %d results, keyword-only=%t, %dms",
		query, len(candidates), total, keywordOnly, elapsed.Milliseconds())

	return &domain.ResultPage{
		Results:    page,
		TotalCount: total,
		Query: domain.QueryInfo{
			Original: query,
			Expanded: append(append([]string(nil), features.Terms...), features.Phrases...),
		},
		Pagination: domain.Pagination{
			Limit:   filters.Limit,
			Offset:  filters.Offset,
			Total:   total,
			HasMore: filters.Offset+len(page) < total,
		},
		ProcessingTimeMs: elapsed.Milliseconds(),
		KeywordOnly:      keywordOnly,
	}, nil
}

// buildFilters merges the inferred, caller-supplied and intent-derived
// filter sets and normalises the result.
func (s *RetrievalService) buildFilters(
	features domain.QueryFeatures, opts domain.SearchOptions,
) domain.Filters {
	sets := []domain.Filters{s.filters.FromHints(features.Hints)}
	if opts.Filters != nil {
		sets = append(sets, *opts.Filters)
	}
	sets = append(sets, s.filters.FromIntent(opts.Intent))
	sets = append(sets, domain.Filters{Limit: opts.Limit, Offset: opts.Offset})

	return s.filters.Optimize(s.filters.Combine(sets...))
}

// candidate pairs a passage with its vector similarity. Keyword-sourced
// candidates carry zero similarity.
type candidate struct {
	passage    domain.Passage
	similarity float64
}

// fetchCandidates returns the raw candidate set: the union of vector
// hits and keyword matches when a query embedding exists, keyword
// matches alone otherwise. Returns ErrVectorIndexUnavailable when the
// embedding cannot be used for lack of an index.
func (s *RetrievalService) fetchCandidates(
	ctx context.Context, features domain.QueryFeatures, filters domain.Filters,
) ([]candidate, error) {
	if features.Embedding == nil {
		return s.keywordCandidates(ctx, features, filters)
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	k := candidateFactor * (filters.Limit + filters.Offset)
	hits, err := s.vectors.Search(ctx, features.Embedding, k)
	if err != nil {
		logger.Warn("Vector search failed: %v (keyword fallback)", err)
		return s.keywordCandidates(ctx, features, filters)
	}

	candidates := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		passage, err := s.passages.GetPassage(ctx, hit.PassageID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Passage lookup %s failed: %v", hit.PassageID, err)
			}
			continue
		}
		candidates = append(candidates, candidate{passage: *passage, similarity: hit.Similarity})
	}

	// Passages stored without an embedding never appear in vector
	// hits; keyword matches keep them reachable.
	keyword, err := s.keywordCandidates(ctx, features, filters)
	if err != nil {
		logger.Warn("Keyword candidate fetch failed: %v", err)
		return candidates, nil
	}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.passage.ID] = true
	}
	for _, c := range keyword {
		if !seen[c.passage.ID] {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// keywordCandidates fetches passages containing at least one query term.
func (s *RetrievalService) keywordCandidates(
	ctx context.Context, features domain.QueryFeatures, filters domain.Filters,
) ([]candidate, error) {
	terms := features.Terms
	if len(terms) == 0 {
		return nil, nil
	}

	limit := candidateFactor * (filters.Limit + filters.Offset)
	passages, err := s.passages.FindByTerms(ctx, terms, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(passages))
	for _, p := range passages {
		candidates = append(candidates, candidate{passage: p})
	}
	return candidates, nil
}

// scoreCandidates resolves each candidate's document, applies the
// structured filters and scores the survivors.
func (s *RetrievalService) scoreCandidates(
	ctx context.Context, candidates []candidate, filters domain.Filters, sc ScoreContext,
) []domain.SearchResult {
	docs := make(map[string]*domain.Document, len(candidates))
	results := make([]domain.SearchResult, 0, len(candidates))

	for _, c := range candidates {
		doc, ok := docs[c.passage.DocumentID]
		if !ok {
			fetched, err := s.passages.GetDocument(ctx, c.passage.DocumentID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.Warn("Document lookup %s failed: %v", c.passage.DocumentID, err)
				}
				docs[c.passage.DocumentID] = nil
				continue
			}
			doc = fetched
			docs[c.passage.DocumentID] = doc
		}
		if doc == nil || !matchesFilters(c.passage, doc, filters) {
			continue
		}

		score, components, explanation := s.scorer.Score(c.passage, doc, c.similarity, sc)
		if score < filters.MinRelevance {
			continue
		}

		results = append(results, domain.SearchResult{
			Passage:     c.passage,
			Document:    *doc,
			Score:       score,
			Components:  components,
			Explanation: explanation,
		})
	}

	return results
}

// matchesFilters applies the structured filters to one candidate.
// Filter fields without a corresponding metadata field pass through.
func matchesFilters(passage domain.Passage, doc *domain.Document, f domain.Filters) bool {
	// Deactivated documents only surface when repealed ones are asked for.
	if f.State == domain.DocumentStateRepealed {
		if doc.Active {
			return false
		}
	} else if !doc.Active {
		return false
	}

	if len(f.DocumentTypes) > 0 && !containsFold(f.DocumentTypes, doc.Meta.Type) {
		return false
	}
	if len(f.Jurisdictions) > 0 && !containsFold(f.Jurisdictions, doc.Meta.Jurisdiction) {
		return false
	}
	if len(f.GeographicScopes) > 0 && !containsFold(f.GeographicScopes, doc.Meta.Jurisdiction) {
		return false
	}
	if len(f.Institutions) > 0 && !containsFold(f.Institutions, doc.Meta.Institution) {
		return false
	}
	if len(f.Topics) > 0 && !containsFold(f.Topics, doc.Meta.LegalArea) {
		return false
	}
	if f.Dates != nil {
		date := doc.EffectiveDate()
		if date == nil || !f.Dates.Contains(*date) {
			return false
		}
	}
	if len(f.Keywords) > 0 && !containsAnyTerm(passage.Content, f.Keywords) {
		return false
	}

	return true
}

// sortResults orders by score descending; ties break towards the more
// recently created passage, then the earlier position in its document.
func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Passage.CreatedAt.Equal(b.Passage.CreatedAt) {
			return a.Passage.CreatedAt.After(b.Passage.CreatedAt)
		}
		return a.Passage.Position < b.Passage.Position
	})
}

// dedupeByDocument keeps only the best-ranked passage per document.
func dedupeByDocument(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if seen[r.Passage.DocumentID] {
			continue
		}
		seen[r.Passage.DocumentID] = true
		out = append(out, r)
	}
	return out
}

// paginate slices one page out of the ranked results.
func paginate(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// containsAnyTerm reports whether content contains at least one of the
// terms, case-insensitively.
func containsAnyTerm(content string, terms []string) bool {
	contentLower := strings.ToLower(content)
	for _, term := range terms {
		if strings.Contains(contentLower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
