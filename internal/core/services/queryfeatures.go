package services

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
	"github.com/custodia-labs/lexsearch/internal/logger"
	"github.com/custodia-labs/lexsearch/internal/retry"
)

// minTermLength is the minimum term length in runes.
const minTermLength = 3

// maxPhrases caps the number of phrase candidates per query.
const maxPhrases = 5

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// spanishStopwords are high-frequency words excluded from query terms.
var spanishStopwords = map[string]bool{
	"que": true, "los": true, "las": true, "del": true, "con": true,
	"para": true, "por": true, "una": true, "uno": true, "unos": true,
	"como": true, "más": true, "mas": true, "sus": true, "este": true,
	"esta": true, "estos": true, "sobre": true, "entre": true,
	"cuando": true, "donde": true, "cual": true, "cuál": true,
	"qué": true, "son": true, "fue": true, "ser": true, "está": true,
	"han": true, "hay": true, "sin": true, "nos": true, "les": true,
}

// documentTypeHints maps query tokens to canonical document types.
var documentTypeHints = map[string]string{
	"constitución": "constitucion", "constitucion": "constitucion",
	"ley": "ley", "leyes": "ley",
	"decreto": "decreto", "decretos": "decreto",
	"resolución": "resolucion", "resolucion": "resolucion", "resoluciones": "resolucion",
	"código": "codigo", "codigo": "codigo", "códigos": "codigo",
	"ordenanza": "ordenanza", "ordenanzas": "ordenanza",
}

// jurisdictionHints maps query tokens to canonical jurisdictions.
var jurisdictionHints = map[string]string{
	"nacional": "nacional", "federal": "nacional",
	"provincial": "provincial", "provinciales": "provincial",
	"municipal": "municipal", "municipales": "municipal",
}

// legalAreaHints maps query tokens to canonical legal areas.
var legalAreaHints = map[string]string{
	"constitucional": "constitucional",
	"penal":          "penal",
	"civil":          "civil",
	"laboral":        "laboral",
	"tributario":     "tributario", "impositivo": "tributario",
	"administrativo": "administrativo",
	"comercial":      "comercial",
	"ambiental":      "ambiental",
}

// QueryFeatureService turns a raw query string into terms, phrases,
// IDF weights, an optional embedding and metadata hints.
type QueryFeatureService struct {
	stats    driven.CorpusStats
	embedder driven.EmbeddingService
	policy   retry.Policy
}

// NewQueryFeatureService creates a feature extractor. Both stats and
// embedder are optional; extraction always yields at least raw terms.
func NewQueryFeatureService(
	stats driven.CorpusStats, embedder driven.EmbeddingService, policy retry.Policy,
) *QueryFeatureService {
	return &QueryFeatureService{
		stats:    stats,
		embedder: embedder,
		policy:   policy,
	}
}

// Extract derives all query features for one retrieval call.
// Embedding failures are tolerated: the result simply carries a nil
// embedding and retrieval falls back to keyword-only scoring.
func (s *QueryFeatureService) Extract(ctx context.Context, query string) domain.QueryFeatures {
	features := domain.QueryFeatures{Original: query}

	tokens := tokenize(query)
	features.Terms = keepTerms(tokens)
	features.Phrases = buildPhrases(features.Terms)
	features.Hints = inferHints(tokens, query)
	features.IDF = s.termIDF(ctx, features.Terms)
	features.Embedding = s.embedQuery(ctx, query)

	logger.Debug("Query features: %d terms, %d phrases, embedding=%t",
		len(features.Terms), len(features.Phrases), features.Embedding != nil)

	return features
}

// termIDF looks up the inverse document frequency for every term using
// the BM25 idf formula. Missing statistics yield an empty map.
func (s *QueryFeatureService) termIDF(ctx context.Context, terms []string) map[string]float64 {
	if s.stats == nil || len(terms) == 0 {
		return nil
	}

	total, err := s.stats.DocumentCount(ctx)
	if err != nil || total == 0 {
		logger.Debug("Corpus statistics unavailable: %v", err)
		return nil
	}

	idf := make(map[string]float64, len(terms))
	for _, term := range terms {
		df, err := s.stats.DocumentFrequency(ctx, term)
		if err != nil {
			logger.Debug("Document frequency lookup %q failed: %v", term, err)
			continue
		}
		idf[term] = math.Log(1 + (float64(total)-float64(df)+0.5)/(float64(df)+0.5))
	}
	return idf
}

// embedQuery requests a query embedding with bounded retry.
// Returns nil when embedding is unavailable or fails after retries.
func (s *QueryFeatureService) embedQuery(ctx context.Context, query string) []float32 {
	if s.embedder == nil || strings.TrimSpace(query) == "" {
		return nil
	}

	var embedding []float32
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return err
		}
		embedding = vec
		return nil
	})
	if err != nil {
		logger.Warn("Query embedding failed after retries: %v (keyword-only fallback)", err)
		return nil
	}
	return embedding
}

// tokenize splits a query into lowercased word tokens, keeping accented
// letters together.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// keepTerms filters tokens down to deduplicated terms of at least
// minTermLength runes, excluding stopwords.
func keepTerms(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < minTermLength || spanishStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return terms
}

// buildPhrases forms adjacent-term pairs as phrase candidates.
func buildPhrases(terms []string) []string {
	if len(terms) < 2 {
		return nil
	}
	phrases := make([]string, 0, len(terms)-1)
	for i := 0; i+1 < len(terms) && len(phrases) < maxPhrases; i++ {
		phrases = append(phrases, terms[i]+" "+terms[i+1])
	}
	return phrases
}

// inferHints derives coarse metadata constraints from keyword patterns
// and explicit years.
func inferHints(tokens []string, query string) domain.MetadataHints {
	hints := domain.MetadataHints{}

	appendUnique := func(dst []string, v string) []string {
		for _, existing := range dst {
			if existing == v {
				return dst
			}
		}
		return append(dst, v)
	}

	for _, tok := range tokens {
		if v, ok := documentTypeHints[tok]; ok {
			hints.DocumentTypes = appendUnique(hints.DocumentTypes, v)
		}
		if v, ok := jurisdictionHints[tok]; ok {
			hints.Jurisdictions = appendUnique(hints.Jurisdictions, v)
		}
		if v, ok := legalAreaHints[tok]; ok {
			hints.LegalAreas = appendUnique(hints.LegalAreas, v)
		}
	}

	if years := yearPattern.FindAllString(query, -1); len(years) > 0 {
		minYear, maxYear := years[0], years[0]
		for _, y := range years[1:] {
			if y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
		from, errFrom := time.Parse("2006", minYear)
		to, errTo := time.Parse("2006", maxYear)
		if errFrom == nil && errTo == nil {
			hints.DateRange = &domain.DateRange{
				From: from,
				To:   to.AddDate(1, 0, 0).Add(-time.Nanosecond),
			}
		}
	}

	return hints
}
