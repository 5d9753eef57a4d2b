package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// BM25 parameters: k1 controls term-frequency saturation, b controls
// passage-length normalisation.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Recency decay time constants in years.
const (
	recencyTauDefault      = 10.0
	recencyTauPreferRecent = 3.0
)

// authorityWeights ranks issuing-entity classes.
var authorityWeights = map[string]float64{
	"corte_constitucional": 1.0,
	"corte_suprema":        0.95,
	"congreso":             0.90,
	"poder_ejecutivo":      0.80,
	"ministerio":           0.75,
	"legislatura":          0.70,
	"provincia":            0.65,
	"municipio":            0.55,
	"otro":                 0.40,
}

// legalAreaWeights ranks legal areas by importance.
var legalAreaWeights = map[string]float64{
	"constitucional": 1.0,
	"penal":          0.85,
	"civil":          0.80,
	"laboral":        0.75,
	"tributario":     0.70,
	"administrativo": 0.65,
	"comercial":      0.60,
	"ambiental":      0.60,
	"otro":           0.50,
}

// ScoreContext carries the per-search inputs shared by every candidate:
// query features, weights, recency preference and corpus statistics
// fetched once before the scoring loop.
type ScoreContext struct {
	// Features are the extracted query features (terms, IDF).
	Features domain.QueryFeatures

	// Weights are the component weights for this invocation.
	Weights domain.ScoringWeights

	// PreferRecent steepens the recency decay.
	PreferRecent bool

	// Now anchors recency computation.
	Now time.Time

	// AvgPassageLength is the corpus mean passage length in characters.
	AvgPassageLength float64
}

// RelevanceScorer fuses vector similarity with keyword, metadata,
// recency and authority signals into one weighted score.
//
// The scorer is pure: all corpus statistics arrive via ScoreContext, so
// the scoring loop performs no I/O and holds no locks.
type RelevanceScorer struct{}

// NewRelevanceScorer creates a scorer.
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Score combines the candidate's signals into a weighted score with a
// per-component breakdown and a short explanation. Missing optional
// metadata never fails: absent components contribute 0.
func (s *RelevanceScorer) Score(
	passage domain.Passage, doc *domain.Document, similarity float64, sc ScoreContext,
) (float64, domain.ComponentScores, string) {
	components := domain.ComponentScores{
		Semantic:  clamp01(similarity),
		Keyword:   s.keywordScore(passage.Content, sc),
		Metadata:  metadataScore(doc, sc.Features.Hints),
		Recency:   recencyScore(doc, sc),
		Authority: authorityScore(doc),
	}

	w := sc.Weights
	score := components.Semantic*w.Semantic +
		components.Keyword*w.Keyword +
		components.Metadata*w.Metadata +
		components.Recency*w.Recency +
		components.Authority*w.Authority

	return score, components, buildExplanation(components, w)
}

// keywordScore computes a BM25 score over the query terms and squashes
// it into [0,1) with raw/(raw+1) so it composes with the other
// components.
func (s *RelevanceScorer) keywordScore(content string, sc ScoreContext) float64 {
	terms := sc.Features.Terms
	if len(terms) == 0 {
		return 0
	}

	contentLower := strings.ToLower(content)
	words := strings.Fields(contentLower)
	if len(words) == 0 {
		return 0
	}

	docLen := float64(len([]rune(contentLower)))
	avgLen := sc.AvgPassageLength
	if avgLen <= 0 {
		// No corpus statistics: neutral length normalisation.
		avgLen = docLen
	}

	raw := 0.0
	for _, term := range terms {
		tf := termFrequency(words, term)
		if tf == 0 {
			continue
		}

		idf, ok := sc.Features.IDF[term]
		if !ok {
			idf = 1.0
		}

		tfNorm := float64(tf) * (bm25K1 + 1) /
			(float64(tf) + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		raw += idf * tfNorm
	}

	return raw / (raw + 1)
}

// termFrequency counts word-level occurrences of term, matching word
// prefixes so "contrato" also counts "contratos".
func termFrequency(words []string, term string) int {
	count := 0
	for _, w := range words {
		trimmed := strings.Trim(w, ".,;:()[]¿?¡!\"'«»")
		if trimmed == term || strings.HasPrefix(trimmed, term) {
			count++
		}
	}
	return count
}

// metadataScore is the fraction of query metadata hints the document
// satisfies. Without hints or document metadata it contributes 0.
func metadataScore(doc *domain.Document, hints domain.MetadataHints) float64 {
	if doc == nil {
		return 0
	}

	considered := 0
	matched := 0

	if len(hints.DocumentTypes) > 0 {
		considered++
		if containsFold(hints.DocumentTypes, doc.Meta.Type) {
			matched++
		}
	}
	if len(hints.Jurisdictions) > 0 {
		considered++
		if containsFold(hints.Jurisdictions, doc.Meta.Jurisdiction) {
			matched++
		}
	}
	if len(hints.LegalAreas) > 0 {
		considered++
		if containsFold(hints.LegalAreas, doc.Meta.LegalArea) {
			matched++
		}
	}
	if hints.DateRange != nil {
		considered++
		if date := doc.EffectiveDate(); date != nil && hints.DateRange.Contains(*date) {
			matched++
		}
	}

	if considered == 0 {
		return 0
	}
	return float64(matched) / float64(considered)
}

// recencyScore decays exponentially with document age. Documents
// without a date contribute 0 rather than erroring.
func recencyScore(doc *domain.Document, sc ScoreContext) float64 {
	if doc == nil {
		return 0
	}
	date := doc.EffectiveDate()
	if date == nil {
		return 0
	}

	ageYears := sc.Now.Sub(*date).Hours() / (24 * 365.25)
	if ageYears < 0 {
		return 1
	}

	tau := recencyTauDefault
	if sc.PreferRecent {
		tau = recencyTauPreferRecent
	}
	return math.Exp(-ageYears / tau)
}

// authorityScore looks up the issuing-entity class and the legal-area
// class. When both are present they combine via geometric mean; a
// known-but-unlisted value gets the "otro" floor; absent metadata
// contributes 0.
func authorityScore(doc *domain.Document) float64 {
	if doc == nil {
		return 0
	}

	inst := lookupWeight(authorityWeights, doc.Meta.Institution)
	area := lookupWeight(legalAreaWeights, doc.Meta.LegalArea)

	switch {
	case inst > 0 && area > 0:
		return math.Sqrt(inst * area)
	case inst > 0:
		return inst
	case area > 0:
		return area
	default:
		return 0
	}
}

func lookupWeight(table map[string]float64, key string) float64 {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return 0
	}
	if w, ok := table[key]; ok {
		return w
	}
	return table["otro"]
}

// buildExplanation renders the weighted contributions and names the
// strongest signal.
func buildExplanation(c domain.ComponentScores, w domain.ScoringWeights) string {
	type contribution struct {
		name  string
		value float64
	}
	contributions := []contribution{
		{"semantic", c.Semantic * w.Semantic},
		{"keyword", c.Keyword * w.Keyword},
		{"metadata", c.Metadata * w.Metadata},
		{"recency", c.Recency * w.Recency},
		{"authority", c.Authority * w.Authority},
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].value > contributions[j].value
	})

	parts := make([]string, 0, len(contributions))
	for _, contrib := range contributions {
		parts = append(parts, fmt.Sprintf("%s %.2f", contrib.name, contrib.value))
	}

	return fmt.Sprintf("strongest signal %s (%s)", contributions[0].name, strings.Join(parts, ", "))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}
