package domain

// ScoringWeights is a named set of non-negative component weights.
// By convention the five weights sum to 1.0 so the combined score stays
// in [0,1]; this is documented, not enforced. Weights are immutable per
// scoring invocation.
type ScoringWeights struct {
	Semantic  float64
	Keyword   float64
	Metadata  float64
	Recency   float64
	Authority float64
}

// DefaultScoringWeights returns the standard weight table.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Semantic:  0.35,
		Keyword:   0.25,
		Metadata:  0.20,
		Recency:   0.10,
		Authority: 0.10,
	}
}

// Sum returns the total of the five weights.
func (w ScoringWeights) Sum() float64 {
	return w.Semantic + w.Keyword + w.Metadata + w.Recency + w.Authority
}

// WithoutSemantic redistributes the semantic weight proportionally over
// the remaining four components. Used for keyword-only fallback when the
// query embedding is unavailable.
func (w ScoringWeights) WithoutSemantic() ScoringWeights {
	rest := w.Keyword + w.Metadata + w.Recency + w.Authority
	if rest <= 0 {
		// Nothing to redistribute onto; fall back to keyword only.
		return ScoringWeights{Keyword: w.Semantic + w.Keyword}
	}
	scale := (w.Semantic + rest) / rest
	return ScoringWeights{
		Keyword:   w.Keyword * scale,
		Metadata:  w.Metadata * scale,
		Recency:   w.Recency * scale,
		Authority: w.Authority * scale,
	}
}

// ComponentScores holds the five per-signal scores, each in [0,1].
type ComponentScores struct {
	Semantic  float64
	Keyword   float64
	Metadata  float64
	Recency   float64
	Authority float64
}
