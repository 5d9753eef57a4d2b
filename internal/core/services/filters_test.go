package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

func TestFromEntities(t *testing.T) {
	s := NewFilterService()

	t.Run("maps each kind to its field", func(t *testing.T) {
		from := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)

		f := s.FromEntities([]domain.Entity{
			{Kind: domain.EntityDocumentType, Value: "ley"},
			{Kind: domain.EntityJurisdiction, Value: "nacional"},
			{Kind: domain.EntityInstitution, Value: "congreso"},
			{Kind: domain.EntityTopic, Value: "contratos"},
			{Kind: domain.EntityGeographicScope, Value: "caba"},
			{Kind: domain.EntityDateRange, Range: &domain.DateRange{From: from, To: to}},
		})

		assert.Equal(t, []string{"ley"}, f.DocumentTypes)
		assert.Equal(t, []string{"nacional"}, f.Jurisdictions)
		assert.Equal(t, []string{"congreso"}, f.Institutions)
		assert.Equal(t, []string{"contratos"}, f.Topics)
		assert.Equal(t, []string{"caba"}, f.GeographicScopes)
		require.NotNil(t, f.Dates)
		assert.Equal(t, from, f.Dates.From)
	})

	t.Run("unknown kinds are skipped, never fatal", func(t *testing.T) {
		f := s.FromEntities([]domain.Entity{
			{Kind: domain.EntityKind("person"), Value: "juan"},
			{Kind: domain.EntityTopic, Value: "sucesiones"},
		})

		assert.Equal(t, []string{"sucesiones"}, f.Topics)
		assert.Empty(t, f.DocumentTypes)
	})
}

func TestFromIntent(t *testing.T) {
	s := NewFilterService()

	t.Run("check validity forces in-force state and high threshold", func(t *testing.T) {
		f := s.FromIntent(domain.IntentCheckValidity)
		assert.Equal(t, domain.DocumentStateInForce, f.State)
		assert.Equal(t, 0.9, f.MinRelevance)
	})

	t.Run("compare norms lowers the limit", func(t *testing.T) {
		f := s.FromIntent(domain.IntentCompareNorms)
		assert.Equal(t, 10, f.Limit)
	})

	t.Run("general question applies no constraints", func(t *testing.T) {
		f := s.FromIntent(domain.IntentGeneralQuestion)
		assert.True(t, f.IsEmpty())
		assert.Zero(t, f.Limit)
	})
}

func TestCombine(t *testing.T) {
	s := NewFilterService()

	t.Run("unions jurisdictions and takes the minimum limit", func(t *testing.T) {
		a := domain.Filters{Jurisdictions: []string{"nacional"}, Limit: 50}
		b := domain.Filters{Jurisdictions: []string{"provincial"}, Limit: 10}

		combined := s.Combine(a, b)

		assert.Equal(t, []string{"nacional", "provincial"}, combined.Jurisdictions)
		assert.Equal(t, 10, combined.Limit)
	})

	t.Run("deduplicates unioned values", func(t *testing.T) {
		a := domain.Filters{Topics: []string{"contratos", "daños"}}
		b := domain.Filters{Topics: []string{"daños", "seguros"}}

		combined := s.Combine(a, b)

		assert.Equal(t, []string{"contratos", "daños", "seguros"}, combined.Topics)
	})

	t.Run("takes the maximum relevance threshold", func(t *testing.T) {
		combined := s.Combine(
			domain.Filters{MinRelevance: 0.5},
			domain.Filters{MinRelevance: 0.9},
		)
		assert.Equal(t, 0.9, combined.MinRelevance)
	})

	t.Run("intersects date ranges to the most restrictive window", func(t *testing.T) {
		a := domain.Filters{Dates: &domain.DateRange{
			From: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		}}
		b := domain.Filters{Dates: &domain.DateRange{
			From: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		}}

		combined := s.Combine(a, b)

		require.NotNil(t, combined.Dates)
		assert.Equal(t, 2015, combined.Dates.From.Year())
		assert.Equal(t, 2020, combined.Dates.To.Year())
	})

	t.Run("first specific state wins", func(t *testing.T) {
		combined := s.Combine(
			domain.Filters{},
			domain.Filters{State: domain.DocumentStateInForce},
		)
		assert.Equal(t, domain.DocumentStateInForce, combined.State)
	})
}

func TestOptimize(t *testing.T) {
	s := NewFilterService()

	t.Run("applies defaults", func(t *testing.T) {
		f := s.Optimize(domain.Filters{})
		assert.Equal(t, defaultLimit, f.Limit)
		assert.Equal(t, defaultMinRelevance, f.MinRelevance)
		assert.Zero(t, f.Offset)
	})

	t.Run("oversized limit falls back to default", func(t *testing.T) {
		f := s.Optimize(domain.Filters{Limit: 500})
		assert.Equal(t, defaultLimit, f.Limit)
	})

	t.Run("drops empty arrays and normalises values", func(t *testing.T) {
		f := s.Optimize(domain.Filters{
			DocumentTypes: []string{" Ley ", "ley", ""},
			Jurisdictions: []string{},
		})
		assert.Equal(t, []string{"ley"}, f.DocumentTypes)
		assert.Nil(t, f.Jurisdictions)
	})

	t.Run("keyword hygiene", func(t *testing.T) {
		keywords := []string{"de", "contrato", "Contrato", "alquiler", "x",
			"k1", "k2x", "k3x", "k4x", "k5x", "k6x", "k7x", "k8x", "k9x", "k10x", "k11x"}
		f := s.Optimize(domain.Filters{Keywords: keywords})

		assert.NotContains(t, f.Keywords, "de")
		assert.NotContains(t, f.Keywords, "x")
		assert.Contains(t, f.Keywords, "contrato")
		assert.LessOrEqual(t, len(f.Keywords), maxKeywords)
	})

	t.Run("swaps a reversed date range", func(t *testing.T) {
		f := s.Optimize(domain.Filters{Dates: &domain.DateRange{
			From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		}})
		require.NotNil(t, f.Dates)
		assert.True(t, f.Dates.From.Before(f.Dates.To))
	})

	t.Run("caps a future to-date at now", func(t *testing.T) {
		future := time.Now().AddDate(5, 0, 0)
		f := s.Optimize(domain.Filters{Dates: &domain.DateRange{To: future}})
		require.NotNil(t, f.Dates)
		assert.False(t, f.Dates.To.After(time.Now()))
	})

	t.Run("clamps a range entirely in the future", func(t *testing.T) {
		fixed := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
		fs := NewFilterService()
		fs.now = func() time.Time { return fixed }

		f := fs.Optimize(domain.Filters{Dates: &domain.DateRange{
			From: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
		}})

		require.NotNil(t, f.Dates)
		assert.Equal(t, fixed, f.Dates.To)
		assert.Equal(t, fixed, f.Dates.From)
		assert.Equal(t, f, fs.Optimize(f))
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := []domain.Filters{
			{},
			{Limit: 500, MinRelevance: 2},
			{Keywords: []string{"Contrato", "de", "ALQUILER"}},
			{Dates: &domain.DateRange{
				From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			}},
			{Dates: &domain.DateRange{
				From: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
			}},
			{DocumentTypes: []string{"Ley", "ley", " decreto "}, Offset: -3},
		}

		for _, input := range inputs {
			once := s.Optimize(input)
			twice := s.Optimize(once)
			assert.Equal(t, once, twice)
		}
	})
}

func TestSuggest(t *testing.T) {
	s := NewFilterService()

	t.Run("broad search and missing jurisdiction", func(t *testing.T) {
		suggestions := s.Suggest(domain.Filters{})
		require.Len(t, suggestions, 2)
	})

	t.Run("constrained search yields fewer hints", func(t *testing.T) {
		suggestions := s.Suggest(domain.Filters{
			DocumentTypes: []string{"ley"},
			Jurisdictions: []string{"nacional"},
		})
		assert.Empty(t, suggestions)
	})

	t.Run("never blocks retrieval", func(t *testing.T) {
		// Suggestions are strings only; nothing here can fail.
		suggestions := s.Suggest(domain.Filters{MinRelevance: 0.95})
		assert.NotEmpty(t, suggestions)
	})
}
