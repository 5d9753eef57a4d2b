package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

func seed(t *testing.T, s *PassageStore, docID string, active bool, contents ...string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: docID, Active: active}))

	passages := make([]domain.Passage, 0, len(contents))
	for i, content := range contents {
		passages = append(passages, domain.Passage{
			ID:         docID + "-p" + string(rune('0'+i)),
			DocumentID: docID,
			Position:   i,
			Content:    content,
		})
	}
	require.NoError(t, s.SavePassages(ctx, passages))
}

func TestPassageStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewPassageStore()

	seed(t, s, "doc-1", true, "primer pasaje", "segundo pasaje")

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, doc.Active)

	passages, err := s.GetPassages(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, 0, passages[0].Position)
	assert.Equal(t, 1, passages[1].Position)

	p, err := s.GetPassage(ctx, "doc-1-p1")
	require.NoError(t, err)
	assert.Equal(t, "segundo pasaje", p.Content)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetPassage(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPassageStoreSavePassagesSortsByPosition(t *testing.T) {
	ctx := context.Background()
	s := NewPassageStore()

	require.NoError(t, s.SavePassages(ctx, []domain.Passage{
		{ID: "p2", DocumentID: "doc-1", Position: 2},
		{ID: "p0", DocumentID: "doc-1", Position: 0},
		{ID: "p1", DocumentID: "doc-1", Position: 1},
	}))

	passages, err := s.GetPassages(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1", "p2"}, []string{passages[0].ID, passages[1].ID, passages[2].ID})
}

func TestPassageStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewPassageStore()

	seed(t, s, "doc-1", true, "pasaje")
	require.NoError(t, s.DeletePassages(ctx, "doc-1"))

	passages, err := s.GetPassages(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestFindByTerms(t *testing.T) {
	ctx := context.Background()
	s := NewPassageStore()

	seed(t, s, "doc-a", true, "el contrato de locación", "los plazos procesales")
	seed(t, s, "doc-b", false, "contrato derogado")

	t.Run("matches case-insensitively", func(t *testing.T) {
		found, err := s.FindByTerms(ctx, []string{"CONTRATO"}, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "doc-a", found[0].DocumentID)
	})

	t.Run("skips inactive documents", func(t *testing.T) {
		found, err := s.FindByTerms(ctx, []string{"derogado"}, 10)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("honours the limit", func(t *testing.T) {
		found, err := s.FindByTerms(ctx, []string{"contrato", "plazos"}, 1)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestCorpusStats(t *testing.T) {
	ctx := context.Background()
	s := NewPassageStore()

	t.Run("empty corpus", func(t *testing.T) {
		count, err := s.DocumentCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		avg, err := s.AveragePassageLength(ctx)
		require.NoError(t, err)
		assert.Zero(t, avg)
	})

	seed(t, s, "doc-a", true, "contrato", "locación y contrato")
	seed(t, s, "doc-b", true, "sucesiones")

	t.Run("document count", func(t *testing.T) {
		count, err := s.DocumentCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("document frequency counts documents once", func(t *testing.T) {
		df, err := s.DocumentFrequency(ctx, "contrato")
		require.NoError(t, err)
		assert.Equal(t, 1, df)

		df, err = s.DocumentFrequency(ctx, "inexistente")
		require.NoError(t, err)
		assert.Zero(t, df)
	})

	t.Run("average passage length", func(t *testing.T) {
		avg, err := s.AveragePassageLength(ctx)
		require.NoError(t, err)
		// (8 + 19 + 10) / 3
		assert.InDelta(t, 12.33, avg, 0.01)
	})
}
