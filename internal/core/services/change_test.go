package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
)

// mockSnapshotStore implements driven.SnapshotStore for testing.
type mockSnapshotStore struct {
	snapshots map[string]*domain.Snapshot
	getErr    error
	putErr    error
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{snapshots: make(map[string]*domain.Snapshot)}
}

func (m *mockSnapshotStore) Get(_ context.Context, documentID string) (*domain.Snapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	snap, ok := m.snapshots[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snap, nil
}

func (m *mockSnapshotStore) Put(_ context.Context, snapshot *domain.Snapshot) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.snapshots[snapshot.DocumentID] = snapshot
	return nil
}

func (m *mockSnapshotStore) Delete(_ context.Context, documentID string) error {
	delete(m.snapshots, documentID)
	return nil
}

func TestHash(t *testing.T) {
	s := NewChangeService(nil)

	t.Run("is stable", func(t *testing.T) {
		assert.Equal(t, s.Hash("Art. 1 texto"), s.Hash("Art. 1 texto"))
	})

	t.Run("differs for different text", func(t *testing.T) {
		assert.NotEqual(t, s.Hash("texto uno"), s.Hash("texto dos"))
	})

	t.Run("normalises whitespace", func(t *testing.T) {
		assert.Equal(t, s.Hash("Art.  1\n texto"), s.Hash("Art. 1 texto"))
	})

	t.Run("empty text has a digest", func(t *testing.T) {
		assert.NotEmpty(t, s.Hash(""))
	})
}

func TestValidate(t *testing.T) {
	s := NewChangeService(nil)
	digest := s.Hash("contenido")
	assert.True(t, s.Validate("contenido", digest))
	assert.False(t, s.Validate("otro contenido", digest))
}

func TestDetect(t *testing.T) {
	s := NewChangeService(nil)
	ctx := context.Background()

	t.Run("no previous snapshot means created", func(t *testing.T) {
		result := s.Detect(ctx, "doc-1", "Art. 1 texto", nil, nil)

		assert.Equal(t, domain.ChangeCreated, result.Kind)
		assert.Equal(t, 1, result.Version)
		assert.True(t, result.SignificantChange)
		assert.NotEmpty(t, result.CurrentDigest)
		assert.Empty(t, result.PreviousDigest)
	})

	t.Run("identical text means unchanged", func(t *testing.T) {
		text := "Art. 1 — La Nación Argentina adopta la forma republicana."
		digest := s.Hash(text)
		previous := &domain.Snapshot{DocumentID: "doc-1", Text: text, Digest: digest, Version: 2}

		result := s.Detect(ctx, "doc-1", text, nil, previous)

		assert.Equal(t, domain.ChangeUnchanged, result.Kind)
		assert.Equal(t, digest, result.PreviousDigest)
		assert.Equal(t, digest, result.CurrentDigest)
		assert.Equal(t, 1.0, result.Similarity)
		assert.Equal(t, 2, result.Version)
		assert.False(t, result.SignificantChange)
	})

	t.Run("differing text means updated with similarity below one", func(t *testing.T) {
		oldText := "El contrato se celebra por escrito entre las partes."
		newText := "El contrato se celebra por escrito entre las partes y sus representantes legales."
		previous := &domain.Snapshot{DocumentID: "doc-1", Text: oldText, Digest: s.Hash(oldText), Version: 1}

		result := s.Detect(ctx, "doc-1", newText, nil, previous)

		assert.Equal(t, domain.ChangeUpdated, result.Kind)
		assert.Less(t, result.Similarity, 1.0)
		assert.Greater(t, result.Similarity, 0.0)
		assert.Equal(t, 2, result.Version)
		assert.Positive(t, result.SizeDelta)
	})

	t.Run("reordered words stay strictly below one", func(t *testing.T) {
		previous := &domain.Snapshot{Text: "uno dos tres", Digest: s.Hash("uno dos tres"), Version: 1}

		result := s.Detect(ctx, "doc-1", "tres dos uno", nil, previous)

		assert.Equal(t, domain.ChangeUpdated, result.Kind)
		assert.Less(t, result.Similarity, 1.0)
	})

	t.Run("small wording change is not significant", func(t *testing.T) {
		words := make([]string, 100)
		for i := range words {
			words[i] = "palabra" + string(rune('a'+i%20))
		}
		oldText := strings.Join(words, " ")
		words[0] = "cambiada"
		newText := strings.Join(words, " ")
		previous := &domain.Snapshot{Text: oldText, Digest: s.Hash(oldText), Version: 1}

		result := s.Detect(ctx, "doc-1", newText, nil, previous)

		assert.Equal(t, domain.ChangeUpdated, result.Kind)
		assert.False(t, result.SignificantChange)
	})

	t.Run("metadata change makes an update significant", func(t *testing.T) {
		oldText := strings.Repeat("la misma frase repetida ", 20)
		newText := oldText + "final"
		previous := &domain.Snapshot{
			Text:    oldText,
			Digest:  s.Hash(oldText),
			Meta:    &domain.DocumentMeta{Jurisdiction: "nacional"},
			Version: 1,
		}

		result := s.Detect(ctx, "doc-1", newText,
			&domain.DocumentMeta{Jurisdiction: "provincial"}, previous)

		assert.True(t, result.MetadataChanged)
		assert.True(t, result.SignificantChange)
	})

	t.Run("title change makes an update significant", func(t *testing.T) {
		oldText := strings.Repeat("texto estable ", 30)
		newText := oldText + "anexo"
		previous := &domain.Snapshot{
			Text:    oldText,
			Digest:  s.Hash(oldText),
			Meta:    &domain.DocumentMeta{Title: "Ley de Contrataciones"},
			Version: 1,
		}

		result := s.Detect(ctx, "doc-1", newText,
			&domain.DocumentMeta{Title: "Ley de Contrataciones Públicas"}, previous)

		assert.True(t, result.TitleChanged)
		assert.True(t, result.SignificantChange)
	})

	t.Run("title compare ignores case and whitespace", func(t *testing.T) {
		oldText := strings.Repeat("texto estable ", 30)
		newText := oldText + "anexo"
		previous := &domain.Snapshot{
			Text:    oldText,
			Digest:  s.Hash(oldText),
			Meta:    &domain.DocumentMeta{Title: "Ley   de Contrataciones"},
			Version: 1,
		}

		result := s.Detect(ctx, "doc-1", newText,
			&domain.DocumentMeta{Title: "ley de contrataciones"}, previous)

		assert.False(t, result.TitleChanged)
	})

	t.Run("empty text never panics", func(t *testing.T) {
		result := s.Detect(ctx, "doc-1", "", nil, nil)
		assert.Equal(t, domain.ChangeCreated, result.Kind)

		previous := &domain.Snapshot{Text: "", Digest: s.Hash(""), Version: 1}
		result = s.Detect(ctx, "doc-1", "", nil, previous)
		assert.Equal(t, domain.ChangeUnchanged, result.Kind)
	})
}

func TestWordSetSimilaritySampling(t *testing.T) {
	// Texts above the sampling threshold still produce a sane score.
	base := strings.Repeat("la constitución nacional garantiza derechos y obligaciones ", 400)
	other := strings.Repeat("el código penal establece sanciones y procedimientos distintos ", 400)

	require.Greater(t, len(base), sampleThreshold)

	assert.InDelta(t, 1.0, wordSetSimilarity(base, base), 0.001)
	assert.Less(t, wordSetSimilarity(base, other), 0.3)
}

func TestDiff(t *testing.T) {
	s := NewChangeService(nil)

	t.Run("identical texts", func(t *testing.T) {
		stats := s.Diff("a\nb\nc", "a\nb\nc")
		assert.Zero(t, stats.LinesAdded)
		assert.Zero(t, stats.LinesRemoved)
		assert.Zero(t, stats.LinesModified)
		assert.Zero(t, stats.PercentChanged)
	})

	t.Run("pure addition", func(t *testing.T) {
		stats := s.Diff("a\nb", "a\nb\nc\nd")
		assert.Equal(t, 2, stats.LinesAdded)
		assert.Zero(t, stats.LinesRemoved)
		assert.InDelta(t, 50.0, stats.PercentChanged, 0.001)
	})

	t.Run("replacement counts as modified", func(t *testing.T) {
		stats := s.Diff("a\nb\nc", "a\nx\nc")
		assert.Equal(t, 1, stats.LinesModified)
		assert.Zero(t, stats.LinesAdded)
		assert.Zero(t, stats.LinesRemoved)
	})

	t.Run("empty inputs", func(t *testing.T) {
		stats := s.Diff("", "")
		assert.Zero(t, stats.PercentChanged)
	})
}

func TestDetectBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed batch with snapshot writes", func(t *testing.T) {
		store := newMockSnapshotStore()
		s := NewChangeService(store)

		known := "texto ya conocido por el sistema"
		store.snapshots["doc-known"] = &domain.Snapshot{
			DocumentID: "doc-known", Text: known, Digest: s.Hash(known), Version: 3,
		}

		results := s.DetectBatch(ctx, []driving.BatchItem{
			{DocumentID: "doc-new", Text: "documento nuevo"},
			{DocumentID: "doc-known", Text: known},
			{DocumentID: "doc-changed", Text: "otro documento"},
		})

		require.Len(t, results, 3)
		assert.Equal(t, domain.ChangeCreated, results[0].Kind)
		assert.Equal(t, domain.ChangeUnchanged, results[1].Kind)
		assert.Equal(t, domain.ChangeCreated, results[2].Kind)

		// Created documents got snapshots written back.
		assert.Contains(t, store.snapshots, "doc-new")
		assert.Contains(t, store.snapshots, "doc-changed")
		// Unchanged keeps the previous version.
		assert.Equal(t, 3, store.snapshots["doc-known"].Version)
	})

	t.Run("store failure degrades to created", func(t *testing.T) {
		store := newMockSnapshotStore()
		store.getErr = errors.New("db locked")
		s := NewChangeService(store)

		results := s.DetectBatch(ctx, []driving.BatchItem{
			{DocumentID: "doc-1", Text: "algo"},
		})

		require.Len(t, results, 1)
		assert.Equal(t, domain.ChangeCreated, results[0].Kind)
	})
}

func TestSummarize(t *testing.T) {
	s := NewChangeService(nil)

	t.Run("empty input", func(t *testing.T) {
		summary := s.Summarize(nil)
		assert.Zero(t, summary.Created)
		assert.Zero(t, summary.AverageSimilarity)
	})

	t.Run("aggregates counts and similarity", func(t *testing.T) {
		summary := s.Summarize([]domain.ChangeResult{
			{Kind: domain.ChangeCreated, Similarity: 0, SignificantChange: true},
			{Kind: domain.ChangeUnchanged, Similarity: 1.0},
			{Kind: domain.ChangeUpdated, Similarity: 0.5, SignificantChange: true},
		})

		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 1, summary.Unchanged)
		assert.Equal(t, 1, summary.Updated)
		assert.Equal(t, 2, summary.Significant)
		assert.InDelta(t, 0.5, summary.AverageSimilarity, 0.001)
	})
}
