package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/logger"
)

// Ensure ChangeService implements the interface.
var _ driving.ChangeDetector = (*ChangeService)(nil)

const (
	// significanceThreshold is the similarity below which an update
	// counts as a significant change.
	significanceThreshold = 0.9

	// sampleThreshold is the text length above which similarity is
	// computed over a sample instead of the full text.
	sampleThreshold = 10000

	// sampleTarget is the approximate sample length in characters.
	sampleTarget = 5000
)

// ChangeService classifies document extractions as created, unchanged
// or updated by comparing content digests and word-set similarity.
//
// The snapshot store is supplied at construction; the service holds no
// hidden module-level state.
type ChangeService struct {
	snapshots driven.SnapshotStore
}

// NewChangeService creates a change detector backed by the given
// snapshot store. The store may be nil when only Detect/Hash/Diff are
// used with caller-supplied snapshots.
func NewChangeService(snapshots driven.SnapshotStore) *ChangeService {
	return &ChangeService{snapshots: snapshots}
}

// Hash computes the SHA-256 hex digest of the normalised text.
// Identical text always yields an identical digest.
func (s *ChangeService) Hash(text string) string {
	sum := sha256.Sum256([]byte(normalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// Validate reports whether text matches the expected digest.
func (s *ChangeService) Validate(text, digest string) bool {
	return s.Hash(text) == digest
}

// Detect compares a fresh extraction against the previous snapshot.
// It never fails: malformed or empty input yields a well-formed result.
func (s *ChangeService) Detect(
	_ context.Context, documentID, text string, meta *domain.DocumentMeta, previous *domain.Snapshot,
) domain.ChangeResult {
	current := s.Hash(text)

	if previous == nil {
		logger.Debug("Change detection %s: no previous snapshot, created", documentID)
		return domain.ChangeResult{
			DocumentID:        documentID,
			Kind:              domain.ChangeCreated,
			CurrentDigest:     current,
			Version:           1,
			SignificantChange: true,
		}
	}

	if previous.Digest == current {
		logger.Debug("Change detection %s: digest match, unchanged", documentID)
		return domain.ChangeResult{
			DocumentID:     documentID,
			Kind:           domain.ChangeUnchanged,
			PreviousDigest: previous.Digest,
			CurrentDigest:  current,
			Similarity:     1.0,
			Version:        previous.Version,
		}
	}

	similarity := wordSetSimilarity(previous.Text, text)
	// Digests differ, so the texts are not identical even when the
	// word sets coincide (reordering, punctuation).
	if similarity >= 1.0 {
		similarity = 0.99
	}

	metaChanged := metadataChanged(previous.Meta, meta)
	titleChanged := normalizedTitle(previous.Meta) != normalizedTitle(meta)

	result := domain.ChangeResult{
		DocumentID:        documentID,
		Kind:              domain.ChangeUpdated,
		PreviousDigest:    previous.Digest,
		CurrentDigest:     current,
		Similarity:        similarity,
		SizeDelta:         len([]rune(text)) - len([]rune(previous.Text)),
		Version:           previous.Version + 1,
		MetadataChanged:   metaChanged,
		TitleChanged:      titleChanged,
		SignificantChange: similarity < significanceThreshold || metaChanged || titleChanged,
	}

	logger.Info("Change detection %s: updated, similarity %.3f, significant %t",
		documentID, similarity, result.SignificantChange)

	return result
}

// Diff computes line-level diff statistics between two texts.
// Line pairs that appear on both sides cancel out; the residue is
// counted as modified up to the smaller side, with the remainder
// attributed to additions or removals.
func (s *ChangeService) Diff(oldText, newText string) domain.DiffStats {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	counts := make(map[string]int, len(oldLines))
	for _, line := range oldLines {
		counts[line]++
	}

	added := 0
	for _, line := range newLines {
		if counts[line] > 0 {
			counts[line]--
		} else {
			added++
		}
	}

	removed := 0
	for _, rest := range counts {
		removed += rest
	}

	modified := added
	if removed < modified {
		modified = removed
	}
	added -= modified
	removed -= modified

	total := len(oldLines)
	if len(newLines) > total {
		total = len(newLines)
	}

	stats := domain.DiffStats{
		LinesAdded:    added,
		LinesRemoved:  removed,
		LinesModified: modified,
	}
	if total > 0 {
		stats.PercentChanged = float64(added+removed+modified) / float64(total) * 100
	}
	return stats
}

// DetectBatch processes many extractions against the snapshot store.
// Store failures are treated as missing snapshots, so a single bad
// lookup never aborts the batch. Created and updated documents get a
// fresh snapshot written back.
func (s *ChangeService) DetectBatch(ctx context.Context, items []driving.BatchItem) []domain.ChangeResult {
	results := make([]domain.ChangeResult, 0, len(items))

	for _, item := range items {
		var previous *domain.Snapshot
		if s.snapshots != nil {
			snap, err := s.snapshots.Get(ctx, item.DocumentID)
			switch {
			case err == nil:
				previous = snap
			case errors.Is(err, domain.ErrNotFound):
				// First sighting of this document.
			default:
				logger.Warn("Snapshot lookup %s failed: %v (treating as created)", item.DocumentID, err)
			}
		}

		result := s.Detect(ctx, item.DocumentID, item.Text, item.Meta, previous)
		results = append(results, result)

		if s.snapshots != nil && result.Kind != domain.ChangeUnchanged {
			snap := &domain.Snapshot{
				DocumentID:  item.DocumentID,
				Text:        item.Text,
				Digest:      result.CurrentDigest,
				Meta:        item.Meta,
				Version:     result.Version,
				ExtractedAt: time.Now().UTC(),
			}
			if err := s.snapshots.Put(ctx, snap); err != nil {
				logger.Warn("Snapshot write %s failed: %v", item.DocumentID, err)
			}
		}
	}

	return results
}

// Summarize aggregates a slice of change results.
func (s *ChangeService) Summarize(results []domain.ChangeResult) domain.ChangeSummary {
	summary := domain.ChangeSummary{}
	if len(results) == 0 {
		return summary
	}

	total := 0.0
	for _, r := range results {
		switch r.Kind {
		case domain.ChangeCreated:
			summary.Created++
		case domain.ChangeUnchanged:
			summary.Unchanged++
		case domain.ChangeUpdated:
			summary.Updated++
		}
		if r.SignificantChange {
			summary.Significant++
		}
		total += r.Similarity
	}
	summary.AverageSimilarity = total / float64(len(results))

	return summary
}

// normalizeText trims and collapses whitespace runs to single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// wordSetSimilarity computes Jaccard similarity over lowercased word
// sets. Long texts are sampled evenly first to bound the cost.
func wordSetSimilarity(a, b string) float64 {
	if len(a) > sampleThreshold {
		a = sampleText(a, sampleTarget)
	}
	if len(b) > sampleThreshold {
		b = sampleText(b, sampleTarget)
	}

	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for word := range setA {
		if setB[word] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sampleText takes short segments at even intervals so the sample
// covers the whole document rather than just its head.
func sampleText(text string, target int) string {
	runes := []rune(text)
	if len(runes) <= target {
		return text
	}

	const segment = 50
	segments := target / segment
	interval := len(runes) / segments

	var sb strings.Builder
	sb.Grow(target + segments)
	for i := 0; i < segments; i++ {
		start := i * interval
		end := start + segment
		if end > len(runes) {
			end = len(runes)
		}
		sb.WriteString(string(runes[start:end]))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// metadataChanged compares the fixed set of key metadata fields.
func metadataChanged(prev, cur *domain.DocumentMeta) bool {
	if prev == nil && cur == nil {
		return false
	}
	if prev == nil {
		prev = &domain.DocumentMeta{}
	}
	if cur == nil {
		cur = &domain.DocumentMeta{}
	}

	fields := [][2]string{
		{prev.Type, cur.Type},
		{prev.Number, cur.Number},
		{prev.Institution, cur.Institution},
		{prev.Jurisdiction, cur.Jurisdiction},
		{prev.LegalArea, cur.LegalArea},
	}
	for _, pair := range fields {
		if !strings.EqualFold(strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])) {
			return true
		}
	}
	return false
}

func normalizedTitle(meta *domain.DocumentMeta) string {
	if meta == nil {
		return ""
	}
	return strings.ToLower(normalizeText(meta.Title))
}
