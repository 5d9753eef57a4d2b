package services

import (
	"strings"
	"time"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/logger"
)

const (
	// defaultLimit is applied when no limit is set or it exceeds maxLimit.
	defaultLimit = 25

	// maxLimit is the largest accepted page size.
	maxLimit = 100

	// defaultMinRelevance is applied when no threshold is set.
	defaultMinRelevance = 0.5

	// minKeywordLength drops keywords shorter than this many runes.
	minKeywordLength = 3

	// maxKeywords caps the keyword list.
	maxKeywords = 10
)

// filterField enumerates the filter fields an entity can map to.
type filterField int

const (
	fieldDocumentTypes filterField = iota
	fieldJurisdictions
	fieldInstitutions
	fieldTopics
	fieldDates
	fieldGeographicScopes
)

// entityTargets maps every recognised entity kind to exactly one
// filter field. Kinds missing here are skipped, never fatal.
var entityTargets = map[domain.EntityKind]filterField{
	domain.EntityDocumentType:    fieldDocumentTypes,
	domain.EntityJurisdiction:    fieldJurisdictions,
	domain.EntityInstitution:     fieldInstitutions,
	domain.EntityTopic:           fieldTopics,
	domain.EntityDateRange:       fieldDates,
	domain.EntityGeographicScope: fieldGeographicScopes,
}

// FilterService builds, merges and normalises structured filter sets.
type FilterService struct {
	now func() time.Time
}

// NewFilterService creates a filter builder.
func NewFilterService() *FilterService {
	return &FilterService{now: time.Now}
}

// FromEntities maps recognised entities onto filter fields.
func (s *FilterService) FromEntities(entities []domain.Entity) domain.Filters {
	var f domain.Filters

	for _, e := range entities {
		field, ok := entityTargets[e.Kind]
		if !ok {
			logger.Warn("Unrecognised entity kind %q, skipping", e.Kind)
			continue
		}

		switch field {
		case fieldDocumentTypes:
			f.DocumentTypes = append(f.DocumentTypes, e.Value)
		case fieldJurisdictions:
			f.Jurisdictions = append(f.Jurisdictions, e.Value)
		case fieldInstitutions:
			f.Institutions = append(f.Institutions, e.Value)
		case fieldTopics:
			f.Topics = append(f.Topics, e.Value)
		case fieldGeographicScopes:
			f.GeographicScopes = append(f.GeographicScopes, e.Value)
		case fieldDates:
			if e.Range != nil {
				f.Dates = intersectRanges(f.Dates, e.Range)
			}
		}
	}

	return f
}

// FromHints converts query metadata hints into a partial filter set.
// Legal-area hints land on Topics.
func (s *FilterService) FromHints(hints domain.MetadataHints) domain.Filters {
	return domain.Filters{
		DocumentTypes: append([]string(nil), hints.DocumentTypes...),
		Jurisdictions: append([]string(nil), hints.Jurisdictions...),
		Topics:        append([]string(nil), hints.LegalAreas...),
		Dates:         hints.DateRange,
	}
}

// FromIntent applies intent-specific defaults for page size and
// relevance threshold.
func (s *FilterService) FromIntent(intent domain.Intent) domain.Filters {
	switch intent {
	case domain.IntentCheckValidity:
		return domain.Filters{
			State:        domain.DocumentStateInForce,
			MinRelevance: 0.9,
		}
	case domain.IntentCompareNorms:
		return domain.Filters{Limit: 10}
	case domain.IntentFindDocument:
		return domain.Filters{Limit: 5, MinRelevance: 0.7}
	default:
		return domain.Filters{}
	}
}

// Combine merges partial filter sets. Slice fields are unioned and
// deduplicated; date ranges are intersected; MinRelevance takes the
// maximum and Limit the minimum across inputs - the most restrictive
// value wins when signals conflict.
func (s *FilterService) Combine(sets ...domain.Filters) domain.Filters {
	var out domain.Filters

	for _, f := range sets {
		out.DocumentTypes = unionValues(out.DocumentTypes, f.DocumentTypes)
		out.Jurisdictions = unionValues(out.Jurisdictions, f.Jurisdictions)
		out.Hierarchies = unionValues(out.Hierarchies, f.Hierarchies)
		out.PublicationTypes = unionValues(out.PublicationTypes, f.PublicationTypes)
		out.GeographicScopes = unionValues(out.GeographicScopes, f.GeographicScopes)
		out.Institutions = unionValues(out.Institutions, f.Institutions)
		out.Topics = unionValues(out.Topics, f.Topics)
		out.Keywords = unionValues(out.Keywords, f.Keywords)

		out.Dates = intersectRanges(out.Dates, f.Dates)

		if out.State == domain.DocumentStateAny {
			out.State = f.State
		}
		if f.MinRelevance > out.MinRelevance {
			out.MinRelevance = f.MinRelevance
		}
		if f.Limit > 0 && (out.Limit == 0 || f.Limit < out.Limit) {
			out.Limit = f.Limit
		}
		if out.Offset == 0 {
			out.Offset = f.Offset
		}
	}

	return out
}

// Optimize normalises a filter set. The operation is idempotent:
// optimising an already-optimised set changes nothing.
func (s *FilterService) Optimize(f domain.Filters) domain.Filters {
	f.DocumentTypes = normalizeValues(f.DocumentTypes, 0, 0)
	f.Jurisdictions = normalizeValues(f.Jurisdictions, 0, 0)
	f.Hierarchies = normalizeValues(f.Hierarchies, 0, 0)
	f.PublicationTypes = normalizeValues(f.PublicationTypes, 0, 0)
	f.GeographicScopes = normalizeValues(f.GeographicScopes, 0, 0)
	f.Institutions = normalizeValues(f.Institutions, 0, 0)
	f.Topics = normalizeValues(f.Topics, 0, 0)
	f.Keywords = normalizeValues(f.Keywords, minKeywordLength, maxKeywords)

	if f.Dates != nil {
		r := *f.Dates
		if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
			r.From, r.To = r.To, r.From
		}
		if now := s.now(); !r.To.IsZero() && r.To.After(now) {
			r.To = now
		}
		// Capping To can reorder a range that lies entirely in the
		// future; From must never exceed To.
		if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
			r.From = r.To
		}
		if r.From.IsZero() && r.To.IsZero() {
			f.Dates = nil
		} else {
			f.Dates = &r
		}
	}

	if f.Limit <= 0 || f.Limit > maxLimit {
		f.Limit = defaultLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinRelevance <= 0 {
		f.MinRelevance = defaultMinRelevance
	}
	if f.MinRelevance > 1 {
		f.MinRelevance = 1
	}

	return f
}

// Suggest returns advisory refinement hints. Suggestions never block
// retrieval.
func (s *FilterService) Suggest(f domain.Filters) []string {
	var suggestions []string

	if f.IsEmpty() {
		suggestions = append(suggestions,
			"very broad search with no criteria; add a document type or topic")
	}
	if len(f.Jurisdictions) == 0 {
		suggestions = append(suggestions,
			"no jurisdiction specified; consider nacional or provincial")
	}
	if len(f.Keywords) > 7 {
		suggestions = append(suggestions,
			"too many keywords; results may become too narrow")
	}
	if f.MinRelevance >= 0.9 {
		suggestions = append(suggestions,
			"high relevance threshold; expect few results")
	}

	return suggestions
}

// unionValues appends values not already present, preserving order.
func unionValues(dst, src []string) []string {
	for _, v := range src {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// normalizeValues trims, lowercases and deduplicates values, dropping
// entries shorter than minLen runes and capping the slice at maxLen.
// Zero minLen/maxLen disable those checks. Empty results become nil.
func normalizeValues(values []string, minLen, maxLen int) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		if minLen > 0 && len([]rune(v)) < minLen {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if maxLen > 0 && len(out) >= maxLen {
			break
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// intersectRanges returns the most restrictive combination of two
// date ranges: the later From and the earlier To.
func intersectRanges(a, b *domain.DateRange) *domain.DateRange {
	if a == nil {
		if b == nil {
			return nil
		}
		r := *b
		return &r
	}
	if b == nil {
		return a
	}

	out := *a
	if !b.From.IsZero() && (out.From.IsZero() || b.From.After(out.From)) {
		out.From = b.From
	}
	if !b.To.IsZero() && (out.To.IsZero() || b.To.Before(out.To)) {
		out.To = b.To
	}
	return &out
}
