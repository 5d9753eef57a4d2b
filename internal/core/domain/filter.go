package domain

import "time"

// DocumentState restricts retrieval to documents in a given legal state.
type DocumentState string

const (
	// DocumentStateAny applies no state restriction.
	DocumentStateAny DocumentState = ""

	// DocumentStateInForce restricts to currently valid documents.
	DocumentStateInForce DocumentState = "in_force"

	// DocumentStateRepealed restricts to repealed documents.
	DocumentStateRepealed DocumentState = "repealed"
)

// DateRange is a closed publication-date interval.
// After optimisation From <= To holds and To never lies in the future.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range. Zero bounds are open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Filters is the normalised, deduplicated structured filter set applied
// before and alongside scoring. Slice fields are either nil or non-empty
// after optimisation.
type Filters struct {
	// DocumentTypes restricts by normative type.
	DocumentTypes []string

	// Jurisdictions restricts by territorial scope.
	Jurisdictions []string

	// Hierarchies restricts by position in the legal hierarchy.
	Hierarchies []string

	// PublicationTypes restricts by publication channel.
	PublicationTypes []string

	// GeographicScopes restricts by geographic applicability.
	GeographicScopes []string

	// Institutions restricts by issuing entity.
	Institutions []string

	// Topics restricts by legal topic.
	Topics []string

	// Keywords are free-text terms required in matching passages.
	Keywords []string

	// Dates restricts by publication date.
	Dates *DateRange

	// State restricts by legal validity state.
	State DocumentState

	// Limit is the maximum page size. Optimisation defaults it to 25
	// and caps it at 100.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// MinRelevance is the minimum combined score for a result, in [0,1].
	MinRelevance float64
}

// IsEmpty reports whether no constraint beyond pagination is set.
func (f *Filters) IsEmpty() bool {
	return len(f.DocumentTypes) == 0 &&
		len(f.Jurisdictions) == 0 &&
		len(f.Hierarchies) == 0 &&
		len(f.PublicationTypes) == 0 &&
		len(f.GeographicScopes) == 0 &&
		len(f.Institutions) == 0 &&
		len(f.Topics) == 0 &&
		len(f.Keywords) == 0 &&
		f.Dates == nil &&
		f.State == DocumentStateAny
}

// EntityKind is the closed set of recognised query entity kinds.
// Each kind maps to exactly one filter field.
type EntityKind string

const (
	// EntityDocumentType maps to Filters.DocumentTypes.
	EntityDocumentType EntityKind = "document_type"

	// EntityJurisdiction maps to Filters.Jurisdictions.
	EntityJurisdiction EntityKind = "jurisdiction"

	// EntityInstitution maps to Filters.Institutions.
	EntityInstitution EntityKind = "institution"

	// EntityTopic maps to Filters.Topics.
	EntityTopic EntityKind = "topic"

	// EntityDateRange maps to Filters.Dates.
	EntityDateRange EntityKind = "date_range"

	// EntityGeographicScope maps to Filters.GeographicScopes.
	EntityGeographicScope EntityKind = "geographic_scope"
)

// Entity is one recognised entity extracted from a query.
type Entity struct {
	// Kind selects the target filter field.
	Kind EntityKind

	// Value is the entity text, already normalised by the extractor.
	Value string

	// Range carries the interval for EntityDateRange entities.
	Range *DateRange
}

// Intent is the coarse purpose of a query, used for filter defaults.
type Intent string

const (
	// IntentGeneralQuestion is a plain informational question.
	IntentGeneralQuestion Intent = "general_question"

	// IntentCheckValidity asks whether a norm is currently in force.
	IntentCheckValidity Intent = "check_validity"

	// IntentCompareNorms asks to compare two or more norms.
	IntentCompareNorms Intent = "compare_norms"

	// IntentFindDocument looks for one specific document.
	IntentFindDocument Intent = "find_document"
)
