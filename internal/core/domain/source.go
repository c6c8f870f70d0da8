package domain

const unknownDescription = "Unknown"

// SourceKind identifies one provider of lookup data.
type SourceKind string

// Available sources.
const (
	// SourceLocal is the exact-match lookup against the local term store.
	SourceLocal SourceKind = "local"

	// SourceAbbreviation is the partial-match dictionary over the local term store.
	SourceAbbreviation SourceKind = "abbreviation"

	// SourceConditions is the NLM Clinical Tables conditions and ICD-10-CM service.
	SourceConditions SourceKind = "conditions"

	// SourceHealthTopics is the MedlinePlus consumer health-topic service.
	SourceHealthTopics SourceKind = "health_topics"

	// SourceRxNorm is the RxNorm drug formulation and classification service.
	SourceRxNorm SourceKind = "rxnorm"

	// SourceOpenFDA is the OpenFDA drug label service.
	SourceOpenFDA SourceKind = "openfda"

	// SourceUMLS is the key-gated UMLS concept and definition service.
	SourceUMLS SourceKind = "umls"
)

// AllSourceKinds returns every known source in priority order.
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceLocal,
		SourceAbbreviation,
		SourceConditions,
		SourceRxNorm,
		SourceOpenFDA,
		SourceUMLS,
		SourceHealthTopics,
	}
}

// ExternalSourceKinds returns the sources served by adapters rather than
// by the aggregator's direct store read.
func ExternalSourceKinds() []SourceKind {
	return AllSourceKinds()[1:]
}

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceLocal, SourceAbbreviation, SourceConditions, SourceHealthTopics,
		SourceRxNorm, SourceOpenFDA, SourceUMLS:
		return true
	default:
		return false
	}
}

// Priority orders sources within a category. Lower wins.
// Local and custom data come first, then canonical clinical sources,
// then consumer summaries.
func (k SourceKind) Priority() int {
	switch k {
	case SourceLocal:
		return 0
	case SourceAbbreviation:
		return 1
	case SourceConditions, SourceRxNorm:
		return 10
	case SourceOpenFDA:
		return 11
	case SourceUMLS:
		return 12
	case SourceHealthTopics:
		return 20
	default:
		return 100
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the source.
func (k SourceKind) Description() string {
	switch k {
	case SourceLocal:
		return "Local dictionary (exact match)"
	case SourceAbbreviation:
		return "Abbreviation dictionary (partial match)"
	case SourceConditions:
		return "NLM conditions and ICD-10-CM"
	case SourceHealthTopics:
		return "MedlinePlus health topics"
	case SourceRxNorm:
		return "RxNorm formulations and classes"
	case SourceOpenFDA:
		return "OpenFDA drug labels"
	case SourceUMLS:
		return "UMLS concepts"
	default:
		return unknownDescription
	}
}

// Category classifies what a lookup entry describes.
type Category string

// Available categories.
const (
	CategoryAbbreviation Category = "abbreviation"
	CategoryCondition    Category = "condition"
	CategoryDrug         Category = "drug"
	CategoryConcept      Category = "concept"
	CategoryUnknown      Category = "unknown"
)

// Order returns the presentation order of the category in aggregated results.
func (c Category) Order() int {
	switch c {
	case CategoryAbbreviation:
		return 0
	case CategoryCondition:
		return 1
	case CategoryDrug:
		return 2
	case CategoryConcept:
		return 3
	default:
		return 4
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ErrorKind is the structured annotation recorded when a source fails.
type ErrorKind string

// Available error kinds.
const (
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindUnreachable       ErrorKind = "unreachable"
	ErrorKindRateLimited       ErrorKind = "rate_limited"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindAuthMissing       ErrorKind = "auth_missing"
	ErrorKindIOFailure         ErrorKind = "io_failure"
)

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}
