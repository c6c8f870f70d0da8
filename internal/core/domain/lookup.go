package domain

import (
	"fmt"
	"strings"
	"time"
)

// Definition is a dictionary meaning from the local store.
type Definition struct {
	Keyword    string      `json:"keyword"`
	Definition string      `json:"definition"`
	Origin     EntryOrigin `json:"origin"`
}

// Condition is a clinical condition with its ICD-10-CM codes.
type Condition struct {
	ConsumerName string   `json:"consumer_name,omitempty"`
	PrimaryName  string   `json:"primary_name,omitempty"`
	ICD10Codes   []string `json:"icd10cm_codes,omitempty"`
}

// ICD10Code is a single ICD-10-CM diagnosis code.
type ICD10Code struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// HealthTopic is a plain-language topic summary.
type HealthTopic struct {
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	AlsoCalled []string `json:"also_called,omitempty"`
}

// DrugFormulation lists the clinical formulations and classes of a drug.
type DrugFormulation struct {
	RxCUI        string   `json:"rxcui,omitempty"`
	MatchedName  string   `json:"matched_name,omitempty"`
	Formulations []string `json:"formulations,omitempty"`
	DrugClasses  []string `json:"drug_classes,omitempty"`
}

// DrugLabel carries prescribing information from a drug label.
type DrugLabel struct {
	SetID              string   `json:"set_id,omitempty"`
	BrandNames         []string `json:"brand_names,omitempty"`
	GenericNames       []string `json:"generic_names,omitempty"`
	Routes             []string `json:"routes,omitempty"`
	PharmacologicClass []string `json:"pharmacologic_class,omitempty"`
	Manufacturer       []string `json:"manufacturer,omitempty"`
	Indications        string   `json:"indications,omitempty"`
	MechanismOfAction  string   `json:"mechanism_of_action,omitempty"`
	Dosage             string   `json:"dosage,omitempty"`
	Warnings           string   `json:"warnings,omitempty"`
	BoxedWarning       string   `json:"boxed_warning,omitempty"`
	Contraindications  string   `json:"contraindications,omitempty"`
	AdverseReactions   string   `json:"adverse_reactions,omitempty"`
	DrugInteractions   string   `json:"drug_interactions,omitempty"`
}

// Concept is a UMLS concept with its definitions.
type Concept struct {
	CUI         string   `json:"cui"`
	Name        string   `json:"name"`
	Definitions []string `json:"definitions,omitempty"`
}

// Payload holds the category-specific fields of a lookup entry.
// Exactly one field is set.
type Payload struct {
	Definition  *Definition      `json:"definition,omitempty"`
	Condition   *Condition       `json:"condition,omitempty"`
	ICD10       *ICD10Code       `json:"icd10,omitempty"`
	Topic       *HealthTopic     `json:"topic,omitempty"`
	Formulation *DrugFormulation `json:"formulation,omitempty"`
	Label       *DrugLabel       `json:"label,omitempty"`
	Concept     *Concept         `json:"concept,omitempty"`
}

// Identity returns the normalised identity used to de-duplicate entries
// reported by more than one source. The prefix keeps distinct payload
// shapes from colliding.
func (p Payload) Identity() string {
	switch {
	case p.Definition != nil:
		return "definition:" + norm(p.Definition.Keyword) + "|" + norm(p.Definition.Definition)
	case p.Condition != nil:
		name := p.Condition.PrimaryName
		if name == "" {
			name = p.Condition.ConsumerName
		}
		return "condition:" + norm(name)
	case p.ICD10 != nil:
		return "icd10:" + norm(p.ICD10.Code)
	case p.Topic != nil:
		return "topic:" + norm(p.Topic.Title)
	case p.Formulation != nil:
		if p.Formulation.RxCUI != "" {
			return "rxnorm:" + p.Formulation.RxCUI
		}
		return "rxnorm:" + norm(strings.Join(p.Formulation.Formulations, "|"))
	case p.Label != nil:
		if p.Label.SetID != "" {
			return "label:" + p.Label.SetID
		}
		return "label:" + norm(strings.Join(p.Label.GenericNames, "|"))
	case p.Concept != nil:
		return "umls:" + strings.ToUpper(p.Concept.CUI)
	default:
		return ""
	}
}

// Summary returns a one-line description of the payload for display.
func (p Payload) Summary() string {
	switch {
	case p.Definition != nil:
		return p.Definition.Definition
	case p.Condition != nil:
		name := p.Condition.PrimaryName
		if p.Condition.ConsumerName != "" && p.Condition.ConsumerName != name {
			name = p.Condition.ConsumerName + " (" + name + ")"
		}
		if len(p.Condition.ICD10Codes) > 0 {
			name += " [" + strings.Join(p.Condition.ICD10Codes, ", ") + "]"
		}
		return name
	case p.ICD10 != nil:
		return p.ICD10.Code + " " + p.ICD10.Name
	case p.Topic != nil:
		if p.Topic.Summary != "" {
			return p.Topic.Title + ": " + p.Topic.Summary
		}
		return p.Topic.Title
	case p.Formulation != nil:
		parts := []string{}
		if p.Formulation.MatchedName != "" {
			parts = append(parts, p.Formulation.MatchedName)
		}
		if len(p.Formulation.DrugClasses) > 0 {
			parts = append(parts, "classes: "+strings.Join(p.Formulation.DrugClasses, ", "))
		}
		parts = append(parts, fmt.Sprintf("%d formulations", len(p.Formulation.Formulations)))
		return strings.Join(parts, "; ")
	case p.Label != nil:
		name := strings.Join(p.Label.GenericNames, ", ")
		if p.Label.Indications != "" {
			return name + ": " + p.Label.Indications
		}
		return name
	case p.Concept != nil:
		if len(p.Concept.Definitions) > 0 {
			return p.Concept.Name + ": " + p.Concept.Definitions[0]
		}
		return p.Concept.Name + " (" + p.Concept.CUI + ")"
	default:
		return ""
	}
}

// IsEmpty reports whether no payload field is set.
func (p Payload) IsEmpty() bool {
	return p.Identity() == ""
}

func norm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LookupEntry is one normalised hit produced by a source.
type LookupEntry struct {
	// Source is the provider that produced the entry.
	Source SourceKind `json:"source"`

	// Keyword is the keyword the entry answers.
	Keyword string `json:"keyword"`

	// Category classifies the entry.
	Category Category `json:"category"`

	// Payload carries the category-specific fields.
	Payload Payload `json:"payload"`

	// Rank is the position within the source's answer, and after
	// aggregation the position within the merged result.
	Rank int `json:"rank"`
}

// Key returns the de-duplication key of the entry.
func (e LookupEntry) Key() string {
	return string(e.Category) + "/" + e.Payload.Identity()
}

// AggregatedResult is the merged outcome for one keyword.
type AggregatedResult struct {
	// Keyword is the keyword as supplied by the caller (trimmed).
	Keyword string `json:"keyword"`

	// Found is true when at least one source returned an entry.
	Found bool `json:"found"`

	// Entries is the merged, ordered list of hits.
	Entries []LookupEntry `json:"entries"`

	// SourceErrors records the sources that failed and how.
	SourceErrors map[SourceKind]ErrorKind `json:"source_errors,omitempty"`

	// Message is a human-readable note for not-found keywords.
	Message string `json:"message,omitempty"`
}

// NotFoundMessage returns the message attached to keywords with no data.
func NotFoundMessage(keyword string) string {
	return fmt.Sprintf("No data found for '%s'.", keyword)
}

// BlankKeywordMessage is attached to keywords that are empty after trimming.
const BlankKeywordMessage = "Keyword is blank."

// LookupOptions configures a batch lookup.
type LookupOptions struct {
	// Sources restricts the lookup to these sources. Empty means all enabled.
	Sources []SourceKind

	// Timeout overrides the per-source timeout for this batch.
	Timeout time.Duration
}

// Includes reports whether the options allow the given source.
func (o LookupOptions) Includes(kind SourceKind) bool {
	if len(o.Sources) == 0 {
		return true
	}
	for _, k := range o.Sources {
		if k == kind {
			return true
		}
	}
	return false
}

// StoreStats summarises the contents of the local term store.
type StoreStats struct {
	Seeded int `json:"seeded"`
	Custom int `json:"custom"`
}
