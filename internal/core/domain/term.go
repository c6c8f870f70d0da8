package domain

import (
	"errors"
	"strings"
	"time"
)

// EntryOrigin records how a local entry came to exist.
type EntryOrigin string

// Available origins.
const (
	// OriginSeeded entries are bulk-loaded from the abbreviation dataset.
	// They are protected and never mutated or deleted by users.
	OriginSeeded EntryOrigin = "seeded"

	// OriginCustom entries were added by a user and may be removed.
	OriginCustom EntryOrigin = "custom"
)

// IsValid returns true if the origin is recognised.
func (o EntryOrigin) IsValid() bool {
	return o == OriginSeeded || o == OriginCustom
}

// String returns the string representation.
func (o EntryOrigin) String() string {
	return string(o)
}

// EntryKind distinguishes abbreviations from free-form term definitions.
type EntryKind string

// Available entry kinds.
const (
	KindAbbreviation EntryKind = "abbreviation"
	KindTerm         EntryKind = "term"
)

// ParseEntryKind parses a user-supplied kind. Empty defaults to abbreviation.
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindAbbreviation:
		return KindAbbreviation, nil
	case KindTerm:
		return KindTerm, nil
	default:
		return "", ErrInvalidInput
	}
}

// Category returns the lookup category entries of this kind are reported under.
func (k EntryKind) Category() Category {
	if k == KindTerm {
		return CategoryConcept
	}
	return CategoryAbbreviation
}

// String returns the string representation.
func (k EntryKind) String() string {
	return string(k)
}

// LocalEntry is a row of the local term store.
type LocalEntry struct {
	// Keyword is the term as first written (display form).
	Keyword string `json:"keyword"`

	// Definition is the meaning of the keyword.
	Definition string `json:"definition"`

	// Origin tags the entry as seeded (protected) or custom (deletable).
	Origin EntryOrigin `json:"origin"`

	// Kind is abbreviation or term.
	Kind EntryKind `json:"kind"`

	// CreatedAt is when the entry was first stored.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the definition last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Protected reports whether the entry is immune to user mutation.
func (e LocalEntry) Protected() bool {
	switch e.Origin {
	case OriginSeeded:
		return true
	case OriginCustom:
		return false
	default:
		// Unknown provenance is never deleted.
		return true
	}
}

// SeedRecord is one row of the bulk abbreviation dataset.
type SeedRecord struct {
	Keyword    string
	Definition string
}

// NormalizeKeyword returns the case-insensitive storage key for a keyword.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// MergeSeedRecords groups records by normalised keyword. Distinct
// definitions of one keyword are joined with "; " in first-seen order.
// Records with a blank keyword or definition are dropped.
func MergeSeedRecords(records []SeedRecord) []SeedRecord {
	index := make(map[string]int)
	seen := make(map[string]map[string]bool)
	var merged []SeedRecord //nolint:prealloc

	for _, rec := range records {
		kw := strings.TrimSpace(rec.Keyword)
		def := strings.TrimSpace(rec.Definition)
		key := NormalizeKeyword(kw)
		if key == "" || def == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			index[key] = len(merged)
			seen[key] = map[string]bool{def: true}
			merged = append(merged, SeedRecord{Keyword: kw, Definition: def})
			continue
		}
		if seen[key][def] {
			continue
		}
		seen[key][def] = true
		merged[i].Definition += "; " + def
	}
	return merged
}

// DatasetFile reports how many usable rows one dataset file contributed.
type DatasetFile struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Dataset is the parsed content of a seed directory.
type Dataset struct {
	Files   []DatasetFile
	Records []SeedRecord
}

// SeedReport summarises a seeding run.
type SeedReport struct {
	Files    []DatasetFile `json:"files"`
	Rows     int           `json:"rows"`
	Inserted int           `json:"inserted"`
}

// RemoveOutcome is the user-visible result of a remove request.
type RemoveOutcome string

// Available remove outcomes.
const (
	RemoveRemoved   RemoveOutcome = "removed"
	RemoveNotFound  RemoveOutcome = "not_found"
	RemoveProtected RemoveOutcome = "protected"
)

// RemoveOutcomeOf maps the error returned by a remove to its outcome.
// The boolean is false for errors that are not a remove outcome,
// such as a store failure.
func RemoveOutcomeOf(err error) (RemoveOutcome, bool) {
	switch {
	case err == nil:
		return RemoveRemoved, true
	case errors.Is(err, ErrNotFound):
		return RemoveNotFound, true
	case errors.Is(err, ErrProtected):
		return RemoveProtected, true
	default:
		return "", false
	}
}

// String returns the string representation.
func (o RemoveOutcome) String() string {
	return string(o)
}
