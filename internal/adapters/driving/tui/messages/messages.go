// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/medterm/internal/core/domain"
)

// QueryChanged is sent when the lookup input changes.
type QueryChanged struct {
	Query string
}

// LookupRequested is a command to look up a batch of keywords.
type LookupRequested struct {
	Keywords []string
	Options  domain.LookupOptions
}

// LookupCompleted carries aggregated results back to the model.
type LookupCompleted struct {
	Results []domain.AggregatedResult
	Err     error
}

// EntrySelected is sent when a lookup entry is selected.
type EntrySelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewLookup is the keyword input and results view.
	ViewLookup
	// ViewDictionary manages custom dictionary entries.
	ViewDictionary
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewLookup:
		return "lookup"
	case ViewDictionary:
		return "dictionary"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// StatsLoaded carries the dictionary counts.
type StatsLoaded struct {
	Stats domain.StoreStats
	Err   error
}

// KeywordAdded signals a custom keyword was stored.
type KeywordAdded struct {
	Entry *domain.LocalEntry
	Err   error
}

// KeywordRemoved signals a remove request finished.
// Outcome is empty when Err is a store failure.
type KeywordRemoved struct {
	Keyword string
	Outcome domain.RemoveOutcome
	Err     error
}
