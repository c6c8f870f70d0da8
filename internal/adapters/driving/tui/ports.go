// Package tui provides an interactive terminal user interface for medterm.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Lookup aggregates keyword lookups across sources.
	Lookup driving.LookupService

	// Keywords manages custom dictionary entries. Optional: without it
	// the dictionary view is read-only.
	Keywords driving.KeywordService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(lookup driving.LookupService, keywords driving.KeywordService) *Ports {
	return &Ports{
		Lookup:   lookup,
		Keywords: keywords,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Lookup == nil {
		return ErrMissingLookupService
	}
	return nil
}
