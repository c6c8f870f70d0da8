package mcp

import (
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Lookup aggregates keyword lookups across sources.
	Lookup driving.LookupService

	// Keywords mutates the local dictionary.
	// Without it the add and remove tools are not offered.
	Keywords driving.KeywordService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Lookup == nil {
		return ErrMissingLookupService
	}
	return nil
}
