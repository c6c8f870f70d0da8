// Package mcp provides an MCP (Model Context Protocol) server adapter for medterm.
// It lets AI assistants look up medical terminology and maintain the local dictionary.
package mcp

import "errors"

// ErrMissingLookupService is returned when the lookup service is not provided.
var ErrMissingLookupService = errors.New("mcp: lookup service is required")
