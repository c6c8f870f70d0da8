package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// LookupInput is the input schema for the lookup_keyword tool.
type LookupInput struct {
	Keywords []string `json:"keywords" jsonschema:"one or more medical keywords to look up, e.g. [\"ABG\", \"diabetes\"]"`
}

// LookupOutput is the output schema for the lookup_keyword tool.
type LookupOutput struct {
	Results []domain.AggregatedResult `json:"results"`
}

// AddInput is the input schema for the add_new_keyword tool.
type AddInput struct {
	Keyword    string `json:"keyword" jsonschema:"the abbreviation or term to add, e.g. ROSC or Troponin I"`
	Definition string `json:"definition" jsonschema:"the meaning or definition"`
	EntryType  string `json:"entry_type,omitempty" jsonschema:"abbreviation (default) or term"`
}

// RemoveInput is the input schema for the remove_keyword tool.
type RemoveInput struct {
	Keyword string `json:"keyword" jsonschema:"the custom abbreviation or term to remove"`
}

// MutationOutput reports the result of an add or remove.
type MutationOutput struct {
	Success    bool   `json:"success"`
	Outcome    string `json:"outcome"`
	EntryType  string `json:"entry_type,omitempty"`
	Keyword    string `json:"keyword"`
	Definition string `json:"definition,omitempty"`
	Message    string `json:"message"`
}

// Add outcomes reported to clients.
const (
	outcomeAdded        = "added"
	outcomeExists       = "already_exists"
	outcomeInvalidInput = "invalid_input"
)

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "lookup_keyword",
		Description: "Look up one or more medical keywords across the local abbreviation dictionary, " +
			"NLM conditions and ICD-10-CM codes, MedlinePlus health topics, RxNorm, OpenFDA drug labels " +
			"and UMLS concepts. Returns one result per keyword in input order.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  boolPtr(true),
		},
	}, s.handleLookup)

	if s.ports.Keywords == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "add_new_keyword",
		Description: "Save a custom abbreviation or term definition to the local dictionary. " +
			"Built-in entries cannot be overwritten.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint:  true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, s.handleAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_keyword",
		Description: "Remove a custom-added keyword. Built-in entries cannot be removed.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint:  true,
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(false),
		},
	}, s.handleRemove)
}

// handleLookup handles the lookup_keyword tool invocation.
func (s *Server) handleLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, LookupOutput, error) {
	results, err := s.ports.Lookup.LookupMany(ctx, input.Keywords, domain.LookupOptions{})
	if err != nil {
		return nil, LookupOutput{}, err
	}
	return nil, LookupOutput{Results: results}, nil
}

// handleAdd handles the add_new_keyword tool invocation.
func (s *Server) handleAdd(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddInput,
) (*mcp.CallToolResult, MutationOutput, error) {
	keyword := strings.TrimSpace(input.Keyword)
	definition := strings.TrimSpace(input.Definition)
	out := MutationOutput{Keyword: keyword, Definition: definition}

	kind, err := domain.ParseEntryKind(input.EntryType)
	if err != nil {
		out.Outcome = outcomeInvalidInput
		out.Message = fmt.Sprintf("Unknown entry type %q. Use 'abbreviation' or 'term'.", input.EntryType)
		return nil, out, nil
	}
	out.EntryType = kind.String()

	entry, err := s.ports.Keywords.Add(ctx, keyword, definition, kind)
	switch {
	case err == nil:
		out.Success = true
		out.Outcome = outcomeAdded
		out.Keyword = entry.Keyword
		out.Definition = entry.Definition
		out.Message = fmt.Sprintf("Added %s: %s → %s", kind, entry.Keyword, entry.Definition)
	case errors.Is(err, domain.ErrAlreadyExists):
		out.Outcome = outcomeExists
		out.Message = fmt.Sprintf("'%s' is a built-in entry and cannot be changed.", keyword)
	case errors.Is(err, domain.ErrInvalidInput):
		out.Outcome = outcomeInvalidInput
		out.Message = "Both keyword and definition must be non-empty."
	default:
		return nil, MutationOutput{}, err
	}
	return nil, out, nil
}

// handleRemove handles the remove_keyword tool invocation.
func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, MutationOutput, error) {
	keyword := strings.TrimSpace(input.Keyword)
	out := MutationOutput{Keyword: keyword}

	err := s.ports.Keywords.Remove(ctx, keyword)
	if errors.Is(err, domain.ErrInvalidInput) {
		out.Outcome = outcomeInvalidInput
		out.Message = "Keyword must be non-empty."
		return nil, out, nil
	}

	outcome, ok := domain.RemoveOutcomeOf(err)
	if !ok {
		return nil, MutationOutput{}, err
	}

	out.Outcome = outcome.String()
	switch outcome {
	case domain.RemoveRemoved:
		out.Success = true
		out.Message = fmt.Sprintf("Removed %s", keyword)
	case domain.RemoveNotFound:
		out.Message = fmt.Sprintf("Entry not found: %s", keyword)
	case domain.RemoveProtected:
		out.Message = "Cannot remove built-in entries. Only custom-added entries can be removed."
	}
	return nil, out, nil
}

func boolPtr(b bool) *bool {
	return &b
}
