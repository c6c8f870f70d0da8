package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for medterm resources.
	uriScheme = "medterm://"
)

// StatsOutput is the body of the stats resource.
type StatsOutput struct {
	Dictionary *domain.StoreStats  `json:"dictionary,omitempty"`
	Sources    []domain.SourceKind `json:"sources"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for dictionary counts and active sources.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Local dictionary counts and the sources consulted by lookups",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for a single keyword read from the local dictionary only.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "terms/{keyword}",
		Name:        "local-term",
		Description: "Local dictionary entry for a keyword",
		MIMEType:    "application/json",
	}, s.handleTermResource)
}

// handleStatsResource returns dictionary counts and the active sources.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	out := StatsOutput{Sources: s.ports.Lookup.Sources()}

	if s.ports.Keywords != nil {
		stats, err := s.ports.Keywords.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
		out.Dictionary = &stats
	}

	return jsonResource(req.Params.URI, out)
}

// handleTermResource returns the local dictionary result for one keyword.
func (s *Server) handleTermResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract keyword from URI: medterm://terms/{keyword}
	keyword := extractKeyword(req.Params.URI)
	if keyword == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Lookup.LookupMany(ctx, []string{keyword}, domain.LookupOptions{
		Sources: []domain.SourceKind{domain.SourceLocal},
	})
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", keyword, err)
	}
	if len(results) == 0 || !results[0].Found {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, results[0])
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractKeyword extracts the keyword from a URI like medterm://terms/{keyword}.
func extractKeyword(uri string) string {
	const prefix = uriScheme + "terms/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	keyword, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(keyword)
}
