// Package umls queries the UMLS Terminology Services for concepts and their
// definitions. The service requires an API key; without one the Unavailable
// source stands in and reports the missing credential on every lookup.
package umls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/logger"
	"github.com/custodia-labs/medterm/internal/sources"
)

// DefaultBaseURL is the UTS REST root.
const DefaultBaseURL = "https://uts-ws.nlm.nih.gov"

const (
	pageSize          = 5
	maxConcepts       = 3
	maxDefinitions    = 2
	noResultsSentinel = "NONE"
)

// Ensure both variants implement the interface.
var (
	_ driven.Source = (*Source)(nil)
	_ driven.Source = Unavailable{}
)

// Source looks up UMLS concepts.
type Source struct {
	client *sources.Client
	apiKey string
}

// New creates the UMLS source. An empty baseURL uses DefaultBaseURL.
func New(httpClient *http.Client, baseURL, apiKey string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client: sources.NewClient(httpClient, baseURL, sources.NewRateLimiter(domain.SourceUMLS)),
		apiKey: apiKey,
	}
}

// Kind returns domain.SourceUMLS.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceUMLS
}

type searchResponse struct {
	Result struct {
		Results []struct {
			UI   string `json:"ui"`
			Name string `json:"name"`
		} `json:"results"`
	} `json:"result"`
}

type definitionsResponse struct {
	Result []struct {
		Value string `json:"value"`
	} `json:"result"`
}

// Lookup returns up to three concepts, each with up to two definitions.
// A concept whose definitions cannot be fetched is still reported.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	query := url.Values{
		"string":     {keyword},
		"apiKey":     {s.apiKey},
		"pageSize":   {fmt.Sprint(pageSize)},
		"searchType": {"words"},
	}

	var res searchResponse
	if err := s.client.GetJSON(ctx, "/rest/search/current", query, &res); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.LookupEntry //nolint:prealloc
	for _, r := range res.Result.Results {
		if len(entries) == maxConcepts {
			break
		}
		if r.UI == "" || r.UI == noResultsSentinel {
			continue
		}

		concept := &domain.Concept{CUI: r.UI, Name: r.Name}
		defs, err := s.definitions(ctx, r.UI)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Debug("umls definitions %s: %v", r.UI, err)
		}
		concept.Definitions = defs

		entries = append(entries, domain.LookupEntry{
			Source:   domain.SourceUMLS,
			Keyword:  keyword,
			Category: domain.CategoryConcept,
			Payload:  domain.Payload{Concept: concept},
			Rank:     len(entries),
		})
	}
	return entries, nil
}

func (s *Source) definitions(ctx context.Context, cui string) ([]string, error) {
	var res definitionsResponse
	path := "/rest/content/current/CUI/" + url.PathEscape(cui) + "/definitions"
	if err := s.client.GetJSON(ctx, path, url.Values{"apiKey": {s.apiKey}}, &res); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var defs []string
	for _, d := range res.Result {
		if len(defs) == maxDefinitions {
			break
		}
		if v := strings.TrimSpace(sources.StripHTML(d.Value)); v != "" {
			defs = append(defs, sources.Truncate(v))
		}
	}
	return defs, nil
}

// Unavailable is the UMLS source used when no API key is configured.
// It performs no I/O and always fails with domain.ErrAuthRequired.
type Unavailable struct{}

// Kind returns domain.SourceUMLS.
func (Unavailable) Kind() domain.SourceKind {
	return domain.SourceUMLS
}

// Lookup always returns domain.ErrAuthRequired.
func (Unavailable) Lookup(context.Context, string) ([]domain.LookupEntry, error) {
	return nil, fmt.Errorf("%w: UMLS API key not configured", domain.ErrAuthRequired)
}

// NewOrUnavailable returns a live source when apiKey is set, else Unavailable.
func NewOrUnavailable(httpClient *http.Client, baseURL, apiKey string) driven.Source {
	if strings.TrimSpace(apiKey) == "" {
		return Unavailable{}
	}
	return New(httpClient, baseURL, apiKey)
}
