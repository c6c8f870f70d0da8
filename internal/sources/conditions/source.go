// Package conditions queries the NLM Clinical Tables service for clinical
// conditions and ICD-10-CM diagnosis codes.
package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/sources"
)

// DefaultBaseURL is the Clinical Tables API root.
const DefaultBaseURL = "https://clinicaltables.nlm.nih.gov"

// maxList is how many candidates each search asks for.
const maxList = 5

// Ensure Source implements the interface.
var _ driven.Source = (*Source)(nil)

// Source looks up conditions and ICD-10-CM codes.
type Source struct {
	client *sources.Client
}

// New creates the conditions source. An empty baseURL uses DefaultBaseURL.
func New(httpClient *http.Client, baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client: sources.NewClient(httpClient, baseURL, sources.NewRateLimiter(domain.SourceConditions)),
	}
}

// Kind returns domain.SourceConditions.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceConditions
}

// Lookup runs the conditions and ICD-10-CM searches. Results that do not
// mention the keyword are dropped. The source fails only when both
// searches fail.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	conds, condErr := s.searchConditions(ctx, keyword)
	codes, codeErr := s.searchICD10(ctx, keyword)
	if condErr != nil && codeErr != nil {
		return nil, condErr
	}

	entries := make([]domain.LookupEntry, 0, len(conds)+len(codes))
	for _, c := range conds {
		entries = append(entries, domain.LookupEntry{
			Source:   domain.SourceConditions,
			Keyword:  keyword,
			Category: domain.CategoryCondition,
			Payload:  domain.Payload{Condition: c},
			Rank:     len(entries),
		})
	}
	for _, c := range codes {
		entries = append(entries, domain.LookupEntry{
			Source:   domain.SourceConditions,
			Keyword:  keyword,
			Category: domain.CategoryCondition,
			Payload:  domain.Payload{ICD10: c},
			Rank:     len(entries),
		})
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries, nil
}

func (s *Source) searchConditions(ctx context.Context, keyword string) ([]*domain.Condition, error) {
	query := url.Values{
		"terms":   {keyword},
		"maxList": {strconv.Itoa(maxList)},
		"df":      {"consumer_name,primary_name"},
		"ef":      {"icd10cm_codes"},
	}

	res, err := s.search(ctx, "/api/conditions/v3/search", query)
	if err != nil || res == nil {
		return nil, err
	}

	codes := res.extraField("icd10cm_codes")

	var out []*domain.Condition //nolint:prealloc
	for i, row := range res.display {
		consumer := cell(row, 0)
		primary := cell(row, 1)
		if !sources.TermMatches(keyword, consumer) && !sources.TermMatches(keyword, primary) {
			continue
		}
		c := &domain.Condition{ConsumerName: consumer, PrimaryName: primary}
		if i < len(codes) {
			c.ICD10Codes = codes[i]
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Source) searchICD10(ctx context.Context, keyword string) ([]*domain.ICD10Code, error) {
	query := url.Values{
		"sf":      {"code,name"},
		"terms":   {keyword},
		"maxList": {strconv.Itoa(maxList)},
	}

	res, err := s.search(ctx, "/api/icd10cm/v3/search", query)
	if err != nil || res == nil {
		return nil, err
	}

	var out []*domain.ICD10Code //nolint:prealloc
	for _, row := range res.display {
		code := cell(row, 0)
		name := cell(row, 1)
		if !sources.TermMatches(keyword, name) && !sources.TermMatches(keyword, code) {
			continue
		}
		out = append(out, &domain.ICD10Code{Code: code, Name: name})
	}
	return out, nil
}

// searchResult is the Clinical Tables answer:
// [total, codes, extra fields, display rows].
type searchResult struct {
	extra   map[string][]json.RawMessage
	display [][]string
}

func (s *Source) search(ctx context.Context, path string, query url.Values) (*searchResult, error) {
	var raw []json.RawMessage
	if err := s.client.GetJSON(ctx, path, query, &raw); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(raw) != 4 {
		return nil, fmt.Errorf("%w: expected 4 elements, got %d", domain.ErrMalformedResponse, len(raw))
	}

	res := &searchResult{}
	if !isNull(raw[2]) {
		if err := json.Unmarshal(raw[2], &res.extra); err != nil {
			return nil, fmt.Errorf("%w: extra fields: %v", domain.ErrMalformedResponse, err)
		}
	}
	if !isNull(raw[3]) {
		var rows [][]*string
		if err := json.Unmarshal(raw[3], &rows); err != nil {
			return nil, fmt.Errorf("%w: display rows: %v", domain.ErrMalformedResponse, err)
		}
		for _, r := range rows {
			row := make([]string, len(r))
			for i, v := range r {
				if v != nil {
					row[i] = *v
				}
			}
			res.display = append(res.display, row)
		}
	}
	return res, nil
}

// extraField returns per-row code lists. Values arrive either as a
// comma-separated string or as an array of strings.
func (r *searchResult) extraField(name string) [][]string {
	values := r.extra[name]
	out := make([][]string, len(values))
	for i, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[i] = splitCodes(s)
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[i] = list
		}
	}
	return out
}

func splitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
