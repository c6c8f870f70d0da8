// Package openfda fetches prescribing information from OpenFDA drug labels.
package openfda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/sources"
)

// DefaultBaseURL is the OpenFDA API root.
const DefaultBaseURL = "https://api.fda.gov"

// Ensure Source implements the interface.
var _ driven.Source = (*Source)(nil)

// Source looks up drug labels.
type Source struct {
	client *sources.Client
	apiKey string
}

// New creates the OpenFDA source. An empty baseURL uses DefaultBaseURL.
// apiKey is optional and raises the service's rate limits.
func New(httpClient *http.Client, baseURL, apiKey string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client: sources.NewClient(httpClient, baseURL, sources.NewRateLimiter(domain.SourceOpenFDA)),
		apiKey: apiKey,
	}
}

// Kind returns domain.SourceOpenFDA.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceOpenFDA
}

type labelResponse struct {
	Results []label `json:"results"`
}

type label struct {
	SetID                   string   `json:"set_id"`
	IndicationsAndUsage     []string `json:"indications_and_usage"`
	MechanismOfAction       []string `json:"mechanism_of_action"`
	DosageAndAdministration []string `json:"dosage_and_administration"`
	WarningsAndCautions     []string `json:"warnings_and_cautions"`
	Warnings                []string `json:"warnings"`
	BoxedWarning            []string `json:"boxed_warning"`
	Contraindications       []string `json:"contraindications"`
	AdverseReactions        []string `json:"adverse_reactions"`
	DrugInteractions        []string `json:"drug_interactions"`
	OpenFDA                 struct {
		BrandName        []string `json:"brand_name"`
		GenericName      []string `json:"generic_name"`
		Route            []string `json:"route"`
		PharmClassEPC    []string `json:"pharm_class_epc"`
		ManufacturerName []string `json:"manufacturer_name"`
	} `json:"openfda"`
}

// Lookup returns the first label whose generic name contains the keyword
// or whose brand name equals it. OpenFDA brand names can be comma lists
// ("Scrub, Scrub-Stat"); a keyword that is merely a substring of such a
// list is not a match.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	term := strings.ReplaceAll(strings.TrimSpace(keyword), `"`, "")
	query := url.Values{
		"search": {fmt.Sprintf(`openfda.generic_name:"%s" openfda.brand_name:"%s"`, term, term)},
		"limit":  {"1"},
	}
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}

	var res labelResponse
	if err := s.client.GetJSON(ctx, "/drug/label.json", query, &res); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, nil
	}

	l := res.Results[0]
	if !matches(term, l.OpenFDA.GenericName, l.OpenFDA.BrandName) {
		return nil, nil
	}

	info := &domain.DrugLabel{
		SetID:              l.SetID,
		BrandNames:         l.OpenFDA.BrandName,
		GenericNames:       l.OpenFDA.GenericName,
		Routes:             l.OpenFDA.Route,
		PharmacologicClass: l.OpenFDA.PharmClassEPC,
		Manufacturer:       l.OpenFDA.ManufacturerName,
		Indications:        first(l.IndicationsAndUsage),
		MechanismOfAction:  first(l.MechanismOfAction),
		Dosage:             first(l.DosageAndAdministration),
		Warnings:           first(l.WarningsAndCautions),
		BoxedWarning:       first(l.BoxedWarning),
		Contraindications:  first(l.Contraindications),
		AdverseReactions:   first(l.AdverseReactions),
		DrugInteractions:   first(l.DrugInteractions),
	}
	if info.Warnings == "" {
		info.Warnings = first(l.Warnings)
	}

	return []domain.LookupEntry{{
		Source:   domain.SourceOpenFDA,
		Keyword:  keyword,
		Category: domain.CategoryDrug,
		Payload:  domain.Payload{Label: info},
	}}, nil
}

func matches(term string, generic, brand []string) bool {
	t := strings.ToLower(term)
	for _, g := range generic {
		if strings.Contains(strings.ToLower(g), t) {
			return true
		}
	}
	for _, raw := range brand {
		for _, b := range strings.Split(raw, ",") {
			if strings.EqualFold(strings.TrimSpace(b), t) {
				return true
			}
		}
	}
	return false
}

// first returns the truncated first section text.
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return sources.Truncate(values[0])
}
