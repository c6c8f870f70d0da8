// Package rxnorm resolves drug names against RxNorm and RxClass, reporting
// clinical formulations and ATC drug classes.
package rxnorm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/sources"
)

// DefaultBaseURL is the RxNav REST root.
const DefaultBaseURL = "https://rxnav.nlm.nih.gov/REST"

// MaxFormulations caps the formulations reported per drug.
const MaxFormulations = 10

// Ensure Source implements the interface.
var _ driven.Source = (*Source)(nil)

// Source looks up drug formulations and classes.
type Source struct {
	client *sources.Client
}

// New creates the RxNorm source. An empty baseURL uses DefaultBaseURL.
func New(httpClient *http.Client, baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client: sources.NewClient(httpClient, baseURL, sources.NewRateLimiter(domain.SourceRxNorm)),
	}
}

// Kind returns domain.SourceRxNorm.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceRxNorm
}

type conceptGroups struct {
	ConceptGroup []struct {
		TTY               string `json:"tty"`
		ConceptProperties []struct {
			RxCUI string `json:"rxcui"`
			Name  string `json:"name"`
		} `json:"conceptProperties"`
	} `json:"conceptGroup"`
}

type drugsResponse struct {
	DrugGroup conceptGroups `json:"drugGroup"`
}

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI string `json:"rxcui"`
			Name  string `json:"name"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

type relatedResponse struct {
	RelatedGroup conceptGroups `json:"relatedGroup"`
}

type classResponse struct {
	RxclassDrugInfoList struct {
		RxclassDrugInfo []struct {
			RxclassMinConceptItem struct {
				ClassName string `json:"className"`
			} `json:"rxclassMinConceptItem"`
		} `json:"rxclassDrugInfo"`
	} `json:"rxclassDrugInfoList"`
}

// Lookup returns a single Drug entry combining formulations and classes.
// Exact name resolution is tried first, then an approximate match whose
// related clinical and branded drugs supply the formulations. The source
// fails only when every call fails.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	drug := &domain.DrugFormulation{}
	var errs []error
	calls := 0

	calls++
	if err := s.exact(ctx, keyword, drug); err != nil {
		errs = append(errs, err)
	}

	if len(drug.Formulations) == 0 {
		calls++
		if err := s.approximate(ctx, keyword, drug); err != nil {
			errs = append(errs, err)
		}
	}

	calls++
	if err := s.classes(ctx, keyword, drug); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == calls {
		return nil, errs[0]
	}
	if len(drug.Formulations) == 0 && len(drug.DrugClasses) == 0 {
		return nil, nil
	}

	return []domain.LookupEntry{{
		Source:   domain.SourceRxNorm,
		Keyword:  keyword,
		Category: domain.CategoryDrug,
		Payload:  domain.Payload{Formulation: drug},
	}}, nil
}

func (s *Source) exact(ctx context.Context, keyword string, drug *domain.DrugFormulation) error {
	var res drugsResponse
	if err := s.get(ctx, "/drugs.json", url.Values{"name": {keyword}}, &res); err != nil {
		return err
	}
	for _, g := range res.DrugGroup.ConceptGroup {
		for _, c := range g.ConceptProperties {
			if drug.RxCUI == "" {
				drug.RxCUI = c.RxCUI
			}
			drug.Formulations = appendCapped(drug.Formulations, c.Name)
		}
	}
	return nil
}

func (s *Source) approximate(ctx context.Context, keyword string, drug *domain.DrugFormulation) error {
	var res approximateResponse
	query := url.Values{"term": {keyword}, "maxEntries": {"1"}}
	if err := s.get(ctx, "/approximateTerm.json", query, &res); err != nil {
		return err
	}
	candidates := res.ApproximateGroup.Candidate
	if len(candidates) == 0 || candidates[0].RxCUI == "" {
		return nil
	}

	best := candidates[0]
	drug.RxCUI = best.RxCUI
	if best.Name != "" && !strings.EqualFold(best.Name, keyword) {
		drug.MatchedName = best.Name
	}

	var related relatedResponse
	path := "/rxcui/" + url.PathEscape(best.RxCUI) + "/related.json"
	if err := s.get(ctx, path, url.Values{"tty": {"SCD SBD"}}, &related); err != nil {
		return err
	}
	for _, g := range related.RelatedGroup.ConceptGroup {
		for _, c := range g.ConceptProperties {
			drug.Formulations = appendCapped(drug.Formulations, c.Name)
		}
	}
	return nil
}

func (s *Source) classes(ctx context.Context, keyword string, drug *domain.DrugFormulation) error {
	var res classResponse
	query := url.Values{"drugName": {keyword}, "relaSource": {"ATC"}}
	if err := s.get(ctx, "/rxclass/class/byDrugName.json", query, &res); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, info := range res.RxclassDrugInfoList.RxclassDrugInfo {
		name := info.RxclassMinConceptItem.ClassName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		drug.DrugClasses = append(drug.DrugClasses, name)
	}
	return nil
}

// get treats a 404 as an empty answer.
func (s *Source) get(ctx context.Context, path string, query url.Values, out any) error {
	err := s.client.GetJSON(ctx, path, query, out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func appendCapped(list []string, name string) []string {
	if name == "" || len(list) >= MaxFormulations {
		return list
	}
	return append(list, name)
}
