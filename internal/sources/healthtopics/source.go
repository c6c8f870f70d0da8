// Package healthtopics queries MedlinePlus for plain-language health topic
// summaries.
package healthtopics

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/sources"
)

// DefaultBaseURL is the MedlinePlus web service root.
const DefaultBaseURL = "https://wsearch.nlm.nih.gov"

const retMax = 3

// Ensure Source implements the interface.
var _ driven.Source = (*Source)(nil)

// Source looks up MedlinePlus health topics.
type Source struct {
	client *sources.Client
}

// New creates the health topics source. An empty baseURL uses DefaultBaseURL.
func New(httpClient *http.Client, baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client: sources.NewClient(httpClient, baseURL, sources.NewRateLimiter(domain.SourceHealthTopics)),
	}
}

// Kind returns domain.SourceHealthTopics.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceHealthTopics
}

type searchResult struct {
	Documents []document `xml:"list>document"`
}

type document struct {
	URL   string       `xml:"url,attr"`
	Topic *healthTopic `xml:"health-topic"`
}

type healthTopic struct {
	Title       string   `xml:"title,attr"`
	URL         string   `xml:"url,attr"`
	AlsoCalled  []string `xml:"also-called"`
	FullSummary string   `xml:"full-summary"`
}

// Lookup returns one entry per topic whose title mentions the keyword.
// Summaries arrive as escaped HTML and are reduced to plain text.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	query := url.Values{
		"db":      {"healthTopics"},
		"term":    {keyword},
		"rettype": {"topic"},
		"retmax":  {strconv.Itoa(retMax)},
	}

	var res searchResult
	if err := s.client.GetXML(ctx, "/ws/query", query, &res); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.LookupEntry //nolint:prealloc
	for _, doc := range res.Documents {
		ht := doc.Topic
		if ht == nil || !sources.TermMatches(keyword, ht.Title) {
			continue
		}

		topic := &domain.HealthTopic{
			Title:   ht.Title,
			URL:     ht.URL,
			Summary: sources.Truncate(sources.StripHTML(ht.FullSummary)),
		}
		if topic.URL == "" {
			topic.URL = doc.URL
		}
		for _, ac := range ht.AlsoCalled {
			if ac = strings.TrimSpace(ac); ac != "" {
				topic.AlsoCalled = append(topic.AlsoCalled, ac)
			}
		}

		entries = append(entries, domain.LookupEntry{
			Source:   domain.SourceHealthTopics,
			Keyword:  keyword,
			Category: domain.CategoryCondition,
			Payload:  domain.Payload{Topic: topic},
			Rank:     len(entries),
		})
	}
	return entries, nil
}
