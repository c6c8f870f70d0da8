// Package abbreviation serves partial keyword matches over user-added
// dictionary entries. Seeded rows reach results only through the exact
// match the aggregator reads directly.
package abbreviation

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
)

// DefaultLimit caps how many partial matches are returned.
const DefaultLimit = 10

// Ensure Source implements the interface.
var _ driven.Source = (*Source)(nil)

// Source looks up custom entries whose keyword contains the query.
type Source struct {
	store driven.TermStore
	limit int
}

// New creates the abbreviation source over store.
func New(store driven.TermStore, limit int) *Source {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Source{store: store, limit: limit}
}

// Kind returns domain.SourceAbbreviation.
func (s *Source) Kind() domain.SourceKind {
	return domain.SourceAbbreviation
}

// Lookup returns one Definition entry per matching dictionary row.
func (s *Source) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	matches, err := s.store.Search(ctx, keyword, s.limit)
	if err != nil {
		return nil, err
	}

	var entries []domain.LookupEntry //nolint:prealloc
	for i, m := range matches {
		entries = append(entries, domain.LookupEntry{
			Source:   domain.SourceAbbreviation,
			Keyword:  keyword,
			Category: m.Kind.Category(),
			Payload: domain.Payload{Definition: &domain.Definition{
				Keyword:    m.Keyword,
				Definition: m.Definition,
				Origin:     m.Origin,
			}},
			Rank: i,
		})
	}
	return entries, nil
}
