package mcp

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// mockLookupService is a mock implementation of driving.LookupService.
type mockLookupService struct {
	results  []domain.AggregatedResult
	sources  []domain.SourceKind
	err      error
	keywords []string
	opts     domain.LookupOptions
}

func (m *mockLookupService) LookupMany(
	_ context.Context,
	keywords []string,
	opts domain.LookupOptions,
) ([]domain.AggregatedResult, error) {
	m.keywords = keywords
	m.opts = opts
	return m.results, m.err
}

func (m *mockLookupService) Sources() []domain.SourceKind {
	return m.sources
}

// mockKeywordService is a mock implementation of driving.KeywordService.
type mockKeywordService struct {
	entry     *domain.LocalEntry
	stats     domain.StoreStats
	addErr    error
	removeErr error
	statsErr  error
	added     []string
	removed   []string
	kinds     []domain.EntryKind
}

func (m *mockKeywordService) Add(
	_ context.Context, keyword, _ string, kind domain.EntryKind,
) (*domain.LocalEntry, error) {
	m.added = append(m.added, keyword)
	m.kinds = append(m.kinds, kind)
	return m.entry, m.addErr
}

func (m *mockKeywordService) Remove(_ context.Context, keyword string) error {
	m.removed = append(m.removed, keyword)
	return m.removeErr
}

func (m *mockKeywordService) Stats(_ context.Context) (domain.StoreStats, error) {
	return m.stats, m.statsErr
}
