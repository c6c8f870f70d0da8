package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
)

// Ensure TermStore implements the interface.
var _ driven.TermStore = (*TermStore)(nil)

// TermStore is an in-memory implementation of driven.TermStore.
type TermStore struct {
	mu      sync.RWMutex
	entries map[string]domain.LocalEntry
	now     func() time.Time
}

// NewTermStore creates a new in-memory term store.
func NewTermStore() *TermStore {
	return &TermStore{
		entries: make(map[string]domain.LocalEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the entry for an exact, case-insensitive keyword.
func (s *TermStore) Get(_ context.Context, keyword string) (*domain.LocalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[domain.NormalizeKeyword(keyword)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Put inserts a custom entry or overwrites an existing custom one.
func (s *TermStore) Put(_ context.Context, keyword, definition string, kind domain.EntryKind) (*domain.LocalEntry, error) {
	keyword = strings.TrimSpace(keyword)
	definition = strings.TrimSpace(definition)
	key := domain.NormalizeKeyword(keyword)
	if key == "" || definition == "" {
		return nil, domain.ErrInvalidInput
	}
	if kind == "" {
		kind = domain.KindAbbreviation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := domain.LocalEntry{
		Keyword:    keyword,
		Definition: definition,
		Origin:     domain.OriginCustom,
		Kind:       kind,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing, ok := s.entries[key]; ok {
		if existing.Protected() {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, keyword)
		}
		entry.CreatedAt = existing.CreatedAt
	}
	s.entries[key] = entry
	return &entry, nil
}

// Delete removes a custom entry.
func (s *TermStore) Delete(_ context.Context, keyword string) error {
	key := domain.NormalizeKeyword(keyword)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Protected() {
		return fmt.Errorf("%w: %s", domain.ErrProtected, existing.Keyword)
	}
	delete(s.entries, key)
	return nil
}

// Seed bulk-loads seeded entries, leaving existing keys untouched.
func (s *TermStore) Seed(_ context.Context, records []domain.SeedRecord) (int, error) {
	merged := domain.MergeSeedRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	inserted := 0
	for _, rec := range merged {
		key := domain.NormalizeKeyword(rec.Keyword)
		if _, ok := s.entries[key]; ok {
			continue
		}
		s.entries[key] = domain.LocalEntry{
			Keyword:    rec.Keyword,
			Definition: rec.Definition,
			Origin:     domain.OriginSeeded,
			Kind:       domain.KindAbbreviation,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		inserted++
	}
	return inserted, nil
}

// Search returns custom entries whose key contains the fragment, ordered by key.
func (s *TermStore) Search(_ context.Context, fragment string, limit int) ([]domain.LocalEntry, error) {
	needle := domain.NormalizeKeyword(fragment)
	if needle == "" {
		return nil, nil
	}

	s.mu.RLock()
	keys := make([]string, 0)
	for key, entry := range s.entries {
		if entry.Origin == domain.OriginCustom && strings.Contains(key, needle) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	result := make([]domain.LocalEntry, 0, len(keys))
	for _, key := range keys {
		result = append(result, s.entries[key])
	}
	s.mu.RUnlock()

	return result, nil
}

// Stats returns seeded and custom entry counts.
func (s *TermStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.StoreStats
	for _, e := range s.entries {
		switch e.Origin {
		case domain.OriginSeeded:
			stats.Seeded++
		case domain.OriginCustom:
			stats.Custom++
		}
	}
	return stats, nil
}
