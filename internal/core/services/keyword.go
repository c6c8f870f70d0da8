package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
	"github.com/custodia-labs/medterm/internal/logger"
)

// Ensure KeywordService implements the interface.
var _ driving.KeywordService = (*KeywordService)(nil)

// KeywordService applies user mutations to the local dictionary.
// Mutations of the same keyword are serialised; different keywords
// proceed independently.
type KeywordService struct {
	store driven.TermStore
	locks *keyedMutex
}

// NewKeywordService creates a keyword service over store.
func NewKeywordService(store driven.TermStore) *KeywordService {
	return &KeywordService{
		store: store,
		locks: newKeyedMutex(),
	}
}

// Add stores a custom definition for keyword, overwriting an earlier custom one.
func (s *KeywordService) Add(
	ctx context.Context, keyword, definition string, kind domain.EntryKind,
) (*domain.LocalEntry, error) {
	keyword = strings.TrimSpace(keyword)
	definition = strings.TrimSpace(definition)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}
	if definition == "" {
		return nil, fmt.Errorf("%w: definition is required", domain.ErrInvalidInput)
	}
	if kind == "" {
		kind = domain.KindAbbreviation
	}

	unlock := s.locks.lock(domain.NormalizeKeyword(keyword))
	defer unlock()

	entry, err := s.store.Put(ctx, keyword, definition, kind)
	if err != nil {
		return nil, fmt.Errorf("add %q: %w", keyword, err)
	}
	logger.Debug("added %s %q", kind, keyword)
	return entry, nil
}

// Remove deletes a custom keyword.
func (s *KeywordService) Remove(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.lock(domain.NormalizeKeyword(keyword))
	defer unlock()

	if err := s.store.Delete(ctx, keyword); err != nil {
		return fmt.Errorf("remove %q: %w", keyword, err)
	}
	logger.Debug("removed %q", keyword)
	return nil
}

// Stats returns the dictionary counts.
func (s *KeywordService) Stats(ctx context.Context) (domain.StoreStats, error) {
	return s.store.Stats(ctx)
}

// keyedMutex hands out one mutex per key and drops it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// held returns the number of keys currently locked or awaited.
func (k *keyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
