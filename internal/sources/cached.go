package sources

import (
	"context"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/logger"
)

// CachedSource serves repeated lookups of a source from a LookupCache.
// Only non-empty successful answers are stored; errors and empty answers
// always reach the wrapped source.
type CachedSource struct {
	next  driven.Source
	cache driven.LookupCache
	ttl   time.Duration
}

// Ensure CachedSource implements the interface.
var _ driven.Source = (*CachedSource)(nil)

// Cached wraps next with cache. A nil cache returns next unchanged.
func Cached(next driven.Source, cache driven.LookupCache, ttl time.Duration) driven.Source {
	if cache == nil {
		return next
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl}
}

// CacheKey returns the cache key for a source and keyword.
func CacheKey(kind domain.SourceKind, keyword string) string {
	return string(kind) + ":" + domain.NormalizeKeyword(keyword)
}

// Kind returns the wrapped source's kind.
func (c *CachedSource) Kind() domain.SourceKind {
	return c.next.Kind()
}

// Lookup returns the cached answer when present, otherwise queries the
// wrapped source. Cache failures are logged and bypassed.
func (c *CachedSource) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	key := CacheKey(c.next.Kind(), keyword)

	entries, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Debug("cache get %s: %v", key, err)
	}
	if ok {
		for i := range entries {
			entries[i].Keyword = keyword
		}
		return entries, nil
	}

	entries, err = c.next.Lookup(ctx, keyword)
	if err != nil || len(entries) == 0 {
		return entries, err
	}

	if err := c.cache.Set(ctx, key, entries, c.ttl); err != nil {
		logger.Debug("cache set %s: %v", key, err)
	}
	return entries, nil
}
