package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medterm/internal/core/domain"
)

// countingSource is a test double that counts calls.
type countingSource struct {
	calls   int
	entries []domain.LookupEntry
	err     error
}

func (s *countingSource) Kind() domain.SourceKind { return domain.SourceConditions }

func (s *countingSource) Lookup(_ context.Context, keyword string) ([]domain.LookupEntry, error) {
	s.calls++
	out := make([]domain.LookupEntry, len(s.entries))
	copy(out, s.entries)
	for i := range out {
		out[i].Keyword = keyword
	}
	return out, s.err
}

func conditionEntry() domain.LookupEntry {
	return domain.LookupEntry{
		Source:   domain.SourceConditions,
		Category: domain.CategoryCondition,
		Payload:  domain.Payload{Condition: &domain.Condition{PrimaryName: "Asthma"}},
	}
}

func TestCached_NilCacheReturnsSource(t *testing.T) {
	src := &countingSource{}
	assert.Same(t, src, Cached(src, nil, time.Minute))
}

func TestCached_HitSkipsSource(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{entries: []domain.LookupEntry{conditionEntry()}}
	cached := Cached(src, memory.NewCache(), time.Minute)

	assert.Equal(t, domain.SourceConditions, cached.Kind())

	first, err := cached.Lookup(ctx, "asthma")
	require.NoError(t, err)
	second, err := cached.Lookup(ctx, "ASTHMA")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	require.Len(t, second, 1)
	assert.Equal(t, "ASTHMA", second[0].Keyword, "keyword follows the caller")
	assert.Equal(t, first[0].Payload, second[0].Payload)
}

func TestCached_EmptyAndErrorsNotCached(t *testing.T) {
	ctx := context.Background()

	empty := &countingSource{}
	cached := Cached(empty, memory.NewCache(), time.Minute)
	_, _ = cached.Lookup(ctx, "x")
	_, _ = cached.Lookup(ctx, "x")
	assert.Equal(t, 2, empty.calls)

	failing := &countingSource{entries: []domain.LookupEntry{conditionEntry()}, err: errors.New("boom")}
	cached = Cached(failing, memory.NewCache(), time.Minute)
	_, err := cached.Lookup(ctx, "x")
	assert.Error(t, err)
	_, _ = cached.Lookup(ctx, "x")
	assert.Equal(t, 2, failing.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "rxnorm:metformin", CacheKey(domain.SourceRxNorm, "  Metformin "))
}
