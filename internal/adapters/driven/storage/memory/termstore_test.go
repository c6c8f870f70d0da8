package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

func seededStore(t *testing.T) *TermStore {
	t.Helper()
	store := NewTermStore()
	n, err := store.Seed(context.Background(), []domain.SeedRecord{
		{Keyword: "ABG", Definition: "Arterial Blood Gas"},
		{Keyword: "BP", Definition: "Blood Pressure"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	return store
}

func TestTermStore_Get(t *testing.T) {
	store := seededStore(t)

	entry, err := store.Get(context.Background(), " abg")
	require.NoError(t, err)
	assert.Equal(t, "ABG", entry.Keyword)
	assert.Equal(t, domain.OriginSeeded, entry.Origin)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTermStore_Put(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	t.Run("seeded collision", func(t *testing.T) {
		_, err := store.Put(ctx, "bp", "Bad", domain.KindAbbreviation)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)

		got, err := store.Get(ctx, "BP")
		require.NoError(t, err)
		assert.Equal(t, "Blood Pressure", got.Definition)
	})

	t.Run("insert then overwrite", func(t *testing.T) {
		first, err := store.Put(ctx, "SOB", "Shortness", domain.KindAbbreviation)
		require.NoError(t, err)

		second, err := store.Put(ctx, "sob", "Shortness of breath", domain.KindTerm)
		require.NoError(t, err)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)

		got, err := store.Get(ctx, "SOB")
		require.NoError(t, err)
		assert.Equal(t, "Shortness of breath", got.Definition)
		assert.Equal(t, domain.KindTerm, got.Kind)
	})

	t.Run("blank", func(t *testing.T) {
		_, err := store.Put(ctx, "", "x", domain.KindAbbreviation)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestTermStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	_, err := store.Put(ctx, "SOB", "Shortness of breath", domain.KindAbbreviation)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(ctx, "ABG"), domain.ErrProtected)
	assert.ErrorIs(t, store.Delete(ctx, "zzz"), domain.ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "sob"))

	_, err = store.Get(ctx, "SOB")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTermStore_SeedIdempotent(t *testing.T) {
	store := seededStore(t)

	n, err := store.Seed(context.Background(), []domain.SeedRecord{
		{Keyword: "ABG", Definition: "Arterial Blood Gas"},
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Seeded: 2}, stats)
}

func TestTermStore_Search(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	_, err := store.Put(ctx, "ABGs", "Arterial blood gases", domain.KindAbbreviation)
	require.NoError(t, err)

	_, err = store.Put(ctx, "ABG panel", "Blood gas panel", domain.KindTerm)
	require.NoError(t, err)

	got, err := store.Search(ctx, "AB", 0)
	require.NoError(t, err)
	require.Len(t, got, 2, "seeded ABG only matches exactly")
	assert.Equal(t, "ABG panel", got[0].Keyword)
	assert.Equal(t, "ABGs", got[1].Keyword)

	got, err = store.Search(ctx, "b", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.Search(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTermStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTermStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = store.Put(ctx, "fresh", "def", domain.KindAbbreviation)
		}()
		go func() {
			defer wg.Done()
			_ = store.Delete(ctx, "fresh")
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Search(ctx, "fr", 0)
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.Custom, 1)
	assert.Zero(t, stats.Seeded)
}
