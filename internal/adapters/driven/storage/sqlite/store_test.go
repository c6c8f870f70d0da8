package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func seedBasics(t *testing.T, store *Store) {
	t.Helper()
	n, err := store.Seed(context.Background(), []domain.SeedRecord{
		{Keyword: "ABG", Definition: "Arterial Blood Gas"},
		{Keyword: "BP", Definition: "Blood Pressure"},
		{Keyword: "HTN", Definition: "Hypertension"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".medterm", "data", DatabaseFile), store.Path())
}

func TestNewStore_MigrationsApplyOnce(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	seedBasics(t, store)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var versions int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)

	stats, err := reopened.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Seeded, "data survives reopen")
}

func TestStore_Get(t *testing.T) {
	store := setupTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	t.Run("case insensitive", func(t *testing.T) {
		entry, err := store.Get(ctx, "  abg ")
		require.NoError(t, err)
		assert.Equal(t, "ABG", entry.Keyword)
		assert.Equal(t, "Arterial Blood Gas", entry.Definition)
		assert.Equal(t, domain.OriginSeeded, entry.Origin)
		assert.Equal(t, domain.KindAbbreviation, entry.Kind)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Get(ctx, "XYZ")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("blank", func(t *testing.T) {
		_, err := store.Get(ctx, "   ")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_Put_InsertsCustom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry, err := store.Put(ctx, "SOB", "Shortness of breath", domain.KindAbbreviation)
	require.NoError(t, err)
	assert.Equal(t, domain.OriginCustom, entry.Origin)

	got, err := store.Get(ctx, "sob")
	require.NoError(t, err)
	assert.Equal(t, "Shortness of breath", got.Definition)
	assert.Equal(t, domain.OriginCustom, got.Origin)
}

func TestStore_Put_OverwritesCustom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_, err := store.Put(ctx, "wbc", "White cells", domain.KindAbbreviation)
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(time.Hour) }
	updated, err := store.Put(ctx, "WBC", "White blood cell count", domain.KindTerm)
	require.NoError(t, err)
	assert.Equal(t, base, updated.CreatedAt)

	got, err := store.Get(ctx, "wbc")
	require.NoError(t, err)
	assert.Equal(t, "White blood cell count", got.Definition)
	assert.Equal(t, domain.KindTerm, got.Kind)
	assert.Equal(t, base, got.CreatedAt)
	assert.Equal(t, base.Add(time.Hour), got.UpdatedAt)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Custom)
}

func TestStore_Put_SeededCollisionLeavesStoreUnchanged(t *testing.T) {
	store := setupTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	_, err := store.Put(ctx, "bp", "Something else", domain.KindAbbreviation)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := store.Get(ctx, "BP")
	require.NoError(t, err)
	assert.Equal(t, "Blood Pressure", got.Definition)
	assert.Equal(t, domain.OriginSeeded, got.Origin)
}

func TestStore_Put_InvalidInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, " ", "x", domain.KindAbbreviation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Put(ctx, "x", "  ", domain.KindAbbreviation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	_, err := store.Put(ctx, "SOB", "Shortness of breath", domain.KindAbbreviation)
	require.NoError(t, err)

	tests := []struct {
		name    string
		keyword string
		wantErr error
	}{
		{"custom removed", "sob", nil},
		{"already removed", "SOB", domain.ErrNotFound},
		{"seeded protected", "ABG", domain.ErrProtected},
		{"never existed", "ZZZ", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Delete(ctx, tt.keyword)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = store.Get(ctx, "ABG")
	assert.NoError(t, err, "protected entry survives")
}

func TestStore_Seed_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	records := []domain.SeedRecord{
		{Keyword: "PRN", Definition: "As needed"},
		{Keyword: "prn", Definition: "Pro re nata"},
		{Keyword: "PRN", Definition: "As needed"},
		{Keyword: "QD", Definition: "Every day"},
	}

	n, err := store.Seed(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Seed(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := store.Get(ctx, "prn")
	require.NoError(t, err)
	assert.Equal(t, "As needed; Pro re nata", got.Definition)
	assert.Equal(t, "PRN", got.Keyword)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Seeded: 2}, stats)
}

func TestStore_Seed_KeepsExistingCustom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "NPO", "Nothing by mouth", domain.KindAbbreviation)
	require.NoError(t, err)

	n, err := store.Seed(ctx, []domain.SeedRecord{{Keyword: "NPO", Definition: "Nil per os"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := store.Get(ctx, "npo")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginCustom, got.Origin)
}

func TestStore_Search(t *testing.T) {
	store := setupTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	_, err := store.Put(ctx, "ABGs", "Arterial blood gases", domain.KindAbbreviation)
	require.NoError(t, err)

	_, err = store.Put(ctx, "ABG panel", "Blood gas panel", domain.KindTerm)
	require.NoError(t, err)

	got, err := store.Search(ctx, "abg", 0)
	require.NoError(t, err)
	require.Len(t, got, 2, "seeded ABG only matches exactly")
	assert.Equal(t, "ABG panel", got[0].Keyword)
	assert.Equal(t, "ABGs", got[1].Keyword)
	for _, e := range got {
		assert.Equal(t, domain.OriginCustom, e.Origin)
	}

	limited, err := store.Search(ctx, "b", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	wild, err := store.Search(ctx, "%", 0)
	require.NoError(t, err)
	assert.Empty(t, wild, "wildcards are matched literally")

	blank, err := store.Search(ctx, " ", 0)
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestStore_ConcurrentAddRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_, err := store.Put(ctx, "fresh", fmt.Sprintf("def %d", n), domain.KindAbbreviation)
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			err := store.Delete(ctx, "fresh")
			if err != nil {
				assert.True(t, errors.Is(err, domain.ErrNotFound), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, err := store.Get(ctx, "fresh")
	if err != nil {
		assert.ErrorIs(t, err, domain.ErrNotFound)
		return
	}
	assert.Equal(t, domain.OriginCustom, entry.Origin)
}
