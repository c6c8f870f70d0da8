package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

func TestQueryChanged(t *testing.T) {
	t.Run("with valid query", func(t *testing.T) {
		msg := QueryChanged{Query: "ABG, metformin"}
		assert.Equal(t, "ABG, metformin", msg.Query)
	})

	t.Run("with empty query", func(t *testing.T) {
		msg := QueryChanged{Query: ""}
		assert.Empty(t, msg.Query)
	})
}

func TestLookupRequested(t *testing.T) {
	opts := domain.LookupOptions{Sources: []domain.SourceKind{domain.SourceLocal, domain.SourceRxNorm}}
	msg := LookupRequested{Keywords: []string{"ABG", "metformin"}, Options: opts}

	require.Len(t, msg.Keywords, 2)
	assert.True(t, msg.Options.Includes(domain.SourceRxNorm))
	assert.False(t, msg.Options.Includes(domain.SourceUMLS))
}

func TestLookupCompleted(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		msg := LookupCompleted{Results: []domain.AggregatedResult{{Keyword: "ABG", Found: true}}}
		require.Len(t, msg.Results, 1)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := LookupCompleted{Err: domain.ErrInvalidInput}
		assert.Nil(t, msg.Results)
		assert.ErrorIs(t, msg.Err, domain.ErrInvalidInput)
	})
}

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewLookup, "lookup"},
		{ViewDictionary, "dictionary"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestViewType_Distinct(t *testing.T) {
	views := []ViewType{ViewMenu, ViewLookup, ViewDictionary, ViewHelp}
	seen := make(map[ViewType]bool)
	for _, v := range views {
		assert.False(t, seen[v], "duplicate view type %d", v)
		seen[v] = true
	}
}

func TestErrorOccurred(t *testing.T) {
	err := errors.New("boom")
	msg := ErrorOccurred{Err: err}
	assert.Equal(t, err, msg.Err)
}

func TestKeywordMessages(t *testing.T) {
	added := KeywordAdded{Entry: &domain.LocalEntry{Keyword: "XYZ", Origin: domain.OriginCustom}}
	require.NotNil(t, added.Entry)
	assert.Equal(t, "XYZ", added.Entry.Keyword)

	removed := KeywordRemoved{Keyword: "ABG", Outcome: domain.RemoveProtected}
	assert.Equal(t, domain.RemoveProtected, removed.Outcome)
	assert.NoError(t, removed.Err)
}

func TestStatsLoaded(t *testing.T) {
	msg := StatsLoaded{Stats: domain.StoreStats{Seeded: 3, Custom: 1}}
	assert.Equal(t, 3, msg.Stats.Seeded)
	assert.Equal(t, 1, msg.Stats.Custom)
}
