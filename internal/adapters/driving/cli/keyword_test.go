package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

func TestAddCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := runCommand(t, "", "add", "XYZ", "test term")

	require.NoError(t, err)
	assert.Contains(t, out, "Added abbreviation: XYZ → test term")

	entry, err := env.store.Get(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginCustom, entry.Origin)
}

func TestAddCmd_TermKind(t *testing.T) {
	env := setupTestServices(t)

	out, err := runCommand(t, "", "add", "--kind", "term", "heart attack", "myocardial infarction")

	require.NoError(t, err)
	assert.Contains(t, out, "Added term")
	entry, err := env.store.Get(context.Background(), "Heart Attack")
	require.NoError(t, err)
	assert.Equal(t, domain.KindTerm, entry.Kind)
}

func TestAddCmd_ThenLookup(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "add", "XYZ", "test term")
	require.NoError(t, err)

	out, err := runCommand(t, "", "lookup", "xyz")

	require.NoError(t, err)
	assert.Contains(t, out, "test term")
}

func TestAddCmd_SeededCollision(t *testing.T) {
	env := setupTestServices(t)

	_, err := runCommand(t, "", "add", "ABG", "something else")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "built-in entry")

	entry, getErr := env.store.Get(context.Background(), "ABG")
	require.NoError(t, getErr)
	assert.Equal(t, "Arterial Blood Gas", entry.Definition)
}

func TestAddCmd_InvalidKind(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "add", "--kind", "drug", "XYZ", "test term")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestAddCmd_BlankKeyword(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "add", "  ", "test term")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRemoveCmd(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		want    string
		wantErr string
	}{
		{"custom entry", "XYZ", "Removed XYZ", ""},
		{"seeded entry", "ABG", "", "built-in entry"},
		{"unknown keyword", "QQQ", "", "'QQQ' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServices(t)
			_, err := env.store.Put(context.Background(), "XYZ", "test term", domain.KindAbbreviation)
			require.NoError(t, err)

			out, err := runCommand(t, "", "remove", tt.keyword)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			_, err = env.store.Get(context.Background(), tt.keyword)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}
