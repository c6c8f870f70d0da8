package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/sources"
	"github.com/custodia-labs/medterm/internal/sources/abbreviation"
	"github.com/custodia-labs/medterm/internal/sources/umls"
)

func TestBuild_AllEnabled(t *testing.T) {
	srcs := Build(Config{Store: memory.NewTermStore()})

	assert.Equal(t, domain.ExternalSourceKinds(), Kinds(srcs))
}

func TestBuild_DisabledSourcesOmitted(t *testing.T) {
	srcs := Build(Config{
		Store:    memory.NewTermStore(),
		Settings: domain.SourceSettings{Disabled: []domain.SourceKind{domain.SourceOpenFDA, domain.SourceHealthTopics}},
	})

	kinds := Kinds(srcs)
	assert.NotContains(t, kinds, domain.SourceOpenFDA)
	assert.NotContains(t, kinds, domain.SourceHealthTopics)
	assert.Contains(t, kinds, domain.SourceRxNorm)
}

func TestBuild_NoStoreSkipsAbbreviation(t *testing.T) {
	kinds := Kinds(Build(Config{}))
	assert.NotContains(t, kinds, domain.SourceAbbreviation)
}

func TestBuild_UMLSWithoutKeyIsUnavailable(t *testing.T) {
	for _, src := range Build(Config{}) {
		if src.Kind() == domain.SourceUMLS {
			_, err := src.Lookup(context.Background(), "asthma")
			assert.ErrorIs(t, err, domain.ErrAuthRequired)
			return
		}
	}
	t.Fatal("umls source not built")
}

func TestBuild_CacheWrapsNetworkSourcesOnly(t *testing.T) {
	srcs := Build(Config{
		Store:    memory.NewTermStore(),
		Cache:    memory.NewCache(),
		CacheTTL: time.Minute,
		Settings: domain.SourceSettings{UMLSAPIKey: "k"},
	})
	require.NotEmpty(t, srcs)

	for _, src := range srcs {
		switch src.Kind() {
		case domain.SourceAbbreviation:
			assert.IsType(t, &abbreviation.Source{}, src)
		default:
			assert.IsType(t, &sources.CachedSource{}, src, src.Kind())
		}
	}
}

func TestBuild_NoCacheLeavesSourcesBare(t *testing.T) {
	for _, src := range Build(Config{}) {
		if src.Kind() == domain.SourceUMLS {
			assert.IsType(t, umls.Unavailable{}, src)
		}
	}
}
