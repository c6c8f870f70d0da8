// Package registry builds the set of enabled lookup sources from settings.
package registry

import (
	"net/http"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/logger"
	"github.com/custodia-labs/medterm/internal/sources"
	"github.com/custodia-labs/medterm/internal/sources/abbreviation"
	"github.com/custodia-labs/medterm/internal/sources/conditions"
	"github.com/custodia-labs/medterm/internal/sources/healthtopics"
	"github.com/custodia-labs/medterm/internal/sources/openfda"
	"github.com/custodia-labs/medterm/internal/sources/rxnorm"
	"github.com/custodia-labs/medterm/internal/sources/umls"
)

// Config carries everything needed to construct the adapters.
type Config struct {
	// Settings selects and configures sources.
	Settings domain.SourceSettings

	// HTTPClient is shared by every network-backed adapter.
	HTTPClient *http.Client

	// Store backs the abbreviation source.
	Store driven.TermStore

	// Cache, when set, wraps network-backed adapters.
	Cache    driven.LookupCache
	CacheTTL time.Duration

	// BaseURLs overrides service roots, mainly for tests.
	BaseURLs map[domain.SourceKind]string
}

// builder constructs one adapter.
type builder func(cfg Config) driven.Source

var builders = map[domain.SourceKind]builder{
	domain.SourceAbbreviation: func(cfg Config) driven.Source {
		return abbreviation.New(cfg.Store, abbreviation.DefaultLimit)
	},
	domain.SourceConditions: func(cfg Config) driven.Source {
		return conditions.New(cfg.HTTPClient, cfg.BaseURLs[domain.SourceConditions])
	},
	domain.SourceHealthTopics: func(cfg Config) driven.Source {
		return healthtopics.New(cfg.HTTPClient, cfg.BaseURLs[domain.SourceHealthTopics])
	},
	domain.SourceRxNorm: func(cfg Config) driven.Source {
		return rxnorm.New(cfg.HTTPClient, cfg.BaseURLs[domain.SourceRxNorm])
	},
	domain.SourceOpenFDA: func(cfg Config) driven.Source {
		return openfda.New(cfg.HTTPClient, cfg.BaseURLs[domain.SourceOpenFDA], cfg.Settings.OpenFDAAPIKey)
	},
	domain.SourceUMLS: func(cfg Config) driven.Source {
		return umls.NewOrUnavailable(cfg.HTTPClient, cfg.BaseURLs[domain.SourceUMLS], cfg.Settings.UMLSAPIKey)
	},
}

// storeBacked sources read the local store live and are never cached.
var storeBacked = map[domain.SourceKind]bool{
	domain.SourceAbbreviation: true,
}

// Build returns the enabled adapters in priority order. Disabled sources
// are left out entirely. The abbreviation source is skipped when no store
// is configured.
func Build(cfg Config) []driven.Source {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = sources.NewHTTPClient()
	}

	var out []driven.Source //nolint:prealloc
	for _, kind := range domain.ExternalSourceKinds() {
		if !cfg.Settings.IsEnabled(kind) {
			logger.Debug("source %s disabled", kind)
			continue
		}
		if kind == domain.SourceAbbreviation && cfg.Store == nil {
			continue
		}

		src := builders[kind](cfg)
		if !storeBacked[kind] {
			src = sources.Cached(src, cfg.Cache, cfg.CacheTTL)
		}
		out = append(out, src)
	}
	return out
}

// Kinds returns the kinds of the given sources in order.
func Kinds(srcs []driven.Source) []domain.SourceKind {
	kinds := make([]domain.SourceKind, len(srcs))
	for i, s := range srcs {
		kinds[i] = s.Kind()
	}
	return kinds
}
