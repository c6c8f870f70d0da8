package driving

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// LookupService aggregates keyword lookups across all sources.
type LookupService interface {
	// LookupMany looks up every keyword and returns one result per keyword,
	// in input order. It fails only with domain.ErrInvalidInput; source
	// failures are reported inside each result.
	LookupMany(ctx context.Context, keywords []string, opts domain.LookupOptions) ([]domain.AggregatedResult, error)

	// Sources returns the sources a lookup consults, in priority order.
	Sources() []domain.SourceKind
}
