package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// Source is one provider of lookup data.
// Each external service (conditions, drug labels, etc.) implements this interface.
//
// Lookup returns nil, nil when the source has nothing for the keyword.
// Failures are returned as errors wrapping the domain source sentinels
// (domain.ErrSourceUnreachable, domain.ErrRateLimited, domain.ErrMalformedResponse,
// domain.ErrAuthRequired) or the context error when the deadline expires.
// Implementations hold no per-call state and must be safe for concurrent use.
type Source interface {
	// Kind returns the source identifier.
	Kind() domain.SourceKind

	// Lookup queries the source for one keyword.
	// The per-call timeout is carried by ctx.
	Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error)
}

// LookupCache stores successful source answers.
type LookupCache interface {
	// Get returns the cached entries and true on a hit.
	Get(ctx context.Context, key string) ([]domain.LookupEntry, bool, error)

	// Set stores entries under key for ttl.
	Set(ctx context.Context, key string, entries []domain.LookupEntry, ttl time.Duration) error

	// Delete drops the given keys.
	Delete(ctx context.Context, keys ...string) error

	// Close releases resources.
	Close() error
}

// SourceOutcome is the result class of one source call.
type SourceOutcome string

// Source outcomes reported to observers.
const (
	OutcomeHit   SourceOutcome = "hit"
	OutcomeEmpty SourceOutcome = "empty"
	OutcomeError SourceOutcome = "error"
)

// LookupObserver receives lookup telemetry.
type LookupObserver interface {
	// ObserveSource records one (keyword x source) call.
	// errKind is empty unless outcome is OutcomeError.
	ObserveSource(kind domain.SourceKind, outcome SourceOutcome, errKind domain.ErrorKind, elapsed time.Duration)

	// ObserveKeyword records the aggregated outcome of one keyword.
	ObserveKeyword(found bool)
}
