package driven

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// TermStore persists the local dictionary.
// Keywords are unique and compared case-insensitively.
// Every mutation is durable before the call returns.
type TermStore interface {
	// Get returns the entry for an exact (case-insensitive) keyword.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, keyword string) (*domain.LocalEntry, error)

	// Put inserts a custom entry, or overwrites an existing custom entry.
	// Returns domain.ErrAlreadyExists, leaving the store untouched,
	// when a seeded entry owns the keyword.
	Put(ctx context.Context, keyword, definition string, kind domain.EntryKind) (*domain.LocalEntry, error)

	// Delete removes a custom entry.
	// Returns domain.ErrNotFound if absent, domain.ErrProtected if seeded.
	Delete(ctx context.Context, keyword string) error

	// Seed bulk-loads seeded entries and returns the number inserted.
	// Re-seeding identical records inserts nothing.
	Seed(ctx context.Context, records []domain.SeedRecord) (int, error)

	// Search returns custom entries whose keyword contains the fragment,
	// ordered by keyword. Seeded entries only ever match exactly, through
	// Get. A limit <= 0 means no limit.
	Search(ctx context.Context, fragment string, limit int) ([]domain.LocalEntry, error)

	// Stats returns seeded and custom entry counts.
	Stats(ctx context.Context) (domain.StoreStats, error)
}
