package driving

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// KeywordService applies user mutations to the local dictionary.
type KeywordService interface {
	// Add stores a custom definition for keyword.
	// Returns domain.ErrAlreadyExists when a seeded entry owns the keyword.
	Add(ctx context.Context, keyword, definition string, kind domain.EntryKind) (*domain.LocalEntry, error)

	// Remove deletes a custom keyword.
	// Returns domain.ErrNotFound or domain.ErrProtected when nothing was removed.
	Remove(ctx context.Context, keyword string) error

	// Stats returns the dictionary counts.
	Stats(ctx context.Context) (domain.StoreStats, error)
}

// SeedService loads the bulk abbreviation dataset.
type SeedService interface {
	// Seed inserts seeded entries and returns how many were new.
	Seed(ctx context.Context, records []domain.SeedRecord) (int, error)

	// SeedDir loads the dataset files in dir and seeds them.
	SeedDir(ctx context.Context, dir string) (*domain.SeedReport, error)
}
