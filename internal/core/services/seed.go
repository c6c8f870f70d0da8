package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
	"github.com/custodia-labs/medterm/internal/logger"
)

// Ensure SeedService implements the interface.
var _ driving.SeedService = (*SeedService)(nil)

// SeedService loads the bulk abbreviation dataset into the local store.
type SeedService struct {
	store  driven.TermStore
	loader driven.DatasetLoader
}

// NewSeedService creates a seed service. loader may be nil when only
// Seed is used.
func NewSeedService(store driven.TermStore, loader driven.DatasetLoader) *SeedService {
	return &SeedService{store: store, loader: loader}
}

// Seed inserts seeded entries and returns how many were new.
func (s *SeedService) Seed(ctx context.Context, records []domain.SeedRecord) (int, error) {
	inserted, err := s.store.Seed(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return inserted, nil
}

// SeedDir loads the dataset files in dir and seeds them.
func (s *SeedService) SeedDir(ctx context.Context, dir string) (*domain.SeedReport, error) {
	logger.Section("Seeding")

	if s.loader == nil {
		return nil, fmt.Errorf("seed %s: %w", dir, domain.ErrNotImplemented)
	}

	dataset, err := s.loader.Load(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", dir, err)
	}
	logger.Debug("loaded %d records from %d files", len(dataset.Records), len(dataset.Files))

	inserted, err := s.Seed(ctx, dataset.Records)
	if err != nil {
		return nil, err
	}
	logger.Debug("inserted %d new entries", inserted)

	return &domain.SeedReport{
		Files:    dataset.Files,
		Rows:     len(dataset.Records),
		Inserted: inserted,
	}, nil
}
