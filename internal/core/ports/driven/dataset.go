package driven

import (
	"context"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// DatasetLoader reads the bulk abbreviation dataset.
type DatasetLoader interface {
	// Load parses every dataset file under dir.
	// Returns an error if dir holds no dataset files.
	Load(ctx context.Context, dir string) (*domain.Dataset, error)
}
