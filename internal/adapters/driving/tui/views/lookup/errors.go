package lookup

import "errors"

// Error definitions for the lookup view.
var (
	// ErrNoLookupService indicates that no lookup service was provided.
	ErrNoLookupService = errors.New("lookup service is required")

	// ErrNoKeywordService indicates that dictionary edits are unavailable.
	ErrNoKeywordService = errors.New("keyword service is required")
)
