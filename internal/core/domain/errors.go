package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a keyword collides with a protected seeded entry.
	ErrAlreadyExists = errors.New("already exists as a protected entry")

	// ErrProtected indicates the entry is seeded and cannot be removed.
	ErrProtected = errors.New("entry is protected")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrStoreIO indicates the local store could not be read or written.
	ErrStoreIO = errors.New("store i/o failure")

	// Source Errors.

	// ErrSourceUnreachable indicates the source could not be contacted
	// or answered with a server error.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates the source answered with a payload
	// that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrAuthRequired indicates the source requires a credential but none is configured
	// or the configured one was rejected.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSourceDisabled indicates the source is switched off in settings.
	ErrSourceDisabled = errors.New("source disabled")
)
