// Package domain defines the core business entities for medterm.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - LocalEntry: A dictionary row owned by the local term store
//   - LookupEntry: A normalised hit produced by one source
//   - AggregatedResult: The merged outcome for one keyword
//   - SourceKind / Category / ErrorKind: The vocabularies tying them together
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
