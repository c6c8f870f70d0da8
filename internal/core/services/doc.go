// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// LookupService fans keywords out to every source and merges the answers.
// KeywordService and SeedService mutate the local dictionary.
package services
