// Package sources holds the infrastructure shared by the lookup source
// adapters: an HTTP client that classifies failures into the domain source
// errors, a rate limiter with server-driven backoff, relevance matching,
// text truncation, a caching decorator and the registry that builds the
// enabled adapter set.
//
// Each adapter lives in its own subpackage and implements driven.Source.
package sources
