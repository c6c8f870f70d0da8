// Package memory provides in-process implementations of the driven ports.
//
// TermStore backs ephemeral runs and service tests, LookupCache is the
// default answer cache, and ConfigStore is a map-backed settings store.
// All types are safe for concurrent use. Nothing is persisted.
package memory
