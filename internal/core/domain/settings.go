package domain

import (
	"fmt"
	"time"
)

// CacheBackend selects where successful source answers are cached.
type CacheBackend string

// Available cache backends.
const (
	// CacheNone disables caching.
	CacheNone CacheBackend = "none"

	// CacheMemory keeps answers in process memory.
	CacheMemory CacheBackend = "memory"

	// CacheRedis keeps answers in a Redis server shared by processes.
	CacheRedis CacheBackend = "redis"
)

// IsValid returns true if the cache backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheNone, CacheMemory, CacheRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b CacheBackend) Description() string {
	switch b {
	case CacheNone:
		return "Disabled"
	case CacheMemory:
		return "In-process memory"
	case CacheRedis:
		return "Redis"
	default:
		return unknownDescription
	}
}

// ServerSettings holds the MCP HTTP listener configuration.
type ServerSettings struct {
	// Host is the bind address (default 0.0.0.0).
	Host string

	// Port is the HTTP port. Zero means stdio transport.
	Port int
}

// Addr returns the host:port listen address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageSettings holds local store configuration.
type StorageSettings struct {
	// DataDir is the directory containing the database file.
	DataDir string
}

// SourceSettings holds the adapter configuration.
type SourceSettings struct {
	// Disabled lists sources that are not queried.
	Disabled []SourceKind

	// Timeout is the per-source call timeout.
	Timeout time.Duration

	// Timeouts overrides Timeout for individual sources.
	Timeouts map[SourceKind]time.Duration

	// UMLSAPIKey is the credential for the key-gated UMLS service.
	UMLSAPIKey string

	// OpenFDAAPIKey optionally raises OpenFDA rate limits.
	OpenFDAAPIKey string
}

// IsEnabled reports whether a source is switched on.
func (s SourceSettings) IsEnabled(kind SourceKind) bool {
	for _, d := range s.Disabled {
		if d == kind {
			return false
		}
	}
	return true
}

// TimeoutFor returns the call timeout for one source.
func (s SourceSettings) TimeoutFor(kind SourceKind) time.Duration {
	if d, ok := s.Timeouts[kind]; ok && d > 0 {
		return d
	}
	return s.Timeout
}

// CacheSettings holds lookup cache configuration.
type CacheSettings struct {
	// Backend selects the cache implementation.
	Backend CacheBackend

	// TTL is how long a cached answer stays valid.
	TTL time.Duration

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string
}

// LookupSettings bounds batch lookups.
type LookupSettings struct {
	// MaxKeywords is the largest accepted batch.
	MaxKeywords int

	// MaxConcurrency caps simultaneously running source calls.
	MaxConcurrency int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server  ServerSettings
	Storage StorageSettings
	Sources SourceSettings
	Cache   CacheSettings
	Lookup  LookupSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The UMLS source stays unavailable until a key is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 0,
		},
		Storage: StorageSettings{},
		Sources: SourceSettings{
			Timeout: 10 * time.Second,
		},
		Cache: CacheSettings{
			Backend:   CacheMemory,
			TTL:       time.Hour,
			RedisAddr: "localhost:6379",
		},
		Lookup: LookupSettings{
			MaxKeywords:    50,
			MaxConcurrency: 16,
		},
	}
}

// AllCacheBackends returns all available cache backends.
func AllCacheBackends() []CacheBackend {
	return []CacheBackend{CacheNone, CacheMemory, CacheRedis}
}
