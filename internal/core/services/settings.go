package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerHost      = "server.host"
	keyServerPort      = "server.port"
	keyDataDir         = "storage.data_dir"
	keySourcesDisabled = "sources.disabled"
	keySourcesTimeout  = "sources.timeout"
	keyUMLSAPIKey      = "sources.umls_api_key"
	keyOpenFDAAPIKey   = "sources.openfda_api_key"
	keyCacheBackend    = "cache.backend"
	keyCacheTTL        = "cache.ttl"
	keyCacheRedisAddr  = "cache.redis_addr"
	keyMaxKeywords     = "lookup.max_keywords"
	keyMaxConcurrency  = "lookup.max_concurrency"
)

// sourceTimeoutKey is the config key overriding one source's timeout.
func sourceTimeoutKey(kind domain.SourceKind) string {
	return "sources." + kind.String() + ".timeout"
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Host: s.getString(keyServerHost, defaults.Server.Host),
			Port: s.getInt(keyServerPort, defaults.Server.Port),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyDataDir), // empty means the default data dir
		},
		Sources: domain.SourceSettings{
			Disabled:      s.getDisabledSources(),
			Timeout:       s.getDuration(keySourcesTimeout, defaults.Sources.Timeout),
			Timeouts:      s.getSourceTimeouts(),
			UMLSAPIKey:    s.configStore.GetString(keyUMLSAPIKey),
			OpenFDAAPIKey: s.configStore.GetString(keyOpenFDAAPIKey),
		},
		Cache: domain.CacheSettings{
			Backend:   s.getCacheBackend(defaults.Cache.Backend),
			TTL:       s.getDuration(keyCacheTTL, defaults.Cache.TTL),
			RedisAddr: s.getString(keyCacheRedisAddr, defaults.Cache.RedisAddr),
		},
		Lookup: domain.LookupSettings{
			MaxKeywords:    s.getInt(keyMaxKeywords, defaults.Lookup.MaxKeywords),
			MaxConcurrency: s.getInt(keyMaxConcurrency, defaults.Lookup.MaxConcurrency),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save server settings
	if err := s.configStore.Set(keyServerHost, settings.Server.Host); err != nil {
		return fmt.Errorf("save server host: %w", err)
	}
	if err := s.configStore.Set(keyServerPort, settings.Server.Port); err != nil {
		return fmt.Errorf("save server port: %w", err)
	}

	if settings.Storage.DataDir != "" {
		if err := s.configStore.Set(keyDataDir, settings.Storage.DataDir); err != nil {
			return fmt.Errorf("save data dir: %w", err)
		}
	}

	// Save source settings
	disabled := make([]string, len(settings.Sources.Disabled))
	for i, k := range settings.Sources.Disabled {
		disabled[i] = k.String()
	}
	if err := s.configStore.Set(keySourcesDisabled, disabled); err != nil {
		return fmt.Errorf("save disabled sources: %w", err)
	}
	if err := s.configStore.Set(keySourcesTimeout, settings.Sources.Timeout); err != nil {
		return fmt.Errorf("save source timeout: %w", err)
	}
	for kind, d := range settings.Sources.Timeouts {
		if !kind.IsValid() || d <= 0 {
			continue
		}
		if err := s.configStore.Set(sourceTimeoutKey(kind), d); err != nil {
			return fmt.Errorf("save %s timeout: %w", kind, err)
		}
	}
	if settings.Sources.UMLSAPIKey != "" {
		if err := s.configStore.Set(keyUMLSAPIKey, settings.Sources.UMLSAPIKey); err != nil {
			return fmt.Errorf("save umls api_key: %w", err)
		}
	}
	if settings.Sources.OpenFDAAPIKey != "" {
		if err := s.configStore.Set(keyOpenFDAAPIKey, settings.Sources.OpenFDAAPIKey); err != nil {
			return fmt.Errorf("save openfda api_key: %w", err)
		}
	}

	// Save cache settings
	if err := s.configStore.Set(keyCacheBackend, settings.Cache.Backend.String()); err != nil {
		return fmt.Errorf("save cache backend: %w", err)
	}
	if err := s.configStore.Set(keyCacheTTL, settings.Cache.TTL); err != nil {
		return fmt.Errorf("save cache ttl: %w", err)
	}
	if err := s.configStore.Set(keyCacheRedisAddr, settings.Cache.RedisAddr); err != nil {
		return fmt.Errorf("save redis addr: %w", err)
	}

	// Save lookup limits
	if err := s.configStore.Set(keyMaxKeywords, settings.Lookup.MaxKeywords); err != nil {
		return fmt.Errorf("save max keywords: %w", err)
	}
	if err := s.configStore.Set(keyMaxConcurrency, settings.Lookup.MaxConcurrency); err != nil {
		return fmt.Errorf("save max concurrency: %w", err)
	}

	return nil
}

// SetCacheBackend updates the lookup cache backend.
func (s *SettingsService) SetCacheBackend(backend domain.CacheBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid cache backend: %s", backend)
	}
	return s.configStore.Set(keyCacheBackend, backend.String())
}

// SetSourceEnabled switches a source on or off.
func (s *SettingsService) SetSourceEnabled(kind domain.SourceKind, enabled bool) error {
	if !kind.IsValid() {
		return fmt.Errorf("invalid source: %s", kind)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	disabled := make([]string, 0, len(settings.Sources.Disabled)+1)
	for _, k := range settings.Sources.Disabled {
		if k != kind {
			disabled = append(disabled, k.String())
		}
	}
	if !enabled {
		disabled = append(disabled, kind.String())
	}

	return s.configStore.Set(keySourcesDisabled, disabled)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Server.Port < 0 || settings.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", settings.Server.Port)
	}
	if settings.Sources.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got %s", settings.Sources.Timeout)
	}
	if settings.Lookup.MaxKeywords <= 0 {
		return fmt.Errorf("max keywords must be positive, got %d", settings.Lookup.MaxKeywords)
	}
	if settings.Lookup.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", settings.Lookup.MaxConcurrency)
	}
	if settings.Cache.Backend == domain.CacheRedis && settings.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend %q requires a redis address", settings.Cache.Backend.Description())
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	val := s.configStore.GetString(keyCacheBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.CacheBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

// getDisabledSources drops unknown names so a stale config never breaks startup.
func (s *SettingsService) getDisabledSources() []domain.SourceKind {
	var kinds []domain.SourceKind
	for _, name := range s.configStore.GetStringSlice(keySourcesDisabled) {
		kind := domain.SourceKind(name)
		if kind.IsValid() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// getSourceTimeouts reads the per-source overrides; unset or non-positive
// values fall back to the shared timeout.
func (s *SettingsService) getSourceTimeouts() map[domain.SourceKind]time.Duration {
	var timeouts map[domain.SourceKind]time.Duration
	for _, kind := range domain.AllSourceKinds() {
		d := s.configStore.GetDuration(sourceTimeoutKey(kind))
		if d <= 0 {
			continue
		}
		if timeouts == nil {
			timeouts = make(map[domain.SourceKind]time.Duration)
		}
		timeouts[kind] = d
	}
	return timeouts
}
