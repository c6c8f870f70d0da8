package driving

import "github.com/custodia-labs/medterm/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetCacheBackend updates the lookup cache backend.
	SetCacheBackend(backend domain.CacheBackend) error

	// SetSourceEnabled switches a source on or off.
	SetSourceEnabled(kind domain.SourceKind, enabled bool) error

	// Validate checks that current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
