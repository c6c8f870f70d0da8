// Package app wires the driven adapters and core services into a runnable
// application. It is the composition root shared by every entry point.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/medterm/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/medterm/internal/adapters/driven/config/file"
	"github.com/custodia-labs/medterm/internal/adapters/driven/dataset/csv"
	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/core/services"
	"github.com/custodia-labs/medterm/internal/logger"
	"github.com/custodia-labs/medterm/internal/metrics"
	"github.com/custodia-labs/medterm/internal/sources"
	"github.com/custodia-labs/medterm/internal/sources/registry"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvDatabasePath  = "DATABASE_PATH"
	EnvUMLSAPIKey    = "UMLS_API_KEY"
	EnvOpenFDAAPIKey = "OPENFDA_API_KEY"
	EnvMCPHost       = "MCP_HOST"
	EnvMCPPort       = "MCP_PORT"
	EnvRedisAddr     = "REDIS_ADDR"
)

// Options configures application construction.
type Options struct {
	// ConfigDir holds config.toml. Empty means ~/.medterm.
	ConfigDir string

	// DataDir overrides storage.data_dir.
	DataDir string

	// Getenv reads environment overrides. Nil means os.Getenv.
	Getenv func(string) string

	// BaseURLs overrides source service roots.
	BaseURLs map[domain.SourceKind]string

	// Registry receives the metrics. Nil means a fresh registry.
	Registry *prometheus.Registry
}

// App holds the wired services.
type App struct {
	Settings        *domain.AppSettings
	SettingsService *services.SettingsService
	Lookup          *services.LookupService
	Keywords        *services.KeywordService
	Seed            *services.SeedService
	Metrics         http.Handler
	DatabasePath    string

	closers []func() error
}

// New loads configuration, opens the store and cache, and builds the services.
func New(ctx context.Context, opts Options) (*App, error) {
	logger.Section("Bootstrap")

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("config: %s", configStore.Path())

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if opts.DataDir != "" {
		settings.Storage.DataDir = opts.DataDir
	}
	dbPath, err := ApplyEnv(settings, getenv)
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings:        settings,
		SettingsService: settingsService,
	}

	store, err := openStore(settings.Storage.DataDir, dbPath)
	if err != nil {
		return nil, err
	}
	a.DatabasePath = store.Path()
	a.closers = append(a.closers, store.Close)
	logger.Debug("database: %s", store.Path())

	cache, err := openCache(ctx, settings.Cache)
	if err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}
	if cache != nil {
		a.closers = append(a.closers, cache.Close)
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	observer := metrics.Register(reg, store)
	a.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	srcs := registry.Build(registry.Config{
		Settings:   settings.Sources,
		HTTPClient: sources.NewHTTPClient(),
		Store:      store,
		Cache:      cache,
		CacheTTL:   settings.Cache.TTL,
		BaseURLs:   opts.BaseURLs,
	})
	logger.Debug("sources: %v", registry.Kinds(srcs))

	a.Lookup = services.NewLookupService(store, srcs, services.LookupConfigFromSettings(*settings))
	a.Lookup.SetObserver(observer)
	a.Keywords = services.NewKeywordService(store)
	a.Seed = services.NewSeedService(store, csv.NewLoader())

	return a, nil
}

// Close releases the store and cache.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ApplyEnv overlays environment overrides on settings and returns the
// explicit database path, if one was given.
func ApplyEnv(settings *domain.AppSettings, getenv func(string) string) (string, error) {
	if v := getenv(EnvUMLSAPIKey); v != "" {
		settings.Sources.UMLSAPIKey = v
	}
	if v := getenv(EnvOpenFDAAPIKey); v != "" {
		settings.Sources.OpenFDAAPIKey = v
	}
	if v := getenv(EnvMCPHost); v != "" {
		settings.Server.Host = v
	}
	if v := getenv(EnvMCPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return "", fmt.Errorf("%w: %s=%q is not a port", domain.ErrInvalidInput, EnvMCPPort, v)
		}
		settings.Server.Port = port
	}
	if v := getenv(EnvRedisAddr); v != "" {
		settings.Cache.RedisAddr = v
		settings.Cache.Backend = domain.CacheRedis
	}
	return getenv(EnvDatabasePath), nil
}

func openStore(dataDir, dbPath string) (*sqlite.Store, error) {
	if dbPath == "" {
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return store, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

// openCache returns nil when caching is disabled.
func openCache(ctx context.Context, cfg domain.CacheSettings) (driven.LookupCache, error) {
	switch cfg.Backend {
	case domain.CacheNone:
		return nil, nil
	case domain.CacheRedis:
		cache, err := redis.New(ctx, redis.Options{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return cache, nil
	default:
		return memory.NewCache(), nil
	}
}
