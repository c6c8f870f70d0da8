// Package cli provides the medterm command-line interface.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
	"github.com/custodia-labs/medterm/internal/logger"
)

// version is set at build time.
var version = "dev"

// annotationStandalone marks commands that run without services.
const annotationStandalone = "standalone"

// Global flags.
var (
	verbose   bool
	jsonLogs  bool
	configDir string
	dataDir   string
)

// Services holds the driving ports used by the commands.
type Services struct {
	Lookup   driving.LookupService
	Keywords driving.KeywordService
	Seed     driving.SeedService
	Settings driving.SettingsService

	// Metrics serves /metrics in HTTP mode. Optional.
	Metrics http.Handler

	// Server is the configured MCP listener.
	Server domain.ServerSettings
}

// Options carries the global flags to the bootstrap function.
type Options struct {
	ConfigDir string
	DataDir   string
}

// Bootstrap builds the services once flags are parsed.
// The returned function releases them.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func() error, error)

var (
	lookupService   driving.LookupService
	keywordService  driving.KeywordService
	seedService     driving.SeedService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
	serverSettings  = domain.DefaultAppSettings().Server

	bootstrap Bootstrap
	release   func() error
)

var rootCmd = &cobra.Command{
	Use:   "medterm",
	Short: "Medical terminology lookup",
	Long: `medterm looks up medical abbreviations, conditions, drugs and concepts
across a local dictionary and public clinical terminology services.

Lookups fan out to every source in parallel; a slow or failing source
never blocks the others.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.medterm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.medterm/data)")
}

// SetServices installs the driving ports used by the commands.
func SetServices(s *Services) {
	lookupService = s.Lookup
	keywordService = s.Keywords
	seedService = s.Seed
	settingsService = s.Settings
	metricsHandler = s.Metrics
	if s.Server.Host != "" {
		serverSettings = s.Server
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Services are built lazily by b
// so that --config-dir and --data-dir take effect.
func Execute(ctx context.Context, b Bootstrap) error {
	bootstrap = b
	defer logger.Sync()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when the command fails
	if cerr := teardown(rootCmd, nil); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(jsonLogs)

	if bootstrap == nil || lookupService != nil || cmd.Annotations[annotationStandalone] == "true" {
		return nil
	}

	svc, closeFn, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, DataDir: dataDir})
	if err != nil {
		return err
	}
	SetServices(svc)
	release = closeFn
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if release == nil {
		return nil
	}
	err := release()
	release = nil
	return err
}
