package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure sources, the lookup cache and API keys.

Settings are stored in config.toml in the config directory. Environment
variables (UMLS_API_KEY, OPENFDA_API_KEY, REDIS_ADDR, MCP_HOST, MCP_PORT,
DATABASE_PATH) take precedence over the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Select the lookup cache backend",
	RunE:  runSettingsCache,
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable <source>",
	Short: "Enable a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceEnabled(cmd, args[0], true)
	},
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable <source>",
	Short: "Disable a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceEnabled(cmd, args[0], false)
	},
}

var settingsUMLSKeyCmd = &cobra.Command{
	Use:   "umls-key",
	Short: "Set the UMLS API key",
	Long:  `Set the API key for the UMLS concept service. Without a key the source reports auth_missing.`,
	RunE:  runSettingsUMLSKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsCacheCmd)
	settingsCmd.AddCommand(settingsEnableCmd)
	settingsCmd.AddCommand(settingsDisableCmd)
	settingsCmd.AddCommand(settingsUMLSKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Server settings
	cmd.Println("[Server]")
	if settings.Server.Port > 0 {
		cmd.Printf("  Listen: %s\n", settings.Server.Addr())
	} else {
		cmd.Println("  Transport: stdio")
	}
	cmd.Println()

	// Storage settings
	cmd.Println("[Storage]")
	dir := settings.Storage.DataDir
	if dir == "" {
		dir = "(default)"
	}
	cmd.Printf("  Data dir: %s\n", dir)
	cmd.Println()

	// Source settings
	cmd.Println("[Sources]")
	cmd.Printf("  Timeout: %s\n", settings.Sources.Timeout)
	for _, kind := range domain.AllSourceKinds() {
		state := "enabled"
		if !settings.Sources.IsEnabled(kind) {
			state = "disabled"
		}
		if d, ok := settings.Sources.Timeouts[kind]; ok {
			state += fmt.Sprintf(" (timeout %s)", d)
		}
		cmd.Printf("  %-13s %s\n", kind, state)
	}
	if settings.Sources.UMLSAPIKey != "" {
		cmd.Printf("  UMLS API Key: %s\n", maskAPIKey(settings.Sources.UMLSAPIKey))
	} else {
		cmd.Println("  UMLS API Key: (not set)")
	}
	if settings.Sources.OpenFDAAPIKey != "" {
		cmd.Printf("  OpenFDA API Key: %s\n", maskAPIKey(settings.Sources.OpenFDAAPIKey))
	}
	cmd.Println()

	// Cache settings
	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend.Description())
	if settings.Cache.Backend != domain.CacheNone {
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	}
	if settings.Cache.Backend == domain.CacheRedis {
		cmd.Printf("  Redis: %s\n", settings.Cache.RedisAddr)
	}
	cmd.Println()

	// Lookup limits
	cmd.Println("[Lookup]")
	cmd.Printf("  Max keywords: %d\n", settings.Lookup.MaxKeywords)
	cmd.Printf("  Max concurrency: %d\n", settings.Lookup.MaxConcurrency)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsCache(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Cache Backend")
	cmd.Println("--------------------")
	backends := domain.AllCacheBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice: ")
	input := readLine(reader)
	idx := parseChoice(input, len(backends), 0)
	if idx == 0 {
		return errors.New("invalid selection")
	}

	selected := backends[idx-1]
	if err := settingsService.SetCacheBackend(selected); err != nil {
		return fmt.Errorf("failed to set cache backend: %w", err)
	}

	cmd.Printf("Cache backend set to: %s\n", selected.Description())
	return nil
}

func setSourceEnabled(cmd *cobra.Command, name string, enabled bool) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	kind := domain.SourceKind(strings.ToLower(name))
	if !kind.IsValid() {
		return fmt.Errorf("unknown source %q", name)
	}
	if err := settingsService.SetSourceEnabled(kind, enabled); err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	cmd.Printf("%s %s\n", kind.Description(), state)
	return nil
}

func runSettingsUMLSKey(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword(cmd.InOrStdin())
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	settings.Sources.UMLSAPIKey = apiKey
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	cmd.Printf("UMLS API key set: %s\n", maskAPIKey(apiKey))
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	// Try to read password without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(bufio.NewReader(in))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
