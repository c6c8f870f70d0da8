package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

var (
	lookupJSON    bool
	lookupSources []string
	lookupTimeout time.Duration
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <keyword>...",
	Short: "Look up medical keywords",
	Long: `Looks up each keyword in the local dictionary and every enabled source.
Results are printed in input order, grouped by category.

Examples:
  medterm lookup ABG metformin
  medterm lookup --source rxnorm --source openfda atorvastatin
  medterm lookup --json "heart attack"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output results as JSON")
	lookupCmd.Flags().StringSliceVarP(&lookupSources, "source", "s", nil, "restrict to these sources")
	lookupCmd.Flags().DurationVar(&lookupTimeout, "timeout", 0, "per-source timeout (default from settings)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	opts := domain.LookupOptions{Timeout: lookupTimeout}
	for _, s := range lookupSources {
		opts.Sources = append(opts.Sources, domain.SourceKind(s))
	}

	results, err := lookupService.LookupMany(cmd.Context(), args, opts)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		return outputLookupJSON(cmd, results)
	}

	outputLookupTable(cmd, results)
	return nil
}

func outputLookupJSON(cmd *cobra.Command, results []domain.AggregatedResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputLookupTable(cmd *cobra.Command, results []domain.AggregatedResult) {
	width := outputWidth(cmd)

	for i := range results {
		r := &results[i]
		cmd.Println(r.Keyword)

		if !r.Found {
			cmd.Printf("  %s\n", r.Message)
		}

		var category domain.Category
		for _, e := range r.Entries {
			if e.Category != category {
				category = e.Category
				cmd.Printf("  [%s]\n", category)
			}
			line := fmt.Sprintf("    %-13s %s", e.Source, e.Payload.Summary())
			cmd.Println(clip(line, width))
		}

		if len(r.SourceErrors) > 0 {
			kinds := make([]string, 0, len(r.SourceErrors))
			for kind := range r.SourceErrors {
				kinds = append(kinds, kind.String())
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				cmd.Printf("  ! %s: %s\n", k, r.SourceErrors[domain.SourceKind(k)])
			}
		}
		cmd.Println()
	}
}

// outputWidth returns the terminal width, or 0 when not writing to a terminal.
func outputWidth(cmd *cobra.Command) int {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// clip shortens s to width runes. A width of 0 disables clipping.
func clip(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
