package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dictionary counts and sources",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if keywordService == nil || lookupService == nil {
		return errors.New("services not configured")
	}

	stats, err := keywordService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println("[Dictionary]")
	cmd.Printf("  Built-in: %d\n", stats.Seeded)
	cmd.Printf("  Custom:   %d\n", stats.Custom)
	cmd.Printf("  Total:    %d\n", stats.Seeded+stats.Custom)
	cmd.Println()

	cmd.Println("[Sources]")
	for _, kind := range lookupService.Sources() {
		cmd.Printf("  %-13s %s\n", kind, kind.Description())
	}
	return nil
}
