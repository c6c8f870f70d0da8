package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <csv-dir>",
	Short: "Load the abbreviation dataset",
	Long: `Loads every *.csv file in the directory into the local dictionary as
built-in entries. Each row holds an abbreviation and its meaning.
Keywords already present are left untouched, so seeding is repeatable.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedService == nil {
		return errors.New("seed service not configured")
	}

	report, err := seedService.SeedDir(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	for _, f := range report.Files {
		cmd.Printf("  %-40s %6d rows\n", f.Name, f.Rows)
	}
	cmd.Printf("Loaded %d rows from %d files, %d new entries.\n", report.Rows, len(report.Files), report.Inserted)
	return nil
}
