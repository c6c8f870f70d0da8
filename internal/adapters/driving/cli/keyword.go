package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

var addKind string

var addCmd = &cobra.Command{
	Use:   "add <keyword> <definition>",
	Short: "Add a custom keyword",
	Long: `Adds a custom abbreviation or term to the local dictionary.
Adding an existing custom keyword replaces its definition.
Built-in entries cannot be changed.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove <keyword>",
	Short: "Remove a custom keyword",
	Long:  `Removes a custom keyword. Built-in entries cannot be removed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	addCmd.Flags().StringVarP(&addKind, "kind", "k", "abbreviation", "entry kind: abbreviation or term")
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if keywordService == nil {
		return errors.New("keyword service not configured")
	}

	kind, err := domain.ParseEntryKind(addKind)
	if err != nil {
		return fmt.Errorf("invalid kind %q: use abbreviation or term", addKind)
	}

	entry, err := keywordService.Add(cmd.Context(), args[0], args[1], kind)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("'%s' is a built-in entry and cannot be changed", args[0])
	}
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	cmd.Printf("Added %s: %s → %s\n", entry.Kind, entry.Keyword, entry.Definition)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if keywordService == nil {
		return errors.New("keyword service not configured")
	}

	err := keywordService.Remove(cmd.Context(), args[0])
	outcome, ok := domain.RemoveOutcomeOf(err)
	if !ok {
		return fmt.Errorf("remove failed: %w", err)
	}

	switch outcome {
	case domain.RemoveRemoved:
		cmd.Printf("Removed %s\n", args[0])
		return nil
	case domain.RemoveProtected:
		return fmt.Errorf("'%s' is a built-in entry and cannot be removed", args[0])
	default:
		return fmt.Errorf("'%s' not found", args[0])
	}
}
