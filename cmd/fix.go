package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/config"
	"github.com/oncallzero/triage-cli/internal/fixer"
	"github.com/oncallzero/triage-cli/internal/observability"
	"github.com/oncallzero/triage-cli/internal/store"
)

// newFixCmd creates the `fix` command.
func newFixCmd() *cobra.Command {
	var reportPath string
	var withPR bool

	fixCmd := &cobra.Command{
		Use:   "fix [error-id]",
		Short: "Load a report and print its fix suggestions",
		Long: `Loads the stored report for the given error id (or a report file given
with --report), selects a rewrite strategy by the error's type, and prints
the suggested code changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			errorID := ""
			if len(args) == 1 {
				errorID = args[0]
			}
			if errorID == "" && reportPath == "" {
				return fmt.Errorf("either an error id or --report is required")
			}

			return runFix(ctx, logger, cfg, errorID, reportPath, withPR, cmd.OutOrStdout())
		},
	}

	fixCmd.Flags().StringVar(&reportPath, "report", "", "Path to a report file (bypasses the store)")
	fixCmd.Flags().BoolVar(&withPR, "pr", false, "Also print a pull-request description")

	return fixCmd
}

// runFix contains the core, testable logic of the fix command.
func runFix(ctx context.Context, logger *zap.Logger, cfg config.Interface, errorID, reportPath string, withPR bool, out io.Writer) error {
	report, err := loadReport(ctx, cfg, logger, errorID, reportPath)
	if err != nil {
		return err
	}

	changes, err := fixer.New(logger).Suggest(report)
	if err != nil {
		return fmt.Errorf("failed to generate fix suggestions: %w", err)
	}

	printChanges(out, changes)
	if withPR {
		fmt.Fprintln(out)
		fmt.Fprint(out, fixer.PullRequestDescription(report, changes))
	}
	return nil
}

// loadReport reads the report from the store by id, or directly from a file
// when --report is given.
func loadReport(ctx context.Context, cfg config.Interface, logger *zap.Logger, errorID, reportPath string) (*schemas.Report, error) {
	if reportPath != "" {
		data, err := os.ReadFile(reportPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read report file %s: %w", reportPath, err)
		}
		return store.Decode(errorID, data)
	}

	reportStore, err := store.New(cfg.Store().Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report store: %w", err)
	}

	report, err := reportStore.Load(ctx, errorID)
	if err != nil {
		var notFound *schemas.NotFoundError
		if errors.As(err, &notFound) {
			if ids, listErr := reportStore.List(); listErr == nil && len(ids) > 0 {
				return nil, fmt.Errorf("%w (stored reports: %s)", err, strings.Join(ids, ", "))
			}
		}
		return nil, err
	}
	return report, nil
}

// printChanges writes the suggestions in the reviewer-facing layout.
func printChanges(out io.Writer, changes []schemas.CodeChange) {
	sep := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 80)

	fmt.Fprintln(out, "\nSuggested Code Changes:")
	fmt.Fprintln(out, sep)

	for _, change := range changes {
		fmt.Fprintf(out, "\nFile: %s\n", change.FilePath)
		fmt.Fprintf(out, "Line: %d\n", change.LineNumber)
		fmt.Fprintf(out, "Author: %s (commit: %s)\n", change.Author, change.CommitHash)
		fmt.Fprintf(out, "Description: %s\n", change.Description)
		fmt.Fprintf(out, "Explanation: %s\n", change.Explanation)
		fmt.Fprintln(out, "\nOriginal Code:")
		fmt.Fprintf(out, "  %s\n", change.Original)
		fmt.Fprintln(out, "\nSuggested Change:")
		fmt.Fprintf(out, "  %s\n", change.Suggested)
		fmt.Fprintln(out, sub)
	}
}
