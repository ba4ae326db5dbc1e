package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/config"
	"github.com/oncallzero/triage-cli/internal/enrich"
	"github.com/oncallzero/triage-cli/internal/notify"
	"github.com/oncallzero/triage-cli/internal/observability"
	"github.com/oncallzero/triage-cli/internal/pipeline"
	"github.com/oncallzero/triage-cli/internal/reasoner"
	"github.com/oncallzero/triage-cli/internal/store"
	"github.com/oncallzero/triage-cli/internal/tracker"
)

// newAnalyzeCmd creates the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	var noNotify bool

	analyzeCmd := &cobra.Command{
		Use:   "analyze <error-id>",
		Short: "Analyze an error and write its report",
		Long: `Fetches the error record for the given id, enriches it with source
context, blame, and a root-cause analysis, writes the report artifact, and
sends a notification to the configured endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			return runAnalyze(ctx, logger, cfg, args[0], noNotify, cmd.OutOrStdout())
		},
	}

	analyzeCmd.Flags().BoolVar(&noNotify, "no-notify", false, "Skip the post-analysis notification")

	return analyzeCmd
}

// runAnalyze contains the core, testable logic of the analyze command.
func runAnalyze(ctx context.Context, logger *zap.Logger, cfg config.Interface, errorID string, noNotify bool, out io.Writer) error {
	analyzer, err := buildAnalyzer(cfg, logger, noNotify)
	if err != nil {
		return err
	}

	report, path, err := analyzer.Run(ctx, errorID)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", errorID, err)
	}

	printSummary(out, report, path)
	return nil
}

// buildAnalyzer assembles the pipeline from configuration.
func buildAnalyzer(cfg config.Interface, logger *zap.Logger, noNotify bool) (*pipeline.Analyzer, error) {
	trk, err := buildTracker(cfg, logger)
	if err != nil {
		return nil, err
	}

	contexts, blame := buildSources(cfg)
	enricher := enrich.New(contexts, blame, reasoner.NewRuleBased(logger), logger)

	reportStore, err := store.New(cfg.Store().Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report store: %w", err)
	}

	var notifier schemas.Notifier
	if !noNotify {
		notifier = notify.NewClient(cfg.Notify(), logger)
	}

	return pipeline.New(trk, enricher, reportStore, notifier, logger), nil
}

// buildTracker selects the tracking collaborator by configured mode.
func buildTracker(cfg config.Interface, logger *zap.Logger) (schemas.Tracker, error) {
	switch cfg.Tracker().Mode {
	case config.TrackerModeHTTP:
		return tracker.NewClient(cfg.Tracker(), logger)
	default:
		return tracker.NewMock(logger), nil
	}
}

// buildSources selects context and blame sources: real files when a repo
// path is configured, the sample tables otherwise.
func buildSources(cfg config.Interface) (enrich.ContextSource, enrich.BlameSource) {
	if repo := cfg.Repo(); repo.Path != "" {
		return &enrich.FileSource{Root: repo.Path, Radius: repo.ContextRadius}, enrich.NoBlame{}
	}
	mock := enrich.NewMockSource()
	return mock, mock
}

// printSummary writes the human-readable analysis summary.
func printSummary(out io.Writer, report *schemas.Report, path string) {
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintln(out, "\nAnalysis Summary:")
	fmt.Fprintf(out, "Error ID: %s\n", report.ErrorDetails.ErrorID)
	fmt.Fprintf(out, "Type: %s\n", report.ErrorDetails.Type)
	fmt.Fprintf(out, "Message: %s\n", report.ErrorDetails.Message)
	fmt.Fprintf(out, "Report: %s\n", path)
	fmt.Fprintf(out, "\nRoot Cause: %s\n", report.LLMAnalysis.RootCause)

	fmt.Fprintln(out, "\nSuggested Fixes:")
	for _, fix := range report.LLMAnalysis.SuggestedFixes {
		fmt.Fprintf(out, "- %s\n", fix)
	}

	fmt.Fprintln(out, "\nGit Commits Involved:")
	for _, commit := range report.GitCommits {
		fmt.Fprintf(out, "- %s by %s\n", commit.Hash, commit.Author)
	}
}
