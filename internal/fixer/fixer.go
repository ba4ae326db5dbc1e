package fixer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// Fixer generates per-line code change suggestions from a stored report.
type Fixer struct {
	logger *zap.Logger
}

// New creates a fixer.
func New(logger *zap.Logger) *Fixer {
	return &Fixer{logger: logger.Named("fixer")}
}

// Suggest produces one CodeChange per error line per code context, selecting
// the rewrite strategy by the report's error type. Contexts without resolved
// lines are skipped; missing blame degrades to "Unknown" attribution.
func (f *Fixer) Suggest(report *schemas.Report) ([]schemas.CodeChange, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}

	kind := KindOf(report.ErrorDetails.Type)
	strategy := StrategyFor(kind)
	description := ""
	if len(report.LLMAnalysis.SuggestedFixes) > 0 {
		description = report.LLMAnalysis.SuggestedFixes[0]
	}

	var changes []schemas.CodeChange
	for _, cc := range report.CodeAnalysis {
		if cc.Empty() {
			f.logger.Debug("Skipping context without resolved lines",
				zap.String("file", cc.FilePath))
			continue
		}

		for _, line := range cc.ErrorLines {
			original, ok := cc.ContextLines[line]
			if !ok {
				// Tolerated the same way an unmappable tag is: degrade,
				// never abort the report's fix generation.
				f.logger.Warn("Error line missing from context window",
					zap.String("file", cc.FilePath), zap.Int("line", line))
				continue
			}

			suggested, explanation := strategy(original, line)

			author, commit := "Unknown", "Unknown"
			if blame, ok := cc.BlameInfo[line]; ok {
				author, commit = blame.Author, blame.Commit
			}

			changes = append(changes, schemas.CodeChange{
				FilePath:    cc.FilePath,
				LineNumber:  line,
				Original:    original,
				Suggested:   suggested,
				Explanation: explanation,
				Description: description,
				Author:      author,
				CommitHash:  commit,
			})
		}
	}

	f.logger.Info("Fix suggestions generated",
		zap.String("error_id", report.ErrorID),
		zap.String("kind", string(kind)),
		zap.Int("changes", len(changes)))
	return changes, nil
}

// PullRequestDescription synthesizes a human-readable PR body summarizing
// the suggested changes. Presentation only; not part of the data contract.
func PullRequestDescription(report *schemas.Report, changes []schemas.CodeChange) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Fix %s (%s)\n\n", report.ErrorID, report.ErrorDetails.Type)
	fmt.Fprintf(&b, "%s\n\n", report.ErrorDetails.Message)
	if report.LLMAnalysis.RootCause != "" {
		fmt.Fprintf(&b, "**Root cause:** %s\n\n", report.LLMAnalysis.RootCause)
	}

	files := make(map[string]struct{})
	for _, c := range changes {
		files[c.FilePath] = struct{}{}
	}
	fmt.Fprintf(&b, "This change rewrites %d line(s) across %d file(s):\n\n", len(changes), len(files))
	for _, c := range changes {
		fmt.Fprintf(&b, "- `%s:%d`: %s\n", c.FilePath, c.LineNumber, c.Explanation)
	}

	return b.String()
}
