// Package pipeline composes the four triage stages: intake, enrichment,
// report persistence, and notification. Each run is a stateless linear
// sequence; the only durable effect is the report artifact, written only
// after every preceding stage has succeeded.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/enrich"
)

// Analyzer runs the triage pipeline for one error id at a time. Concurrent
// runs for different ids are independent; for the same id the store's
// atomic replace makes the last writer win.
type Analyzer struct {
	tracker  schemas.Tracker
	enricher *enrich.Enricher
	store    schemas.ReportStore
	notifier schemas.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// New wires an analyzer. The notifier may be nil to disable notifications.
func New(tracker schemas.Tracker, enricher *enrich.Enricher, store schemas.ReportStore, notifier schemas.Notifier, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		tracker:  tracker,
		enricher: enricher,
		store:    store,
		notifier: notifier,
		logger:   logger.Named("analyzer"),
		now:      time.Now,
	}
}

// Run analyzes one error id end to end and returns the persisted report and
// its artifact path. Intake and enrichment failures abort the run with no
// partial report written; notification failures are logged and swallowed.
func (a *Analyzer) Run(ctx context.Context, errorID string) (*schemas.Report, string, error) {
	a.logger.Info("Starting analysis", zap.String("error_id", errorID))

	record, err := a.tracker.FetchError(ctx, errorID)
	if err != nil {
		a.logger.Error("Intake failed", zap.String("error_id", errorID), zap.Error(err))
		return nil, "", err
	}

	result, err := a.enricher.Enrich(ctx, record)
	if err != nil {
		a.logger.Error("Enrichment failed", zap.String("error_id", errorID), zap.Error(err))
		return nil, "", err
	}

	report := &schemas.Report{
		ErrorID:      errorID,
		GeneratedAt:  a.now().UTC(),
		ErrorDetails: *record,
		CodeAnalysis: result.CodeAnalysis,
		LLMAnalysis:  result.LLMAnalysis,
		GitCommits:   result.GitCommits,
	}

	path, err := a.store.Save(ctx, report)
	if err != nil {
		a.logger.Error("Report persistence failed", zap.String("error_id", errorID), zap.Error(err))
		return nil, "", err
	}

	a.notify(ctx, report, path)

	a.logger.Info("Analysis complete",
		zap.String("error_id", errorID),
		zap.String("report", path),
		zap.Int("contexts", len(report.CodeAnalysis)),
		zap.Int("commits", len(report.GitCommits)))
	return report, path, nil
}

// notify sends the post-analysis notification. Purely informational: any
// failure is logged, never propagated, and callers must not assume the
// notification lands before or after the report file is visible.
func (a *Analyzer) notify(ctx context.Context, report *schemas.Report, path string) {
	if a.notifier == nil {
		return
	}

	n := &schemas.Notification{
		ErrorID:   report.ErrorID,
		Status:    "analyzed",
		IssueFile: path,
		Summary: schemas.NotificationSummary{
			Type:           report.ErrorDetails.Type,
			Message:        report.ErrorDetails.Message,
			RootCause:      report.LLMAnalysis.RootCause,
			SuggestedFixes: report.LLMAnalysis.SuggestedFixes,
		},
	}

	ack, err := a.notifier.Notify(ctx, n)
	if err != nil {
		a.logger.Error("Failed to notify API", zap.String("error_id", report.ErrorID), zap.Error(err))
		return
	}
	a.logger.Info("Notification sent",
		zap.String("error_id", report.ErrorID),
		zap.Bool("received", ack.Received))
}
