package schemas

import "context"

// -- Collaborator Interfaces --

// Tracker is the error-tracking collaborator. The pipeline depends only on
// this contract: return an ErrorRecord for a known id, fail with
// *NotFoundError for an unknown one, or *TransientFetchError when the
// backend is unreachable.
type Tracker interface {
	// FetchError retrieves the canonical record for the given error id.
	FetchError(ctx context.Context, errorID string) (*ErrorRecord, error)
}

// Reasoner is the reasoning collaborator that produces the root-cause
// narrative for an enriched error. It must complete synchronously before a
// report is finalized; a failure surfaces as *AnalysisUnavailable upstream.
type Reasoner interface {
	// Analyze produces a RootCauseAnalysis for the record and its code
	// contexts.
	Analyze(ctx context.Context, record *ErrorRecord, contexts []CodeContext) (*RootCauseAnalysis, error)
}

// ReportStore persists analysis reports, one artifact per error id.
// Saving the same id again replaces the previous artifact atomically.
type ReportStore interface {
	// Save writes the report for report.ErrorID, replacing any existing one.
	Save(ctx context.Context, report *Report) (string, error)
	// Load reads the stored report for the given error id. It fails with
	// *NotFoundError when no artifact exists and *MalformedReport when the
	// artifact cannot be decoded.
	Load(ctx context.Context, errorID string) (*Report, error)
	// Exists reports whether an artifact is present for the given error id.
	Exists(errorID string) bool
}

// Notifier delivers the post-analysis notification. Delivery is purely
// informational; callers must not depend on ordering relative to report
// writes.
type Notifier interface {
	// Notify sends the notification and returns the acknowledgment, if any.
	Notify(ctx context.Context, n *Notification) (*NotificationAck, error)
}
