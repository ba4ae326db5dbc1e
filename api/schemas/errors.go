package schemas

import "fmt"

// The pipeline's failure taxonomy. Intake and enrichment failures abort the
// whole analysis for an error id with no partial report written; dispatch
// failures on individual lines degrade to the generic strategy instead.

// NotFoundError indicates an unknown error id, or a load for an error id
// with no stored report.
type NotFoundError struct {
	ErrorID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("error %s: not found", e.ErrorID)
}

// TransientFetchError indicates the tracking collaborator was unreachable.
// The operation is safe to retry.
type TransientFetchError struct {
	ErrorID string
	Err     error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("error %s: transient fetch failure: %v", e.ErrorID, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// AnalysisUnavailable indicates the reasoning collaborator failed to produce
// a root-cause analysis. The enrichment stage fails atomically.
type AnalysisUnavailable struct {
	ErrorID string
	Err     error
}

func (e *AnalysisUnavailable) Error() string {
	return fmt.Sprintf("error %s: root-cause analysis unavailable: %v", e.ErrorID, e.Err)
}

func (e *AnalysisUnavailable) Unwrap() error { return e.Err }

// MalformedReport indicates a stored report failed to decode: required
// fields missing or line-number keys unparsable as integers.
type MalformedReport struct {
	ErrorID string
	Reason  string
	Err     error
}

func (e *MalformedReport) Error() string {
	return fmt.Sprintf("report %s: malformed: %s", e.ErrorID, e.Reason)
}

func (e *MalformedReport) Unwrap() error { return e.Err }
