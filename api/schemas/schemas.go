// Package schemas defines the shared data model for the triage pipeline:
// the error record fetched from the tracking backend, the enrichment
// artifacts attached to it, and the durable report that ties them together.
package schemas

import "time"

// -- Error Record --

// ErrorRecord is the canonical description of a single reported incident.
// It is immutable once produced by the tracking collaborator.
type ErrorRecord struct {
	ErrorID   string `json:"error_id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`

	// Correlation fields. Optional; empty when the backend has no request
	// context for the incident.
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`

	// StackTrace holds frame strings of the form "file:line: function()",
	// outermost call first.
	StackTrace []string `json:"stack_trace"`
}

// -- Enrichment Artifacts --

// BlameEntry is the best-effort attribution for a single source line.
type BlameEntry struct {
	Author string `json:"author"`
	Commit string `json:"commit"`
	Date   string `json:"date"`
}

// CodeContext is the source-line window surrounding the lines a stack-trace
// frame implicates in one file. Line numbers are the map keys; on the wire
// they are encoded as strings (JSON object keys) and reinterpreted as
// integers on load.
type CodeContext struct {
	FilePath     string             `json:"file_path"`
	ErrorLines   []int              `json:"error_lines"`
	ContextLines map[int]string     `json:"context_lines"`
	BlameInfo    map[int]BlameEntry `json:"blame_info"`
}

// Empty reports whether the context carries no resolved source lines, the
// shape produced when the implicated file could not be read.
func (c CodeContext) Empty() bool {
	return len(c.ErrorLines) == 0 && len(c.ContextLines) == 0
}

// RootCauseAnalysis is the narrative output of the reasoning collaborator.
type RootCauseAnalysis struct {
	RootCause            string   `json:"root_cause"`
	CodeLevelExplanation string   `json:"code_level_explanation"`
	SuggestedFixes       []string `json:"suggested_fixes"`
	PreventionMeasures   []string `json:"prevention_measures"`
}

// CommitInfo describes one commit referenced by blame entries, deduplicated
// by hash across all code contexts of a report.
type CommitInfo struct {
	Hash         string   `json:"hash"`
	Author       string   `json:"author"`
	Date         string   `json:"date"`
	Message      string   `json:"message"`
	FilesChanged []string `json:"files_changed"`
}

// -- Report --

// Report is the durable artifact of one analysis run, written once per
// error id and replaced wholesale on re-analysis.
type Report struct {
	ErrorID      string            `json:"error_id"`
	GeneratedAt  time.Time         `json:"timestamp"`
	ErrorDetails ErrorRecord       `json:"error_details"`
	CodeAnalysis []CodeContext     `json:"code_analysis"`
	LLMAnalysis  RootCauseAnalysis `json:"llm_analysis"`
	GitCommits   []CommitInfo      `json:"git_commits"`
}

// -- Fix Suggestions --

// CodeChange is one suggested rewrite for a single implicated line.
type CodeChange struct {
	FilePath    string `json:"file_path"`
	LineNumber  int    `json:"line_number"`
	Original    string `json:"original_code"`
	Suggested   string `json:"new_code"`
	Explanation string `json:"explanation"`
	Description string `json:"description"`
	Author      string `json:"author"`
	CommitHash  string `json:"commit_hash"`
}

// -- Notification --

// Notification is the informational payload sent to the notification
// collaborator after a report has been written. Delivery is fire-and-forget.
type Notification struct {
	ErrorID   string              `json:"error_id"`
	Status    string              `json:"status"`
	IssueFile string              `json:"issue_file"`
	Summary   NotificationSummary `json:"summary"`
}

// NotificationSummary condenses the analysis for the notification channel.
type NotificationSummary struct {
	Type           string   `json:"type"`
	Message        string   `json:"message"`
	RootCause      string   `json:"root_cause"`
	SuggestedFixes []string `json:"suggested_fixes"`
}

// NotificationAck is the acknowledgment echoed by the notification API.
type NotificationAck struct {
	Received       bool      `json:"received"`
	NotificationID string    `json:"notification_id"`
	Timestamp      time.Time `json:"timestamp"`
}
