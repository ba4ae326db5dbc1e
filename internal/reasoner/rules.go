// Package reasoner implements the reasoning collaborator that produces
// root-cause narratives for enriched errors. The shipped implementation is
// rule-based and fully deterministic; a model-backed one can slot in behind
// the same schemas.Reasoner interface.
package reasoner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// RuleBased derives a RootCauseAnalysis from the error's type tag and the
// implicated files. Same input always yields the same narrative.
type RuleBased struct {
	logger *zap.Logger
}

// NewRuleBased creates the rule-based reasoner.
func NewRuleBased(logger *zap.Logger) *RuleBased {
	return &RuleBased{logger: logger.Named("reasoner.rules")}
}

// Analyze implements schemas.Reasoner.
func (r *RuleBased) Analyze(ctx context.Context, record *schemas.ErrorRecord, contexts []schemas.CodeContext) (*schemas.RootCauseAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("error record is required")
	}

	analysis, ok := narratives[record.Type]
	if !ok {
		analysis = genericNarrative(record)
	}

	// Anchor the explanation to the outermost implicated file when known.
	if file := primaryFile(record, contexts); file != "" && !strings.Contains(analysis.CodeLevelExplanation, file) {
		analysis.CodeLevelExplanation = fmt.Sprintf("%s The error originates in %s.", analysis.CodeLevelExplanation, file)
	}

	r.logger.Debug("Rule-based analysis produced",
		zap.String("error_id", record.ErrorID),
		zap.String("type", record.Type))

	out := analysis
	out.SuggestedFixes = append([]string(nil), analysis.SuggestedFixes...)
	out.PreventionMeasures = append([]string(nil), analysis.PreventionMeasures...)
	return &out, nil
}

// primaryFile returns the file of the outermost frame with a resolved
// context, or an empty string.
func primaryFile(record *schemas.ErrorRecord, contexts []schemas.CodeContext) string {
	for _, c := range contexts {
		if !c.Empty() {
			return c.FilePath
		}
	}
	if len(record.StackTrace) > 0 {
		frame := record.StackTrace[0]
		if i := strings.Index(frame, ":"); i > 0 {
			return frame[:i]
		}
	}
	return ""
}

// genericNarrative covers type tags outside the known set.
func genericNarrative(record *schemas.ErrorRecord) schemas.RootCauseAnalysis {
	return schemas.RootCauseAnalysis{
		RootCause: fmt.Sprintf("Unhandled %s in the request path", record.Type),
		CodeLevelExplanation: fmt.Sprintf(
			"The error %q was raised without a specific remediation rule. Review the implicated lines and the surrounding error handling.",
			record.Message),
		SuggestedFixes: []string{
			"Add targeted error handling around the failing call",
			"Log enough context at the failure site to diagnose recurrence",
			"Add a regression test reproducing the failure",
		},
		PreventionMeasures: []string{
			"Extend monitoring to cover this error type",
			"Document the failure mode in the service runbook",
		},
	}
}

// narratives is the per-type analysis table. Keep entries deterministic:
// no timestamps, no randomness.
var narratives = map[string]schemas.RootCauseAnalysis{
	"DatabaseError": {
		RootCause:            "Insufficient timeout value for database connection",
		CodeLevelExplanation: "The database connection is timing out because the timeout value of 5 seconds is too low for the current load. The error occurs in database.py when trying to establish a connection.",
		SuggestedFixes: []string{
			"Increase database connection timeout to 30 seconds",
			"Implement connection pooling",
			"Add retry mechanism with exponential backoff",
		},
		PreventionMeasures: []string{
			"Implement circuit breakers for database operations",
			"Add monitoring for database connection metrics",
			"Set up alerts for connection timeouts",
		},
	},
	"AuthenticationError": {
		RootCause:            "Insufficient token validation",
		CodeLevelExplanation: "The authentication token validation is failing because the token length check is too strict. The error occurs in auth.py when validating the token.",
		SuggestedFixes: []string{
			"Update token validation logic to handle different token formats",
			"Add better error messages for token validation failures",
			"Implement token refresh mechanism",
		},
		PreventionMeasures: []string{
			"Add comprehensive token validation tests",
			"Implement token blacklisting for revoked tokens",
			"Set up monitoring for authentication failures",
		},
	},
	"ConnectionError": {
		RootCause:            "Downstream service connection could not be established",
		CodeLevelExplanation: "The call site opens a connection without retry or failover, so a single refused connection surfaces as a request failure.",
		SuggestedFixes: []string{
			"Retry the connection with exponential backoff",
			"Fail over to a healthy replica when available",
		},
		PreventionMeasures: []string{
			"Health-check downstream endpoints before routing traffic",
			"Alert on connection error rates",
		},
	},
	"TimeoutError": {
		RootCause:            "Operation exceeded its deadline",
		CodeLevelExplanation: "The operation has no explicit deadline or one too tight for observed latencies, so slow responses surface as timeouts.",
		SuggestedFixes: []string{
			"Set an explicit, realistic deadline on the call",
			"Propagate cancellation to the downstream call",
		},
		PreventionMeasures: []string{
			"Track downstream latency percentiles",
			"Budget deadlines end to end across services",
		},
	},
	"ValidationError": {
		RootCause:            "Request payload failed validation",
		CodeLevelExplanation: "Input reaches the failing line without prior validation, so malformed payloads fault deep in the handler instead of at the boundary.",
		SuggestedFixes: []string{
			"Validate the payload at the API boundary",
			"Return a structured 400 response naming the invalid field",
		},
		PreventionMeasures: []string{
			"Share a request schema between client and server",
			"Fuzz the endpoint with malformed payloads",
		},
	},
	"ResourceNotFoundError": {
		RootCause:            "Lookup for a missing resource was not handled",
		CodeLevelExplanation: "The code assumes the resource exists and dereferences the lookup result unconditionally.",
		SuggestedFixes: []string{
			"Check existence before use and return a 404 for missing resources",
			"Distinguish missing data from lookup failures",
		},
		PreventionMeasures: []string{
			"Add tests covering deleted and never-created resources",
		},
	},
	"PermissionError": {
		RootCause:            "Caller lacks the required permission",
		CodeLevelExplanation: "The authorization check either runs too late or not at all on this path, so the failure surfaces from the underlying operation.",
		SuggestedFixes: []string{
			"Enforce the permission check before performing the operation",
			"Return a 403 with an actionable message",
		},
		PreventionMeasures: []string{
			"Centralize authorization policy checks",
			"Audit endpoints for missing permission guards",
		},
	},
	"RateLimitError": {
		RootCause:            "Request rate exceeded the allowed quota",
		CodeLevelExplanation: "The client issues requests without pacing, so bursts exhaust the quota and subsequent calls are rejected.",
		SuggestedFixes: []string{
			"Wrap outbound calls in a client-side rate limiter",
			"Honor Retry-After headers on 429 responses",
		},
		PreventionMeasures: []string{
			"Monitor quota consumption against limits",
			"Smooth bursts with request queueing",
		},
	},
	"MemoryError": {
		RootCause:            "Allocation exceeded available memory",
		CodeLevelExplanation: "The failing line materializes a full dataset in memory at once instead of streaming it.",
		SuggestedFixes: []string{
			"Process the data as a lazy stream instead of a full in-memory collection",
			"Bound batch sizes for large result sets",
		},
		PreventionMeasures: []string{
			"Set memory alerts below the hard limit",
			"Load-test with production-sized datasets",
		},
	},
	"ConcurrencyError": {
		RootCause:            "Unsynchronized concurrent access to shared state",
		CodeLevelExplanation: "The failing line mutates state that other goroutines or threads read concurrently without synchronization.",
		SuggestedFixes: []string{
			"Guard the shared state with a lock or confine it to one owner",
			"Use atomic operations for simple counters and flags",
		},
		PreventionMeasures: []string{
			"Run the race detector in CI",
		},
	},
	"ConfigurationError": {
		RootCause:            "Missing or invalid configuration value",
		CodeLevelExplanation: "The failing line consumes a configuration value that was never validated at startup.",
		SuggestedFixes: []string{
			"Validate configuration at startup and fail fast",
			"Provide a safe default where one exists",
		},
		PreventionMeasures: []string{
			"Schema-check configuration files in CI",
		},
	},
	"SecurityError": {
		RootCause:            "Operation violated a security policy",
		CodeLevelExplanation: "Untrusted input reaches a sensitive operation on the failing line without sanitization.",
		SuggestedFixes: []string{
			"Sanitize and validate the input before the sensitive operation",
			"Apply the principle of least privilege to the executing identity",
		},
		PreventionMeasures: []string{
			"Add the path to security regression tests",
			"Schedule periodic dependency and code audits",
		},
	},
	"NetworkError": {
		RootCause:            "Network path to the peer failed",
		CodeLevelExplanation: "The failing line performs network I/O without tolerating transient faults, so packet loss or resets surface directly.",
		SuggestedFixes: []string{
			"Retry idempotent requests on transient network failures",
			"Surface a degraded-mode response when the peer is unreachable",
		},
		PreventionMeasures: []string{
			"Monitor error rates per peer and route",
		},
	},
	"FileSystemError": {
		RootCause:            "File system operation failed",
		CodeLevelExplanation: "The failing line accesses a path without handling missing files, permissions, or full disks.",
		SuggestedFixes: []string{
			"Handle missing-path and permission errors explicitly",
			"Create parent directories before writing",
		},
		PreventionMeasures: []string{
			"Alert on disk usage before exhaustion",
		},
	},
	"SerializationError": {
		RootCause:            "Payload could not be encoded or decoded",
		CodeLevelExplanation: "The failing line assumes the payload matches the expected schema; mismatched or corrupt data fails the codec.",
		SuggestedFixes: []string{
			"Validate the payload against its schema before decoding",
			"Version the serialized format and handle older versions",
		},
		PreventionMeasures: []string{
			"Add round-trip tests for every schema change",
		},
	},
}
