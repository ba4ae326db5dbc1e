package fixer

import (
	"fmt"
	"strings"
)

// Strategy rewrites one implicated line. Implementations must be pure and
// deterministic: the suggestion depends only on the line text and number.
type Strategy func(original string, line int) (suggested string, explanation string)

// splitIndent separates leading whitespace from the code text.
func splitIndent(s string) (indent, code string) {
	trimmed := strings.TrimLeft(s, " \t")
	return s[:len(s)-len(trimmed)], trimmed
}

// stripTrailingComment drops an inline comment so wrappers stay valid.
func stripTrailingComment(code string) string {
	if i := strings.Index(code, "#"); i >= 0 {
		return strings.TrimRight(code[:i], " ")
	}
	return code
}

// wrap rebuilds the line with the code text passed through fn, preserving
// indentation.
func wrap(original string, fn func(code string) string) string {
	indent, code := splitIndent(original)
	return indent + fn(stripTrailingComment(code))
}

// genericStrategy is the fallback for tags outside the dispatch table: guard
// the line so failures are logged and re-raised with context.
func genericStrategy(original string, line int) (string, string) {
	suggested := wrap(original, func(code string) string {
		return fmt.Sprintf("with log_and_reraise(context='line %d'): %s", line, code)
	})
	return suggested, fmt.Sprintf(
		"No dedicated fix strategy for this error type; line %d is wrapped in a guard that logs the failure and re-raises it with added context.", line)
}

// strategies is the per-kind rewrite table.
var strategies = map[Kind]Strategy{
	KindDatabase: func(original string, line int) (string, string) {
		if strings.Contains(original, "timeout=5") {
			return strings.Replace(original, "timeout=5", "timeout=30", 1),
				"Insufficient timeout for database operations under load; raising the connection timeout from 5 to 30 seconds."
		}
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("retry_with_backoff(lambda: %s, attempts=3)", code)
		})
		return suggested, "Database calls should tolerate transient faults; the operation is wrapped in retry with exponential backoff."
	},
	KindAuthentication: func(original string, line int) (string, string) {
		if strings.Contains(original, "len(token) < 32") {
			return strings.Replace(original, "len(token) < 32", "not is_valid_token_format(token)", 1),
				"Raw length checks reject legitimate token formats; validate the token format and signature instead."
		}
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("require_bearer_token(token, verify_signature=True); %s", code)
		})
		return suggested, "The line runs without an authenticated caller; require a non-empty bearer token and validate its signature first."
	},
	KindConnection: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("connect_with_retry(lambda: %s, attempts=3)", code)
		})
		return suggested, "A single refused connection currently fails the request; retry the connection with backoff before surfacing the error."
	},
	KindTimeout: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("with_deadline(lambda: %s, seconds=30)", code)
		})
		return suggested, "The operation has no explicit deadline; bound it so slow responses fail fast instead of hanging."
	},
	KindValidation: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("validate_payload(payload); %s", code)
		})
		return suggested, "Input reaches this line unvalidated; validate the payload at the boundary before using it."
	},
	KindResourceNotFound: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("ensure_exists(resource); %s", code)
		})
		return suggested, "The lookup result is used unconditionally; check existence first and return a not-found response when absent."
	},
	KindPermission: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("require_permission(user, resource); %s", code)
		})
		return suggested, "The operation runs before authorization is checked; enforce the permission check up front."
	},
	KindRateLimit: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("rate_limiter.call(lambda: %s)", code)
		})
		return suggested, "Unpaced calls exhaust the quota; route the call through a client-side rate limiter."
	},
	KindMemory: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			if strings.HasPrefix(code, "return list(") {
				return "return iter(" + strings.TrimPrefix(code, "return list(")
			}
			return fmt.Sprintf("stream_lazily(lambda: %s)", code)
		})
		return suggested, "The line materializes the full dataset eagerly; produce it lazily to bound memory use."
	},
	KindConcurrency: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("with state_lock: %s", code)
		})
		return suggested, "The line mutates shared state without synchronization; guard it with the owning lock."
	},
	KindConfiguration: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("config.require_valid(); %s", code)
		})
		return suggested, "The line consumes configuration that was never validated; validate at startup and fail fast."
	},
	KindSecurity: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("sanitize_input(payload); %s", code)
		})
		return suggested, "Untrusted input reaches a sensitive operation; sanitize it before this line runs."
	},
	KindNetwork: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("retry_transient(lambda: %s, attempts=3)", code)
		})
		return suggested, "Network I/O on this line does not tolerate transient faults; retry idempotent requests before failing."
	},
	KindFileSystem: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("with handle_fs_errors(): %s", code)
		})
		return suggested, "File system access here assumes the happy path; handle missing paths and permission errors explicitly."
	},
	KindSerialization: func(original string, line int) (string, string) {
		suggested := wrap(original, func(code string) string {
			return fmt.Sprintf("check_schema(payload); %s", code)
		})
		return suggested, "The payload is decoded without a schema check; validate it against the expected schema first."
	},
	KindGeneric: genericStrategy,
}

// StrategyFor returns the strategy for a kind. Kinds missing from the table
// degrade to the generic strategy rather than failing dispatch.
func StrategyFor(kind Kind) Strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return genericStrategy
}
