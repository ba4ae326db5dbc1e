// Package fixer turns a stored report into concrete line-rewrite
// suggestions. Strategy selection is a closed dispatch over the known error
// kinds; every strategy is a pure, deterministic function of the original
// line text and its line number.
package fixer

// Kind is the closed set of error kinds the dispatch table knows about.
// Unknown type tags map to KindGeneric.
type Kind string

const (
	KindDatabase         Kind = "DatabaseError"
	KindAuthentication   Kind = "AuthenticationError"
	KindConnection       Kind = "ConnectionError"
	KindTimeout          Kind = "TimeoutError"
	KindValidation       Kind = "ValidationError"
	KindResourceNotFound Kind = "ResourceNotFoundError"
	KindPermission       Kind = "PermissionError"
	KindRateLimit        Kind = "RateLimitError"
	KindMemory           Kind = "MemoryError"
	KindConcurrency      Kind = "ConcurrencyError"
	KindConfiguration    Kind = "ConfigurationError"
	KindSecurity         Kind = "SecurityError"
	KindNetwork          Kind = "NetworkError"
	KindFileSystem       Kind = "FileSystemError"
	KindSerialization    Kind = "SerializationError"
	KindGeneric          Kind = "GenericError"
)

// knownKinds lists every kind with a dedicated strategy.
var knownKinds = map[Kind]struct{}{
	KindDatabase:         {},
	KindAuthentication:   {},
	KindConnection:       {},
	KindTimeout:          {},
	KindValidation:       {},
	KindResourceNotFound: {},
	KindPermission:       {},
	KindRateLimit:        {},
	KindMemory:           {},
	KindConcurrency:      {},
	KindConfiguration:    {},
	KindSecurity:         {},
	KindNetwork:          {},
	KindFileSystem:       {},
	KindSerialization:    {},
	KindGeneric:          {},
}

// KindOf maps a type tag to its dispatch kind, falling back to KindGeneric
// for tags outside the known set.
func KindOf(tag string) Kind {
	k := Kind(tag)
	if _, ok := knownKinds[k]; ok {
		return k
	}
	return KindGeneric
}
