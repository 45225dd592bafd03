package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request errors (malformed request, not "needs more data")
const (
	// ErrCodeUnregisteredPath indicates the requested path is not in the registry.
	ErrCodeUnregisteredPath ErrorCode = "UNREGISTERED_PATH"
	// ErrCodeNotComposable indicates the requested path is not a computed field.
	ErrCodeNotComposable ErrorCode = "NOT_COMPOSABLE"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Registration errors (fatal at startup, never reached at request time)
const (
	// ErrCodeCyclicDependency indicates the spec graph contains a cycle.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeUnknownUpstream indicates a spec references an unregistered upstream name.
	ErrCodeUnknownUpstream ErrorCode = "UNKNOWN_UPSTREAM"
	// ErrCodeDuplicateSpec indicates a spec name was registered twice.
	ErrCodeDuplicateSpec ErrorCode = "DUPLICATE_SPEC"
	// ErrCodeInvalidSpec indicates a spec carries fields inconsistent with its stage.
	ErrCodeInvalidSpec ErrorCode = "INVALID_SPEC"
)

// Evaluation errors
const (
	// ErrCodeUnresolvedDependency indicates compose was called before all
	// transitive requirements were present in the cache.
	ErrCodeUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"
	// ErrCodeDeriveFailed indicates a domain-supplied derive function failed.
	ErrCodeDeriveFailed ErrorCode = "DERIVE_FAILED"
	// ErrCodeComposeFailed indicates a domain-supplied compose function failed.
	ErrCodeComposeFailed ErrorCode = "COMPOSE_FAILED"
	// ErrCodeValueType indicates a cached value had an unexpected variant kind.
	ErrCodeValueType ErrorCode = "VALUE_TYPE_MISMATCH"
)

// Caller-loop errors (retryable where noted)
const (
	// ErrCodeFetchFailed indicates the transport failed to fetch a requirement.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
	// ErrCodeResolutionStalled indicates a resolve pass made no progress.
	ErrCodeResolutionStalled ErrorCode = "RESOLUTION_STALLED"
	// ErrCodeMaxPassesExceeded indicates the resolve/fetch loop hit its pass cap.
	ErrCodeMaxPassesExceeded ErrorCode = "MAX_PASSES_EXCEEDED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeFetchFailed: true,
}

// IsRetryableCode reports whether an error code is retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
