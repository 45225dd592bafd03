package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from an error chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// --- Common Error Constructors ---

// UnregisteredPath creates a new AppError for a path absent from the registry.
func UnregisteredPath(path string, available []string) *AppError {
	return &AppError{
		Code: ErrCodeUnregisteredPath, Message: fmt.Sprintf("path %q is not registered", path),
		Details: map[string]any{"path": path, "available": available},
	}
}

// NotComposable creates a new AppError for a compose request on a non-computed path.
func NotComposable(path, stage string) *AppError {
	return &AppError{
		Code: ErrCodeNotComposable, Message: fmt.Sprintf("path %q is %s, not computed; only computed fields can be composed", path, stage),
		Details: map[string]any{"path": path, "stage": stage},
	}
}

// CyclicDependency creates a new AppError naming the specs participating in a cycle.
func CyclicDependency(members []string) *AppError {
	return &AppError{
		Code: ErrCodeCyclicDependency, Message: fmt.Sprintf("dependency graph contains a cycle among %v", members),
		Details: map[string]any{"members": members},
	}
}

// UnknownUpstream creates a new AppError for a dangling upstream reference.
func UnknownUpstream(name, upstream string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownUpstream, Message: fmt.Sprintf("spec %q depends on unregistered spec %q", name, upstream),
		Details: map[string]any{"spec": name, "upstream": upstream},
	}
}

// DuplicateSpec creates a new AppError for a name registered twice.
func DuplicateSpec(name string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateSpec, Message: fmt.Sprintf("spec %q is already registered", name),
		Details: map[string]any{"spec": name},
	}
}

// InvalidSpec creates a new AppError for a spec whose fields do not match its stage.
func InvalidSpec(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidSpec, Message: fmt.Sprintf("spec %q is invalid: %s", name, reason),
		Details: map[string]any{"spec": name},
	}
}

// UnresolvedDependency creates a new AppError naming the missing requirement.
func UnresolvedDependency(spec, requirement string) *AppError {
	return &AppError{
		Code: ErrCodeUnresolvedDependency, Message: fmt.Sprintf("spec %q requires %s which is not in the cache; resolve before composing", spec, requirement),
		Details: map[string]any{"spec": spec, "requirement": requirement},
	}
}

// DeriveFailed creates a new AppError for a failing derive function.
func DeriveFailed(spec string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeriveFailed, Message: fmt.Sprintf("derive function for spec %q failed", spec),
		Details: map[string]any{"spec": spec}, Cause: cause,
	}
}

// ComposeFailed creates a new AppError for a failing compose function.
func ComposeFailed(spec string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeComposeFailed, Message: fmt.Sprintf("compose function for spec %q failed", spec),
		Details: map[string]any{"spec": spec}, Cause: cause,
	}
}

// ValueType creates a new AppError for a cached value of the wrong variant kind.
func ValueType(expected, got string) *AppError {
	return &AppError{
		Code: ErrCodeValueType, Message: fmt.Sprintf("expected %s value, got %s", expected, got),
		Details: map[string]any{"expected": expected, "got": got},
	}
}

// FetchFailed creates a new AppError for a transport fetch failure.
func FetchFailed(requirement string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFetchFailed, Message: fmt.Sprintf("fetching %s failed", requirement),
		Retryable: true, Details: map[string]any{"requirement": requirement}, Cause: cause,
	}
}

// ResolutionStalled creates a new AppError for a resolve pass that made no progress.
func ResolutionStalled(paths []string) *AppError {
	return &AppError{
		Code: ErrCodeResolutionStalled, Message: "resolution stalled: unsatisfied paths remain but no requirements are pending",
		Details: map[string]any{"paths": paths},
	}
}

// MaxPassesExceeded creates a new AppError for a resolve/fetch loop that hit its cap.
func MaxPassesExceeded(limit int) *AppError {
	return &AppError{
		Code: ErrCodeMaxPassesExceeded, Message: fmt.Sprintf("resolution did not converge within %d passes", limit),
		Details: map[string]any{"limit": limit},
	}
}

// InvalidConfig creates a new AppError for configuration validation failures.
func InvalidConfig(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid configuration: %s", reason),
	}
}
