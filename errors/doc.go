// Package errors provides unified error handling for the composition engine.
// It implements structured error types with machine-readable error codes and
// retryable detection, so callers can distinguish protocol violations from
// transient fetch failures.
package errors
