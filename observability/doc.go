// Package observability provides OpenTelemetry tracing and metrics for the
// composition library: OTLP-HTTP exporter setup, span helpers, and a bundle
// of resolve/compose/fetch instruments.
package observability
