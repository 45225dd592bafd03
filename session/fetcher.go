package session

import (
	"context"
	"time"

	"github.com/plasmakit/imascompose/composer"
	"github.com/plasmakit/imascompose/logger"
	"github.com/plasmakit/imascompose/observability"
)

// Fetcher obtains the value for one Requirement from the external signal
// store. Implementations belong to the transport layer; the engine never
// sees them.
type Fetcher interface {
	Fetch(ctx context.Context, req composer.Requirement) (composer.Value, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req composer.Requirement) (composer.Value, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req composer.Requirement) (composer.Value, error) {
	return f(ctx, req)
}

// WithTracing wraps a Fetcher with OpenTelemetry span creation.
// Each fetch creates a span carrying the requirement triple.
func WithTracing(fetcher Fetcher) Fetcher {
	return &tracingFetcher{inner: fetcher}
}

type tracingFetcher struct {
	inner Fetcher
}

func (f *tracingFetcher) Fetch(ctx context.Context, req composer.Requirement) (composer.Value, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanFetch)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrRequirement, req.Path)
	observability.SetSpanAttribute(ctx, observability.AttrSource, req.Source)
	observability.SetSpanAttribute(ctx, observability.AttrShot, req.Shot)

	value, err := f.inner.Fetch(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return value, err
}

// WithMetrics wraps a Fetcher with metric recording.
func WithMetrics(fetcher Fetcher, metrics *observability.Metrics) Fetcher {
	return &metricsFetcher{inner: fetcher, metrics: metrics}
}

type metricsFetcher struct {
	inner   Fetcher
	metrics *observability.Metrics
}

func (f *metricsFetcher) Fetch(ctx context.Context, req composer.Requirement) (composer.Value, error) {
	start := time.Now()
	value, err := f.inner.Fetch(ctx, req)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		f.metrics.RecordError(ctx, "fetch", req.Source)
	}
	f.metrics.RecordFetch(ctx, req.Source, status, duration)

	return value, err
}

// WithLogging wraps a Fetcher with per-fetch logging.
func WithLogging(fetcher Fetcher, log *logger.Logger) Fetcher {
	return &loggingFetcher{inner: fetcher, log: log}
}

type loggingFetcher struct {
	inner Fetcher
	log   *logger.Logger
}

func (f *loggingFetcher) Fetch(ctx context.Context, req composer.Requirement) (composer.Value, error) {
	start := time.Now()
	value, err := f.inner.Fetch(ctx, req)
	duration := time.Since(start)

	fields := logger.Fields(
		logger.FieldRequirement, req.Path,
		logger.FieldSource, req.Source,
		logger.FieldShot, req.Shot,
		logger.FieldDuration, duration.Milliseconds(),
	)

	if err != nil {
		fields[logger.FieldError] = err.Error()
		f.log.Error("fetch failed", fields)
	} else {
		f.log.Debug("fetch completed", fields)
	}

	return value, err
}
