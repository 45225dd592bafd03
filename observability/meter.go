package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for resolve/fetch/compose activity.
type Metrics struct {
	resolveTotal    metric.Int64Counter
	resolveDuration metric.Float64Histogram
	composeTotal    metric.Int64Counter
	composeDuration metric.Float64Histogram
	fetchTotal      metric.Int64Counter
	fetchDuration   metric.Float64Histogram
	pendingCount    metric.Int64Histogram
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resolveTotal, err := meter.Int64Counter("resolve.total",
		metric.WithDescription("Total number of resolve passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.total counter: %w", err)
	}

	resolveDuration, err := meter.Float64Histogram("resolve.duration",
		metric.WithDescription("Duration of resolve passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.duration histogram: %w", err)
	}

	composeTotal, err := meter.Int64Counter("compose.total",
		metric.WithDescription("Total number of compose calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compose.total counter: %w", err)
	}

	composeDuration, err := meter.Float64Histogram("compose.duration",
		metric.WithDescription("Duration of compose calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compose.duration histogram: %w", err)
	}

	fetchTotal, err := meter.Int64Counter("fetch.total",
		metric.WithDescription("Total number of requirement fetches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fetch.total counter: %w", err)
	}

	fetchDuration, err := meter.Float64Histogram("fetch.duration",
		metric.WithDescription("Duration of requirement fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fetch.duration histogram: %w", err)
	}

	pendingCount, err := meter.Int64Histogram("resolve.pending",
		metric.WithDescription("Pending requirements per resolve pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.pending histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		resolveTotal:    resolveTotal,
		resolveDuration: resolveDuration,
		composeTotal:    composeTotal,
		composeDuration: composeDuration,
		fetchTotal:      fetchTotal,
		fetchDuration:   fetchDuration,
		pendingCount:    pendingCount,
		errorTotal:      errorTotal,
	}, nil
}

// RecordResolve records one resolve pass.
func (m *Metrics) RecordResolve(ctx context.Context, pending int, duration time.Duration) {
	m.resolveTotal.Add(ctx, 1)
	m.resolveDuration.Record(ctx, duration.Seconds())
	m.pendingCount.Record(ctx, int64(pending))
}

// RecordCompose records one compose call.
func (m *Metrics) RecordCompose(ctx context.Context, status string, duration time.Duration) {
	m.composeTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.composeDuration.Record(ctx, duration.Seconds())
}

// RecordFetch records one requirement fetch.
func (m *Metrics) RecordFetch(ctx context.Context, source, status string, duration time.Duration) {
	m.fetchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
	m.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
