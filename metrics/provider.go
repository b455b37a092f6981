package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Provider exposes shipper metrics through a Prometheus scrape handler backed
// by an OpenTelemetry meter.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	httpHandler   http.Handler
	recorder      Recorder
}

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter(
		cfg.ServiceName,
		metric.WithInstrumentationVersion(cfg.ServiceVersion),
	)

	rec, err := newOtelRecorder(meter)
	if err != nil {
		shutdownErr := meterProvider.Shutdown(ctx)
		if shutdownErr != nil {
			return nil, fmt.Errorf("failed to create instruments: %w (shutdown: %v)", err, shutdownErr)
		}
		return nil, err
	}

	return &Provider{
		meterProvider: meterProvider,
		httpHandler:   promhttp.Handler(),
		recorder:      rec,
	}, nil
}

// Recorder returns the recorder to hand to the shipper.
func (p *Provider) Recorder() Recorder {
	return p.recorder
}

// Handler returns the Prometheus scrape handler.
func (p *Provider) Handler() http.Handler {
	return p.httpHandler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}

type otelRecorder struct {
	entriesRecorded metric.Int64Counter
	batchesShipped  metric.Int64Counter
	batchesFailed   metric.Int64Counter
	entriesShipped  metric.Int64Counter
	entriesDropped  metric.Int64Counter
	flushDuration   metric.Float64Histogram
}

func newOtelRecorder(meter metric.Meter) (*otelRecorder, error) {
	r := &otelRecorder{}

	var err error
	if r.entriesRecorded, err = meter.Int64Counter(
		"a11ylog_entries_recorded_total",
		metric.WithDescription("Accessibility events accepted into the buffer"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if r.batchesShipped, err = meter.Int64Counter(
		"a11ylog_batches_shipped_total",
		metric.WithDescription("Batches successfully pushed to Loki"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if r.batchesFailed, err = meter.Int64Counter(
		"a11ylog_batches_failed_total",
		metric.WithDescription("Batches lost to transport failures"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if r.entriesShipped, err = meter.Int64Counter(
		"a11ylog_entries_shipped_total",
		metric.WithDescription("Entries successfully pushed to Loki"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if r.entriesDropped, err = meter.Int64Counter(
		"a11ylog_entries_dropped_total",
		metric.WithDescription("Entries lost to transport failures"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if r.flushDuration, err = meter.Float64Histogram(
		"a11ylog_flush_duration_seconds",
		metric.WithDescription("Wall time of one flush"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}

	return r, nil
}

func (r *otelRecorder) EntryRecorded(kind string) {
	r.entriesRecorded.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *otelRecorder) BatchShipped(n int) {
	ctx := context.Background()
	r.batchesShipped.Add(ctx, 1)
	r.entriesShipped.Add(ctx, int64(n))
}

func (r *otelRecorder) BatchFailed(n int) {
	ctx := context.Background()
	r.batchesFailed.Add(ctx, 1)
	r.entriesDropped.Add(ctx, int64(n))
}

func (r *otelRecorder) FlushDuration(d time.Duration) {
	r.flushDuration.Record(context.Background(), d.Seconds())
}
