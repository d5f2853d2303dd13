package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
)

// MeterName is the instrumentation scope of every tracer and meter.
const MeterName = "loyaltycli"

// OTelProviders holds the OpenTelemetry providers of one batch run.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	// Registry is private to the run so that a metrics dump only holds
	// this program's series.
	Registry *prometheus.Registry
	Tracer   trace.Tracer
	Meter    metric.Meter
	Metrics  *BatchMetrics
	Logger   *slog.Logger
}

// InitializeOTel sets up tracing and metrics as configured. Disabled
// exporters leave no-op implementations in place so callers never check
// for nil.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	providers := &OTelProviders{
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
		otel.SetTracerProvider(tp)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	switch cfg.MetricExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.Registry = registry
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	metrics, err := NewBatchMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	providers.Metrics = metrics

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))
	return providers, nil
}

// NoopProviders returns providers that record nothing. Tests and library
// callers without telemetry use it.
func NoopProviders() *OTelProviders {
	meter := noop.NewMeterProvider().Meter(MeterName)
	metrics, _ := NewBatchMetrics(meter)
	return &OTelProviders{
		Tracer:  otel.Tracer(MeterName),
		Meter:   meter,
		Metrics: metrics,
		Logger:  GetLogger(),
	}
}

// BatchMetrics holds the instruments recorded by the batch programs.
type BatchMetrics struct {
	RowsLoaded        metric.Int64Counter
	RowsKept          metric.Int64Counter
	RowsWritten       metric.Int64Counter
	SkippedPredicates metric.Int64Counter
	StepDuration      metric.Float64Histogram
	StepErrors        metric.Int64Counter
}

// NewBatchMetrics creates the batch instruments on meter.
func NewBatchMetrics(meter metric.Meter) (*BatchMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"loyalty_rows_loaded",
		metric.WithDescription("Rows read from an export"),
	)
	if err != nil {
		return nil, err
	}

	rowsKept, err := meter.Int64Counter(
		"loyalty_rows_kept",
		metric.WithDescription("Rows kept by a filter step"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"loyalty_rows_written",
		metric.WithDescription("Rows written to an output file"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"loyalty_skipped_predicates",
		metric.WithDescription("Filter predicates skipped as invalid"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"loyalty_step_duration_seconds",
		metric.WithDescription("Batch step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"loyalty_step_errors",
		metric.WithDescription("Batch steps that failed"),
	)
	if err != nil {
		return nil, err
	}

	return &BatchMetrics{
		RowsLoaded:        rowsLoaded,
		RowsKept:          rowsKept,
		RowsWritten:       rowsWritten,
		SkippedPredicates: skipped,
		StepDuration:      stepDuration,
		StepErrors:        stepErrors,
	}, nil
}

// StartStep opens a span named step and returns the context to run the step
// in plus a function that ends the span and records the step's duration and
// outcome.
func (p *OTelProviders) StartStep(ctx context.Context, step string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := p.Tracer.Start(ctx, step)
	return ctx, func(err error) {
		defer span.End()
		status := "success"
		if err != nil {
			status = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.Metrics.StepErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("step", step),
				attribute.String("error.type", errorType(err)),
			))
		}
		p.Metrics.StepDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("step", step),
			attribute.String("status", status),
		))
	}
}

// errorType names err by its application error type, or by its Go type when
// it carries none.
func errorType(err error) string {
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	return fmt.Sprintf("%T", err)
}

// WriteMetricsFile dumps the run's metrics in the Prometheus text format,
// for pickup by a node exporter textfile collector. It is a no-op when the
// prometheus exporter is disabled.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p.Registry == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPermissions); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return prometheus.WriteToTextfile(path, p.Registry)
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// TraceIDFromContext extracts the span's trace ID for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
