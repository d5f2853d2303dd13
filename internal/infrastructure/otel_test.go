package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
)

func TestInitializeOTel_Prometheus(t *testing.T) {
	cfg := config.Default().Telemetry
	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.Registry)
	require.NotNil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider, "tracing is off by default")

	ctx := context.Background()
	providers.Metrics.RowsLoaded.Add(ctx, 42, metric.WithAttributes(attribute.String("source", "roster")))
	_, end := providers.StartStep(ctx, "load_roster")
	end(nil)
	_, end = providers.StartStep(ctx, "load_goals")
	end(errors.New("boom"))
	_, end = providers.StartStep(ctx, "load_shipping")
	end(fmt.Errorf("load_shipping: %w", apperrors.NewNotFoundError("envios.csv")))

	path := filepath.Join(t.TempDir(), "metrics", config.MetricsFileName)
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "loyalty_rows_loaded_total")
	assert.Contains(t, string(content), `source="roster"`)
	assert.Contains(t, string(content), "loyalty_step_errors_total")
	assert.Contains(t, string(content), `error_type="NOT_FOUND"`)
	assert.Contains(t, string(content), `error_type="*errors.errorString"`)
	assert.Contains(t, string(content), "loyalty_step_duration_seconds")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.MetricExporter = "none"
	cfg.TraceExporter = "none"

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, providers.Registry)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, providers.WriteMetricsFile(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "zipkin"
	_, err := InitializeOTel(cfg, nil)
	assert.ErrorContains(t, err, "unsupported trace exporter")
}

func TestNoopProviders(t *testing.T) {
	p := NoopProviders()
	ctx, end := p.StartStep(context.Background(), "noop")
	assert.Empty(t, TraceIDFromContext(ctx))
	end(nil)
}
