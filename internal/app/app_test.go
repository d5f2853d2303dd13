package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		DataDir:    filepath.Join(base, "data"),
		InputDir:   filepath.Join(base, "data", "input"),
		ReportsDir: filepath.Join(base, "data", "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = "run.log"
	return cfg
}

func TestNewWithConfig(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	cfg := testConfig(t)
	a, err := NewWithConfig(context.Background(), "test", cfg)
	require.NoError(t, err)

	for _, dir := range []string{a.Paths.InputDir, a.Paths.ReportsDir, a.Paths.LogsDir} {
		assert.DirExists(t, dir)
	}
	assert.Equal(t, filepath.Join(cfg.Paths.LogsDir, "run.log"), cfg.Logging.FilePath, "relative log files live in the logs directory")
	assert.Equal(t, filepath.Join(cfg.Paths.LogsDir, config.MetricsFileName), a.MetricsFile)
	require.NotNil(t, a.Telemetry.Metrics)

	ctx, end := a.Telemetry.StartStep(context.Background(), "test.step")
	a.Telemetry.Metrics.RowsLoaded.Add(ctx, 3)
	end(nil)

	require.NoError(t, a.Close(context.Background()))

	data, err := os.ReadFile(a.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rows_loaded")

	logged, err := os.ReadFile(cfg.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"program":"test"`)
	assert.Contains(t, string(logged), "Application finished")
}

func TestNewWithConfig_MetricsDisabled(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "none"
	a, err := NewWithConfig(context.Background(), "test", cfg)
	require.NoError(t, err)
	assert.Empty(t, a.MetricsFile)
	assert.NoError(t, a.Close(context.Background()))
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loyalty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := New(context.Background(), "test", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
}
