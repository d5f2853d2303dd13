package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"loyaltycli/internal/config"
	"loyaltycli/internal/infrastructure"
)

// Application holds what every batch program needs: configuration, resolved
// paths, the logger and telemetry.
type Application struct {
	Name      string
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.OTelProviders
	// MetricsFile receives the run's metrics on Close. Empty disables it.
	MetricsFile string
	started     time.Time
}

// New loads the configuration at configPath (or the default locations),
// prepares the directories and starts logging and telemetry for the
// program called name.
func New(ctx context.Context, name, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(ctx, name, cfg)
}

// NewWithConfig is New for an already loaded configuration.
func NewWithConfig(ctx context.Context, name string, cfg *config.Config) (*Application, error) {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(cfg.Logging.FilePath))
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(slog.String("program", name))

	telemetry, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metricsFile := cfg.Telemetry.MetricsFile
	if metricsFile == "" && cfg.Telemetry.MetricExporter == "prometheus" {
		metricsFile = config.MetricsFileName
	}
	if metricsFile != "" && !filepath.IsAbs(metricsFile) {
		metricsFile = paths.GetLogPath(metricsFile)
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))
	paths.LogPathResolution(logger)

	return &Application{
		Name:        name,
		Config:      cfg,
		Paths:       paths,
		Logger:      logger,
		Telemetry:   telemetry,
		MetricsFile: metricsFile,
		started:     time.Now(),
	}, nil
}

// Close writes the metrics file and shuts telemetry and the log file down.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if err := a.Telemetry.WriteMetricsFile(a.MetricsFile); err != nil {
		errs = append(errs, fmt.Errorf("metrics file: %w", err))
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Logger.InfoContext(ctx, "Application finished",
		slog.Duration("duration", time.Since(a.started)))
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
