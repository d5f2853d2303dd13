package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"loyaltycli/internal/app"
	"loyaltycli/internal/charset"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/files"
	"loyaltycli/internal/performers"
	"loyaltycli/internal/validation"
	"loyaltycli/pkg/contracts"
	"loyaltycli/pkg/contracts/domain"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "top-performers:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("top-performers", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: top-performers [flags] [monthly-export.csv ...]")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "YAML config file (defaults to loyalty.yaml or configs/loyalty.yaml)")
	dir := fs.String("dir", "", "directory holding the monthly exports (defaults to data/input)")
	pattern := fs.String("pattern", "", "glob selecting the monthly exports in -dir (defaults to performers.pattern)")
	profile := fs.String("profile", "", "profile ranked (defaults to performers.profile)")
	top := fs.Int("top", 0, "users kept per level (defaults to performers.top_n)")
	out := fs.String("out", "", "output directory (defaults to data/reports)")
	version := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo("top-performers"))
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *pattern != "" {
		cfg.Performers.Pattern = *pattern
	}
	if *profile != "" {
		cfg.Performers.Profile = *profile
	}
	if *top != 0 {
		cfg.Performers.TopN = *top
	}
	if *out != "" {
		cfg.Paths.ReportsDir = *out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	a, err := app.NewWithConfig(ctx, "top-performers", cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil {
			fmt.Fprintln(os.Stderr, "top-performers:", cerr)
		}
	}()

	paths := fs.Args()
	if len(paths) == 0 {
		if paths, err = discover(a, *dir); err != nil {
			return err
		}
	}
	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateCSVFiles(paths...); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(a.Paths.ReportsDir); err != nil {
		return err
	}

	encodings, err := charset.ParseList(cfg.Performers.Encodings)
	if err != nil {
		return apperrors.NewConfigError("performers.encodings", err)
	}

	board, err := performers.Generate(ctx, performers.Options{
		Files:     paths,
		Profile:   cfg.Performers.Profile,
		TopN:      cfg.Performers.TopN,
		Encodings: encodings,
		Now:       clockFrom(start),
		Writer:    exporter.NewWorkbookWriter(a.Paths, a.Logger),
		Telemetry: a.Telemetry,
		Logger:    a.Logger,
	})
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Leaderboard failed",
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return err
	}

	for _, lv := range board.Levels {
		fmt.Fprintf(stdout, "%s: %d users\n", domain.LevelSheetName(lv.Level), lv.Table.Len())
	}
	fmt.Fprintf(stdout, "wrote %s\n", board.Path)
	return nil
}

// discover lists the monthly exports of dir matching the configured pattern.
func discover(a *app.Application, dir string) ([]string, error) {
	if dir == "" {
		dir = a.Paths.InputDir
	}
	d := files.NewDiscovery(a.Paths.BaseDir)
	dir = d.Resolve(dir)
	if err := validation.NewFileValidator(a.Logger).ValidateInputDirectory(dir, a.Config.Performers.Pattern); err != nil {
		return nil, err
	}
	found, err := d.FindFilesByPattern(dir, a.Config.Performers.Pattern)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "monthly exports directory "+dir, err)
	}
	if len(found) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("monthly export matching %s in %s", a.Config.Performers.Pattern, dir))
	}
	a.Logger.Info("Monthly exports discovered",
		slog.String("dir", dir),
		slog.Int("count", len(found)))
	return files.Paths(found), nil
}

// clockFrom returns a clock whose first reading is start.
func clockFrom(start time.Time) func() time.Time {
	first := true
	return func() time.Time {
		if first {
			first = false
			return start
		}
		return time.Now()
	}
}
