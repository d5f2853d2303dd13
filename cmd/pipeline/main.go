package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"loyaltycli/internal/app"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/pipeline"
	"loyaltycli/internal/validation"
	"loyaltycli/pkg/contracts"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "pipeline:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "YAML config file (defaults to loyalty.yaml or configs/loyalty.yaml)")
	roster := fs.String("roster", "", "roster export (defaults to pipeline.roster_file in the input directory)")
	goals := fs.String("goals", "", "goals/results export (defaults to pipeline.goals_file in the input directory)")
	shipping := fs.String("shipping", "", "shipping export (defaults to pipeline.shipping_file in the input directory)")
	filter := fs.Bool("filter", true, "keep only the roster and goals rows of -profiles")
	profiles := fs.String("profiles", "", "comma separated profiles kept by -filter")
	crossFilter := fs.Bool("cross-filter", true, "keep only the shipping rows of users in the roster")
	persist := fs.Bool("persist", true, "write the normalized tables")
	out := fs.String("out", "", "output directory (defaults to data/reports)")
	encoding := fs.String("encoding", "", "output encoding: utf-8, latin-1 or windows-1252")
	bom := fs.Bool("bom", false, "prefix utf-8 output with a byte order mark")
	version := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo("pipeline"))
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "filter":
			cfg.Pipeline.Filter = *filter
		case "cross-filter":
			cfg.Pipeline.CrossFilter = *crossFilter
		case "persist":
			cfg.Pipeline.Persist = *persist
		case "bom":
			cfg.Pipeline.OutputBOM = *bom
		case "profiles":
			cfg.Pipeline.Profiles = splitList(*profiles)
		case "encoding":
			cfg.Pipeline.OutputEncoding = *encoding
		case "out":
			cfg.Paths.ReportsDir = *out
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.NewWithConfig(ctx, "pipeline", cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil {
			fmt.Fprintln(os.Stderr, "pipeline:", cerr)
		}
	}()

	opts, err := pipeline.OptionsFromConfig(cfg, a.Paths)
	if err != nil {
		return err
	}
	if *roster != "" {
		opts.RosterPath = *roster
	}
	if *goals != "" {
		opts.GoalsPath = *goals
	}
	if *shipping != "" {
		opts.ShippingPath = *shipping
	}

	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateCSVFiles(opts.RosterPath, opts.GoalsPath, opts.ShippingPath); err != nil {
		return err
	}
	if opts.Persist {
		if err := validator.ValidateOutputDirectory(a.Paths.ReportsDir); err != nil {
			return err
		}
	}

	runner, err := pipeline.NewRunner(opts, exporter.NewCSVWriter(a.Paths, a.Logger), a.Telemetry, a.Logger)
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx)
	if res != nil {
		printSteps(stdout, res)
	}
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Pipeline failed",
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return err
	}

	for _, s := range res.Skipped {
		fmt.Fprintf(stdout, "skipped predicate %s: %s\n", s.Predicate, s.Reason)
	}
	for _, path := range res.Written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	return nil
}

func printSteps(w io.Writer, res *pipeline.Result) {
	for _, s := range res.Steps {
		fmt.Fprintf(w, "%-24s %-10s rows=%d %s\n", s.Name, s.Status, s.Rows, s.Duration())
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
