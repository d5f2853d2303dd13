// Package pipeline loads the roster, goals and shipping exports, applies the
// default profile filter and writes the normalized tables.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"loyaltycli/internal/charset"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/loader"
	"loyaltycli/internal/report"
	"loyaltycli/internal/table"
	"loyaltycli/pkg/contracts/domain"
)

// Step names, also used as span names.
const (
	StepLoadRoster   = "pipeline.load_roster"
	StepLoadGoals    = "pipeline.load_goals"
	StepLoadShipping = "pipeline.load_shipping"
	StepFilter       = "pipeline.filter"
	StepCrossFilter  = "pipeline.cross_filter"
	StepPersist      = "pipeline.persist"
)

// Options configures one pipeline run.
type Options struct {
	RosterPath   string `validate:"required"`
	GoalsPath    string `validate:"required"`
	ShippingPath string `validate:"required"`

	Loader loader.Settings

	// Filter keeps the roster and goals rows whose profile is one of Profiles.
	Filter   bool
	Profiles []string `validate:"required_if=Filter true"`
	// CrossFilter keeps the shipping rows of users in the (filtered) roster.
	CrossFilter bool

	Persist        bool
	OutputEncoding charset.Encoding `validate:"omitempty,oneof=utf-8 latin-1 windows-1252"`
	OutputBOM      bool
	// Output file names, resolved by the writer.
	RosterOutput   string
	GoalsOutput    string
	ShippingOutput string
}

var validate = validator.New()

// OptionsFromConfig resolves the pipeline options of cfg against paths.
func OptionsFromConfig(cfg *config.Config, paths *config.Paths) (Options, error) {
	settings, err := loader.SettingsFromConfig(cfg.Loader)
	if err != nil {
		return Options{}, err
	}
	enc, err := charset.Parse(cfg.Pipeline.OutputEncoding)
	if err != nil {
		return Options{}, apperrors.NewConfigError("pipeline.output_encoding", err)
	}
	return Options{
		RosterPath:     paths.GetInputPath(cfg.Pipeline.RosterFile),
		GoalsPath:      paths.GetInputPath(cfg.Pipeline.GoalsFile),
		ShippingPath:   paths.GetInputPath(cfg.Pipeline.ShippingFile),
		Loader:         settings,
		Filter:         cfg.Pipeline.Filter,
		Profiles:       cfg.Pipeline.Profiles,
		CrossFilter:    cfg.Pipeline.CrossFilter,
		Persist:        cfg.Pipeline.Persist,
		OutputEncoding: enc,
		OutputBOM:      cfg.Pipeline.OutputBOM,
	}, nil
}

// Result holds the tables of a run and what happened to them.
type Result struct {
	Roster   *table.Table
	Goals    *table.Table
	Shipping *table.Table
	Steps    []*StepState
	Skipped  []report.Skipped
	Written  []string
}

// Runner executes the pipeline steps in order. The first failing step ends
// the run.
type Runner struct {
	opts      Options
	toolkit   *report.Toolkit
	writer    *exporter.CSVWriter
	telemetry *infrastructure.OTelProviders
	logger    *slog.Logger
}

// NewRunner validates opts and wires the collaborators. A nil telemetry
// records nothing.
func NewRunner(opts Options, writer *exporter.CSVWriter, telemetry *infrastructure.OTelProviders, logger *slog.Logger) (*Runner, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, apperrors.NewConfigError("invalid pipeline options", err)
	}
	if opts.OutputEncoding == "" {
		opts.OutputEncoding = charset.UTF8
	}
	if opts.RosterOutput == "" {
		opts.RosterOutput = config.RosterOutputFile
	}
	if opts.GoalsOutput == "" {
		opts.GoalsOutput = config.GoalsOutputFile
	}
	if opts.ShippingOutput == "" {
		opts.ShippingOutput = config.ShippingOutputFile
	}
	if telemetry == nil {
		telemetry = infrastructure.NoopProviders()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")
	if writer == nil {
		writer = exporter.NewCSVWriter(nil, logger)
	}
	return &Runner{
		opts:      opts,
		toolkit:   report.New(logger, report.WithWriter(writer), report.WithMetrics(telemetry.Metrics)),
		writer:    writer,
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// Run loads the three exports and applies the configured filter, cross
// filter and persistence steps.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	res := &Result{}

	r.logger.InfoContext(ctx, "pipeline started",
		slog.Bool("filter", r.opts.Filter),
		slog.Bool("cross_filter", r.opts.CrossFilter),
		slog.Bool("persist", r.opts.Persist))

	if err := r.runStep(ctx, res, StepLoadRoster, func(ctx context.Context) (int, error) {
		l, err := loader.NewRoster(r.opts.Loader.Roster, r.logger)
		if err != nil {
			return 0, err
		}
		res.Roster, err = l.Load(ctx, r.opts.RosterPath)
		if err != nil {
			return 0, err
		}
		r.recordRows(ctx, r.telemetry.Metrics.RowsLoaded, "roster", res.Roster.Len())
		return res.Roster.Len(), nil
	}); err != nil {
		return res, err
	}

	if err := r.runStep(ctx, res, StepLoadGoals, func(ctx context.Context) (int, error) {
		l := loader.NewGoals(loader.GoalsOptions{
			Encodings: r.opts.Loader.GoalsEncodings,
			Roster:    res.Roster,
		}, r.logger)
		var err error
		res.Goals, err = l.Load(ctx, r.opts.GoalsPath)
		if err != nil {
			return 0, err
		}
		r.recordRows(ctx, r.telemetry.Metrics.RowsLoaded, "goals", res.Goals.Len())
		return res.Goals.Len(), nil
	}); err != nil {
		return res, err
	}

	if err := r.runStep(ctx, res, StepLoadShipping, func(ctx context.Context) (int, error) {
		l := loader.NewShipping(r.opts.Loader.ShippingEncodings, r.logger)
		var err error
		res.Shipping, err = l.Load(ctx, r.opts.ShippingPath)
		if err != nil {
			return 0, err
		}
		r.recordRows(ctx, r.telemetry.Metrics.RowsLoaded, "shipping", res.Shipping.Len())
		return res.Shipping.Len(), nil
	}); err != nil {
		return res, err
	}

	if r.opts.Filter {
		if err := r.runStep(ctx, res, StepFilter, func(ctx context.Context) (int, error) {
			preds := ProfilePredicates(r.opts.Profiles)
			var skipped []report.Skipped
			res.Roster, skipped = r.toolkit.FilterAny(ctx, res.Roster, preds...)
			res.Skipped = append(res.Skipped, skipped...)
			res.Goals, skipped = r.toolkit.FilterAny(ctx, res.Goals, preds...)
			res.Skipped = append(res.Skipped, skipped...)
			r.recordRows(ctx, r.telemetry.Metrics.RowsKept, "roster", res.Roster.Len())
			r.recordRows(ctx, r.telemetry.Metrics.RowsKept, "goals", res.Goals.Len())
			return res.Roster.Len() + res.Goals.Len(), nil
		}); err != nil {
			return res, err
		}
	}

	if r.opts.CrossFilter {
		if err := r.runStep(ctx, res, StepCrossFilter, func(ctx context.Context) (int, error) {
			var err error
			res.Shipping, err = r.toolkit.CrossFilter(ctx, res.Shipping, domain.ColShippingUserKey, res.Roster, domain.ColUserKey)
			if err != nil {
				return 0, err
			}
			r.recordRows(ctx, r.telemetry.Metrics.RowsKept, "shipping", res.Shipping.Len())
			return res.Shipping.Len(), nil
		}); err != nil {
			return res, err
		}
	}

	if r.opts.Persist {
		if err := r.runStep(ctx, res, StepPersist, func(ctx context.Context) (int, error) {
			outputs := []struct {
				source string
				name   string
				t      *table.Table
			}{
				{"roster", r.opts.RosterOutput, res.Roster},
				{"goals", r.opts.GoalsOutput, res.Goals},
				{"shipping", r.opts.ShippingOutput, res.Shipping},
			}
			rows := 0
			for _, out := range outputs {
				path, err := r.toolkit.Export(ctx, out.t, out.name, r.opts.OutputEncoding, r.opts.OutputBOM)
				if err != nil {
					return rows, err
				}
				res.Written = append(res.Written, path)
				r.recordRows(ctx, r.telemetry.Metrics.RowsWritten, out.source, out.t.Len())
				rows += out.t.Len()
			}
			return rows, nil
		}); err != nil {
			return res, err
		}
	}

	r.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("roster_rows", res.Roster.Len()),
		slog.Int("goals_rows", res.Goals.Len()),
		slog.Int("shipping_rows", res.Shipping.Len()),
		slog.Int("skipped_predicates", len(res.Skipped)),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// ProfilePredicates builds the default business filter: one equality
// predicate on PERFIL per profile, meant to be OR-ed.
func ProfilePredicates(profiles []string) []report.Predicate {
	preds := make([]report.Predicate, len(profiles))
	for i, p := range profiles {
		preds[i] = report.Comparison{Column: domain.ColProfile, Op: report.OpEq, Value: p}
	}
	return preds
}

func (r *Runner) runStep(ctx context.Context, res *Result, name string, fn func(context.Context) (int, error)) error {
	state := NewStepState(name)
	res.Steps = append(res.Steps, state)
	state.Start()

	ctx, end := r.telemetry.StartStep(ctx, name)
	rows, err := fn(ctx)
	end(err)

	if err != nil {
		state.Fail(err)
		infrastructure.WithError(r.logger, err).ErrorContext(ctx, "step failed",
			slog.String("step", name))
		return fmt.Errorf("%s: %w", name, err)
	}
	state.Complete(rows)
	r.logger.InfoContext(ctx, "step completed",
		slog.String("step", name),
		slog.Int("rows", rows),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (r *Runner) recordRows(ctx context.Context, counter metric.Int64Counter, source string, n int) {
	counter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}
