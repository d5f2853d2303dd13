package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"loyaltycli/internal/app"
	"loyaltycli/internal/charset"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/files"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/loader"
	"loyaltycli/internal/report"
	"loyaltycli/internal/table"
	"loyaltycli/internal/validation"
	"loyaltycli/pkg/contracts"
)

// Operations accepted by -op.
const (
	opDistinct = "distinct"
	opPercent  = "percent"
	opPivot    = "pivot"
	opSum      = "sum"
	opSelect   = "select"
	opMerge    = "merge"
)

// listFlag collects a repeated string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, "; ") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	configPath string
	source     string
	file       string
	op         string
	column     string
	columns    string
	index      string
	pivotCol   string
	values     string
	agg        string
	noMargins  bool
	decimals   int
	where      listFlag
	matchAny   bool
	withSource string
	withFile   string
	on         string
	rightOn    string
	how        string
	export     string
	encoding   string
	bom        bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var o options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults to loyalty.yaml or configs/loyalty.yaml)")
	fs.StringVar(&o.source, "source", "", "export kind: roster, goals or shipping")
	fs.StringVar(&o.file, "file", "", "export to load (defaults to the newest CSV in the input directory)")
	fs.StringVar(&o.op, "op", "", "operation: distinct, percent, pivot, sum, select or merge")
	fs.StringVar(&o.column, "column", "", "column of distinct and percent")
	fs.StringVar(&o.columns, "columns", "", "comma separated columns of sum and select")
	fs.StringVar(&o.index, "index", "", "comma separated pivot index columns")
	fs.StringVar(&o.pivotCol, "pivot-column", "", "pivot column dimension")
	fs.StringVar(&o.values, "values", "", "comma separated pivot value columns")
	fs.StringVar(&o.agg, "agg", "", "pivot aggregation for every value column, or COL=AGG pairs")
	fs.BoolVar(&o.noMargins, "no-margins", false, "omit the pivot Total row and column")
	fs.IntVar(&o.decimals, "decimals", 2, "decimal places of percent")
	fs.Var(&o.where, "where", "predicate COL<op>VALUE or COL is-null / is-not-null; repeatable")
	fs.BoolVar(&o.matchAny, "any", false, "keep rows matching any -where predicate instead of all")
	fs.StringVar(&o.withSource, "with-source", "", "merge: kind of the right export")
	fs.StringVar(&o.withFile, "with-file", "", "merge: right export to load")
	fs.StringVar(&o.on, "on", "", "merge: comma separated left key columns")
	fs.StringVar(&o.rightOn, "right-on", "", "merge: right key columns (defaults to -on)")
	fs.StringVar(&o.how, "how", "inner", "merge: inner, left, right or outer")
	fs.StringVar(&o.export, "export", "", "write the result as CSV to this file")
	fs.StringVar(&o.encoding, "encoding", "utf-8", "encoding of -export")
	fs.BoolVar(&o.bom, "bom", false, "prefix a utf-8 -export with a byte order mark")
	version := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo("report"))
		return nil
	}
	if o.source == "" || o.op == "" {
		return apperrors.NewConfigError("-source and -op are required", nil)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	a, err := app.NewWithConfig(ctx, "report", cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil {
			fmt.Fprintln(os.Stderr, "report:", cerr)
		}
	}()

	err = execute(ctx, a, o, stdout)
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Report failed",
			slog.String("op", o.op),
			slog.String("error_type", string(apperrors.TypeOf(err))))
	}
	return err
}

func execute(ctx context.Context, a *app.Application, o options, stdout io.Writer) error {
	settings, err := loader.SettingsFromConfig(a.Config.Loader)
	if err != nil {
		return err
	}
	toolkit := report.New(a.Logger,
		report.WithWriter(exporter.NewCSVWriter(a.Paths, a.Logger)),
		report.WithMetrics(a.Telemetry.Metrics))

	if o.file == "" {
		if o.file, err = latestExport(a); err != nil {
			return err
		}
	}
	if o.export != "" {
		dir := filepath.Dir(a.Paths.GetReportPath(o.export))
		if err := validation.NewFileValidator(a.Logger).ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	t, err := load(ctx, a, settings, o.source, o.file)
	if err != nil {
		return err
	}
	if t, err = filter(ctx, toolkit, t, o, stdout); err != nil {
		return err
	}

	ctx, end := a.Telemetry.StartStep(ctx, "report."+o.op)
	result, err := apply(ctx, a, toolkit, settings, t, o, stdout)
	end(err)
	if err != nil || result == nil {
		return err
	}

	if err := printTable(stdout, result); err != nil {
		return err
	}
	if o.export == "" {
		return nil
	}
	enc, err := charset.Parse(o.encoding)
	if err != nil {
		return apperrors.NewConfigError("-encoding", err)
	}
	path, err := toolkit.Export(ctx, result, o.export, enc, o.bom)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

// latestExport picks the most recently modified CSV of the input directory.
func latestExport(a *app.Application) (string, error) {
	found, err := files.NewDiscovery(a.Paths.BaseDir).FindCSVFiles(a.Paths.InputDir)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.ErrTypeNotFound, "input directory "+a.Paths.InputDir, err)
	}
	latest, ok := files.GetLatestFile(found)
	if !ok {
		return "", apperrors.NewNotFoundError("CSV export in " + a.Paths.InputDir)
	}
	a.Logger.Info("Newest export selected",
		slog.String("file", latest.Path),
		slog.Time("modified", latest.ModTime))
	return latest.Path, nil
}

func load(ctx context.Context, a *app.Application, settings loader.Settings, source, path string) (*table.Table, error) {
	if err := validation.NewFileValidator(a.Logger).ValidateCSVFile(path); err != nil {
		return nil, err
	}
	l, err := settings.NewFor(source, a.Logger)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, path)
}

// filter applies the -where predicates, AND-ed or, with -any, OR-ed.
func filter(ctx context.Context, toolkit *report.Toolkit, t *table.Table, o options, stdout io.Writer) (*table.Table, error) {
	if len(o.where) == 0 {
		return t, nil
	}
	preds := make([]report.Predicate, 0, len(o.where))
	for _, expr := range o.where {
		p, err := report.ParsePredicate(t, expr)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "-where", err)
		}
		preds = append(preds, p)
	}

	var skipped []report.Skipped
	if o.matchAny {
		t, skipped = toolkit.FilterAny(ctx, t, preds...)
	} else {
		t, skipped = toolkit.FilterAll(ctx, t, preds...)
	}
	for _, s := range skipped {
		fmt.Fprintf(stdout, "skipped predicate %s: %s\n", s.Predicate, s.Reason)
	}
	return t, nil
}

// apply runs the operation. A nil table means the result was already printed.
func apply(ctx context.Context, a *app.Application, toolkit *report.Toolkit, settings loader.Settings, t *table.Table, o options, stdout io.Writer) (*table.Table, error) {
	switch o.op {
	case opDistinct:
		n, err := toolkit.DistinctCount(t, o.column)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(stdout, "%s: %d distinct values\n", o.column, n)
		return nil, nil
	case opPercent:
		return toolkit.Percentages(ctx, t, o.column, report.PercentOptions{Decimals: o.decimals})
	case opPivot:
		spec := report.PivotSpec{
			Index:     splitList(o.index),
			Columns:   o.pivotCol,
			Values:    splitList(o.values),
			NoMargins: o.noMargins,
		}
		aggs, err := parseAggs(o.agg, spec.Values)
		if err != nil {
			return nil, err
		}
		spec.Aggs = aggs
		return toolkit.Pivot(t, spec)
	case opSum:
		return toolkit.Sum(t, splitList(o.columns)...)
	case opSelect:
		return toolkit.Select(t, splitList(o.columns)...)
	case opMerge:
		if o.withSource == "" || o.withFile == "" || o.on == "" {
			return nil, apperrors.NewConfigError("merge needs -with-source, -with-file and -on", nil)
		}
		how, err := report.ParseJoinKind(o.how)
		if err != nil {
			return nil, apperrors.NewConfigError("-how", err)
		}
		right, err := load(ctx, a, settings, o.withSource, o.withFile)
		if err != nil {
			return nil, err
		}
		rightOn := o.rightOn
		if rightOn == "" {
			rightOn = o.on
		}
		return toolkit.Merge(t, right, report.MergeSpec{
			LeftOn:  splitList(o.on),
			RightOn: splitList(rightOn),
			How:     how,
		})
	default:
		return nil, apperrors.NewConfigError("unknown -op "+o.op, nil)
	}
}

// parseAggs reads either one aggregation for every value column or
// COL=AGG pairs.
func parseAggs(s string, values []string) (map[string]report.Agg, error) {
	if s == "" {
		return nil, nil
	}
	aggs := map[string]report.Agg{}
	if !strings.Contains(s, "=") {
		for _, v := range values {
			aggs[v] = report.Agg(s)
		}
		return aggs, nil
	}
	for _, pair := range splitList(s) {
		col, agg, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("-agg: %q is not COL=AGG", pair), nil)
		}
		aggs[strings.TrimSpace(col)] = report.Agg(strings.TrimSpace(agg))
	}
	return aggs, nil
}

func printTable(w io.Writer, t *table.Table) error {
	header, records := exporter.FormatTable(t)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
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
