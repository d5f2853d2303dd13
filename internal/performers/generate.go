// Package performers builds the top-performers leaderboard from several
// monthly goals/results exports: per-user sales across the months, quota
// attainment, and a ranked list per performance level.
package performers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"loyaltycli/internal/charset"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/loader"
	"loyaltycli/internal/report"
	"loyaltycli/internal/table"
	"loyaltycli/pkg/contracts/domain"
)

// DefaultEncodings are tried in order on each monthly export.
var DefaultEncodings = []charset.Encoding{charset.UTF8, charset.Latin1}

// Options configures Generate.
type Options struct {
	// Files are the monthly goals/results exports, one month each.
	Files   []string `validate:"min=1,dive,required"`
	Profile string   `validate:"required"`
	TopN    int      `validate:"min=0"`

	Encodings []charset.Encoding
	// OutputDir holds the workbook. When empty the writer resolves the
	// file name against its reports directory.
	OutputDir string
	// Now is the clock used to time the run. Defaults to time.Now.
	Now       func() time.Time
	Writer    *exporter.WorkbookWriter
	Telemetry *infrastructure.OTelProviders
	Logger    *slog.Logger
}

var validate = validator.New()

// Level is the ranked leaderboard of one performance level.
type Level struct {
	Level float64
	Table *table.Table
}

// Leaderboard is the outcome of Generate.
type Leaderboard struct {
	// Months in file order.
	Months []float64
	// Users holds every user of the profile with the aggregated columns,
	// before eligibility and ranking.
	Users  *table.Table
	Levels []Level
	Path   string
}

// Generate loads every monthly export, aggregates sales per user, ranks the
// eligible users of each level and writes one sheet per level.
func Generate(ctx context.Context, opts Options) (*Leaderboard, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, apperrors.NewConfigError("invalid top-performers options", err)
	}
	if opts.TopN == 0 {
		opts.TopN = domain.DefaultTopN
	}
	if len(opts.Encodings) == 0 {
		opts.Encodings = DefaultEncodings
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Telemetry == nil {
		opts.Telemetry = infrastructure.NoopProviders()
	}
	if opts.Writer == nil {
		opts.Writer = exporter.NewWorkbookWriter(nil, opts.Logger)
	}
	logger := infrastructure.WithComponent(opts.Logger, "performers")
	ctx = infrastructure.EnsureTraceID(ctx)
	start := opts.Now()

	ctx, end := opts.Telemetry.StartStep(ctx, "performers.generate")
	board, err := generate(ctx, opts, logger)
	end(err)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "leaderboard written",
		slog.String("path", board.Path),
		slog.Int("months", len(board.Months)),
		slog.Int("levels", len(board.Levels)),
		slog.Duration("duration", opts.Now().Sub(start)))
	return board, nil
}

func generate(ctx context.Context, opts Options, logger *slog.Logger) (*Leaderboard, error) {
	toolkit := report.New(logger, report.WithMetrics(opts.Telemetry.Metrics))
	goals := loader.NewGoals(loader.GoalsOptions{Encodings: opts.Encodings}, logger)

	var (
		months  []float64
		monthly []*table.Table
		seen    = map[float64]string{}
	)
	for _, path := range opts.Files {
		t, err := goals.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		month, err := singleMonth(t, path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[month]; dup {
			return nil, apperrors.NewPreconditionError(fmt.Sprintf(
				"month %s appears in both %s and %s", domain.MonthLabel(month), prev, path))
		}
		seen[month] = path

		t, skipped := toolkit.FilterAll(ctx, t, report.Comparison{Column: domain.ColProfile, Op: report.OpEq, Value: opts.Profile})
		if len(skipped) > 0 {
			return nil, apperrors.NewSchemaError(fmt.Sprintf("%s: %s", path, skipped[0].Reason), nil)
		}
		t, err = t.Rename(map[string]string{domain.ColAccumulatedSales: domain.MonthlySalesColumn(month)})
		if err != nil {
			return nil, apperrors.NewSchemaError(path, err)
		}
		keep := append(append([]string{}, domain.LeaderboardBaseColumns...), domain.MonthlySalesColumn(month))
		t, err = toolkit.Select(t, keep...)
		if err != nil {
			return nil, err
		}

		logger.InfoContext(ctx, "monthly export loaded",
			slog.String("path", path),
			slog.String("month", domain.MonthLabel(month)),
			slog.Int("rows", t.Len()))
		months = append(months, month)
		monthly = append(monthly, t)
	}

	users, err := aggregate(toolkit, toolkit.Concat(monthly...), months)
	if err != nil {
		return nil, err
	}

	levels, err := rank(users, opts.TopN)
	if err != nil {
		return nil, err
	}

	sheets := make([]exporter.Sheet, len(levels))
	for i, lv := range levels {
		sheets[i] = exporter.Sheet{Name: domain.LevelSheetName(lv.Level), Table: lv.Table}
	}
	if len(sheets) == 0 {
		return nil, apperrors.NewPreconditionError(fmt.Sprintf("no %s users with a level in the exports", opts.Profile))
	}
	name := domain.LeaderboardFileName(months)
	if opts.OutputDir != "" {
		name = filepath.Join(opts.OutputDir, name)
	}
	path, err := opts.Writer.WriteWorkbook(name, sheets)
	if err != nil {
		return nil, err
	}

	return &Leaderboard{Months: months, Users: users, Levels: levels, Path: path}, nil
}

// singleMonth returns the one month value of a monthly export.
func singleMonth(t *table.Table, path string) (float64, error) {
	c, err := t.Lookup(domain.ColMonth)
	if err != nil {
		return 0, apperrors.NewSchemaError(path, err)
	}
	distinct := c.Distinct()
	if len(distinct) != 1 {
		return 0, apperrors.NewPreconditionError(fmt.Sprintf(
			"%s holds %d distinct months, want exactly one", path, len(distinct)))
	}
	return distinct[0].(float64), nil
}

// aggregate collapses the stacked monthly rows into one row per user and
// adds the quota flags and totals.
func aggregate(toolkit *report.Toolkit, stacked *table.Table, months []float64) (*table.Table, error) {
	salesCols := make([]string, len(months))
	for i, m := range months {
		salesCols[i] = domain.MonthlySalesColumn(m)
		c, err := stacked.Lookup(salesCols[i])
		if err != nil {
			return nil, apperrors.NewInvariantError(err.Error())
		}
		filled := c.Clone()
		for j, v := range filled.Values {
			if v == nil {
				filled.Values[j] = 0.0
			}
		}
		if err := stacked.Set(filled); err != nil {
			return nil, apperrors.NewInvariantError(err.Error())
		}
	}

	aggs := map[string]report.Agg{
		domain.ColName:            report.AggFirst,
		domain.ColPaternalSurname: report.AggFirst,
		domain.ColMaternalSurname: report.AggFirst,
		domain.ColLevel:           report.AggMean,
		domain.ColQuota:           report.AggMean,
	}
	for _, col := range salesCols {
		aggs[col] = report.AggSum
	}
	users, err := toolkit.Pivot(stacked, report.PivotSpec{
		Index:     []string{domain.ColUserKey},
		Values:    append(append([]string{}, domain.LeaderboardBaseColumns[1:]...), salesCols...),
		Aggs:      aggs,
		NoMargins: true,
	})
	if err != nil {
		return nil, err
	}

	quota, _ := users.Column(domain.ColQuota)
	n := users.Len()
	total := make([]float64, n)
	met := make([]float64, n)
	for i, m := range months {
		sales, _ := users.Column(salesCols[i])
		flags := make([]any, n)
		for r := 0; r < n; r++ {
			s := sales.Values[r].(float64)
			q, ok := quota.Values[r].(float64)
			flags[r] = ok && s >= q
			total[r] += s
			if flags[r].(bool) {
				met[r]++
			}
		}
		if err := users.Set(table.NewColumn(domain.MonthlyQuotaMetColumn(m), table.KindBool, flags)); err != nil {
			return nil, apperrors.NewInvariantError(err.Error())
		}
	}

	totalCol := make([]any, n)
	metCol := make([]any, n)
	pctCol := make([]any, n)
	for r := 0; r < n; r++ {
		totalCol[r] = total[r]
		metCol[r] = met[r]
		if q, ok := quota.Values[r].(float64); ok && q != 0 {
			pctCol[r] = 100 * total[r] / (float64(len(months)) * q)
		}
	}
	for _, c := range []*table.Column{
		table.NewColumn(domain.ColTotalSales, table.KindFloat, totalCol),
		table.NewColumn(domain.ColMonthsMet, table.KindFloat, metCol),
		table.NewColumn(domain.ColAveragePercent, table.KindFloat, pctCol),
	} {
		if err := users.Set(c); err != nil {
			return nil, apperrors.NewInvariantError(err.Error())
		}
	}
	return users, nil
}

// rank partitions users by level, ascending, and keeps the topN eligible
// users of each: at least one month with the quota met and positive total
// sales. Users are ordered by months met, then average percentage, both
// descending, then by key.
func rank(users *table.Table, topN int) ([]Level, error) {
	level, err := users.Lookup(domain.ColLevel)
	if err != nil {
		return nil, apperrors.NewInvariantError(err.Error())
	}
	key, _ := users.Column(domain.ColUserKey)
	total, _ := users.Column(domain.ColTotalSales)
	met, _ := users.Column(domain.ColMonthsMet)
	pct, _ := users.Column(domain.ColAveragePercent)

	var levels []float64
	for _, v := range level.Distinct() {
		levels = append(levels, v.(float64))
	}
	sort.Float64s(levels)

	out := make([]Level, len(levels))
	for i, lv := range levels {
		var rows []int
		for r := 0; r < users.Len(); r++ {
			if l, ok := level.Values[r].(float64); !ok || l != lv {
				continue
			}
			if met.Values[r].(float64) >= 1 && total.Values[r].(float64) > 0 {
				rows = append(rows, r)
			}
		}
		sort.SliceStable(rows, func(a, b int) bool {
			ra, rb := rows[a], rows[b]
			if ma, mb := met.Values[ra].(float64), met.Values[rb].(float64); ma != mb {
				return ma > mb
			}
			pa, pb := pct.Values[ra], pct.Values[rb]
			if c, ok := table.Compare(pa, pb); ok && c != 0 {
				return c > 0
			}
			if (pa == nil) != (pb == nil) {
				return pb == nil
			}
			return table.Less(key.Values[ra], key.Values[rb])
		})
		if len(rows) > topN {
			rows = rows[:topN]
		}
		out[i] = Level{Level: lv, Table: users.Take(rows)}
	}
	return out, nil
}
