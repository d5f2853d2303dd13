package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

// Percentage breakdown column names.
const (
	ColCount      = "count"
	ColPercentage = "percentage"
)

// ChartKind names a chart style.
type ChartKind string

const (
	ChartNone ChartKind = ""
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
)

// Charter renders a breakdown as a chart.
type Charter interface {
	Supports(kind ChartKind) bool
	Render(ctx context.Context, kind ChartKind, title string, data *table.Table) error
}

// PercentOptions configures Percentages.
type PercentOptions struct {
	// Decimals is the number of decimal places kept in the percentage.
	Decimals int
	Chart    ChartKind
}

// Percentages returns, for each distinct non-null value of col, its row
// count and its share of the non-null rows, ordered by count descending.
// A requested chart the charter cannot draw is reported and skipped. A
// column named like one of the output columns is a validation error.
func (k *Toolkit) Percentages(ctx context.Context, t *table.Table, col string, opts PercentOptions) (*table.Table, error) {
	c, err := t.Lookup(col)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	counts := map[string]int{}
	var values []any
	total := 0
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		key := table.Key(v)
		if counts[key] == 0 {
			values = append(values, v)
		}
		counts[key]++
		total++
	}
	sort.SliceStable(values, func(i, j int) bool {
		ci, cj := counts[table.Key(values[i])], counts[table.Key(values[j])]
		if ci != cj {
			return ci > cj
		}
		return table.Less(values[i], values[j])
	})

	scale := math.Pow(10, float64(opts.Decimals))
	countCol := make([]any, len(values))
	pctCol := make([]any, len(values))
	for i, v := range values {
		n := counts[table.Key(v)]
		countCol[i] = float64(n)
		pctCol[i] = math.Round(float64(n)/float64(total)*100*scale) / scale
	}
	out, err := table.New(
		table.NewColumn(col, c.Kind, values),
		table.NewColumn(ColCount, table.KindFloat, countCol),
		table.NewColumn(ColPercentage, table.KindFloat, pctCol),
	)
	if err != nil {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("cannot break down column %q: %v", col, err))
	}

	if opts.Chart != ChartNone {
		k.chart(ctx, opts.Chart, col, out)
	}
	return out, nil
}

func (k *Toolkit) chart(ctx context.Context, kind ChartKind, title string, data *table.Table) {
	if k.charter == nil || !k.charter.Supports(kind) {
		k.logger.WarnContext(ctx, "unsupported chart type, chart skipped",
			slog.String("chart", string(kind)))
		return
	}
	if err := k.charter.Render(ctx, kind, title, data); err != nil {
		k.logger.WarnContext(ctx, "chart rendering failed",
			slog.String("chart", string(kind)),
			slog.String("error", err.Error()))
	}
}
