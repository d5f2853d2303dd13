package report

import (
	"context"
	"log/slog"

	"loyaltycli/internal/charset"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/table"
)

// Toolkit runs the reporting operations over loaded tables. Operations never
// modify their inputs.
type Toolkit struct {
	logger  *slog.Logger
	writer  *exporter.CSVWriter
	charter Charter
	metrics *infrastructure.BatchMetrics
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithWriter sets the CSV writer used by Export.
func WithWriter(w *exporter.CSVWriter) Option {
	return func(k *Toolkit) { k.writer = w }
}

// WithCharter sets the chart renderer used by Percentages.
func WithCharter(c Charter) Option {
	return func(k *Toolkit) { k.charter = c }
}

// WithMetrics records skipped predicates on m.
func WithMetrics(m *infrastructure.BatchMetrics) Option {
	return func(k *Toolkit) { k.metrics = m }
}

// New creates a Toolkit. Without WithWriter, Export writes to the paths it
// is given.
func New(logger *slog.Logger, opts ...Option) *Toolkit {
	k := &Toolkit{logger: infrastructure.WithComponent(logger, "report")}
	for _, opt := range opts {
		opt(k)
	}
	if k.writer == nil {
		k.writer = exporter.NewCSVWriter(nil, logger)
	}
	return k
}

// DistinctCount returns the number of distinct non-null values of col.
func (k *Toolkit) DistinctCount(t *table.Table, col string) (int, error) {
	c, err := t.Lookup(col)
	if err != nil {
		return 0, apperrors.NewAppValidationError(err.Error())
	}
	return len(c.Distinct()), nil
}

// Select returns a table holding the named columns, in the given order.
func (k *Toolkit) Select(t *table.Table, cols ...string) (*table.Table, error) {
	out := make([]*table.Column, 0, len(cols))
	for _, name := range cols {
		c, err := t.Lookup(name)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		out = append(out, c.Clone())
	}
	res, err := table.New(out...)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	return res, nil
}

// Sum returns a one-row table with the total of each numeric column.
// Absent cells count as zero.
func (k *Toolkit) Sum(t *table.Table, cols ...string) (*table.Table, error) {
	out := make([]*table.Column, 0, len(cols))
	for _, name := range cols {
		c, err := t.Lookup(name)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		if c.Kind.Family() != table.FamilyNumeric {
			return nil, apperrors.NewAppValidationError("cannot sum " + c.Kind.String() + " column " + name)
		}
		var total float64
		for _, v := range c.Values {
			if f, ok := v.(float64); ok {
				total += f
			}
		}
		out = append(out, table.NewColumn(name, table.KindFloat, []any{total}))
	}
	res, err := table.New(out...)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	return res, nil
}

// Concat stacks tables vertically. The result carries the union of their
// columns in first-appearance order; rows lacking a column get absent
// cells. A column whose kind differs between inputs becomes text.
func (k *Toolkit) Concat(tables ...*table.Table) *table.Table {
	var (
		order []string
		kinds = map[string]table.Kind{}
		mixed = map[string]bool{}
		total int
	)
	for _, t := range tables {
		total += t.Len()
		for _, ct := range t.Types() {
			prev, seen := kinds[ct.Name]
			switch {
			case !seen:
				order = append(order, ct.Name)
				kinds[ct.Name] = ct.Kind
			case prev != ct.Kind:
				mixed[ct.Name] = true
			}
		}
	}

	cols := make([]*table.Column, len(order))
	for i, name := range order {
		values := make([]any, 0, total)
		for _, t := range tables {
			c, ok := t.Column(name)
			if !ok {
				values = append(values, make([]any, t.Len())...)
				continue
			}
			for _, v := range c.Values {
				if mixed[name] && v != nil {
					v = table.Format(v)
				}
				values = append(values, v)
			}
		}
		kind := kinds[name]
		if mixed[name] {
			kind = table.KindText
		}
		cols[i] = table.NewColumn(name, kind, values)
	}
	return table.MustNew(cols...)
}

// Export writes t as CSV in enc and returns the written path.
func (k *Toolkit) Export(ctx context.Context, t *table.Table, path string, enc charset.Encoding, bom bool) (string, error) {
	written, err := k.writer.WriteTable(path, t, enc, bom)
	if err != nil {
		return "", err
	}
	k.logger.InfoContext(ctx, "table exported",
		slog.String("path", written),
		slog.Int("rows", t.Len()),
		slog.String("encoding", string(enc)))
	return written, nil
}
