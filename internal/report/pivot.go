package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

// MarginLabel labels the grand-total row and column of a pivot.
const MarginLabel = "Total"

// Agg is an aggregation function applied to the cells of one pivot group.
type Agg string

const (
	AggSum      Agg = "sum"
	AggMean     Agg = "mean"
	AggCount    Agg = "count"
	AggDistinct Agg = "nunique"
	AggMin      Agg = "min"
	AggMax      Agg = "max"
	AggFirst    Agg = "first"
)

// DefaultAgg is the aggregation used for a value column without an explicit
// one: numeric columns are summed, everything else counts distinct values.
func DefaultAgg(kind table.Kind) Agg {
	if kind.Family() == table.FamilyNumeric {
		return AggSum
	}
	return AggDistinct
}

// PivotSpec describes a pivot. Index is required. With Values the cells
// aggregate those columns; without Values, Columns must be set and the cells
// count rows (a cross-tab).
type PivotSpec struct {
	Index   []string
	Columns string
	Values  []string
	// Aggs overrides DefaultAgg per value column.
	Aggs      map[string]Agg
	NoMargins bool
}

type valueSpec struct {
	col *table.Column
	agg Agg
}

// Pivot groups t by the index columns, and by the column dimension when
// given, and aggregates each group. Rows with an absent index or dimension
// cell are dropped. Groups are ordered ascending. Unless NoMargins is set a
// "Total" row, and a "Total" column when a column dimension is present, hold
// the aggregate over all rows.
func (k *Toolkit) Pivot(t *table.Table, spec PivotSpec) (*table.Table, error) {
	if len(spec.Index) == 0 {
		return nil, apperrors.NewAppValidationError("pivot needs at least one index column")
	}
	index := make([]*table.Column, len(spec.Index))
	for i, name := range spec.Index {
		c, err := t.Lookup(name)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		index[i] = c
	}

	var dim *table.Column
	if spec.Columns != "" {
		c, err := t.Lookup(spec.Columns)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		dim = c
	}
	if len(spec.Values) == 0 {
		if dim == nil {
			return nil, apperrors.NewAppValidationError("pivot needs value columns or a column dimension")
		}
		if dim.Kind.Family() == table.FamilyNumeric {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf(
				"cannot cross-tabulate over numeric column %q", dim.Name))
		}
	}

	values := make([]valueSpec, len(spec.Values))
	for i, name := range spec.Values {
		c, err := t.Lookup(name)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		agg, ok := spec.Aggs[name]
		if !ok {
			agg = DefaultAgg(c.Kind)
		}
		if err := checkAgg(agg, c); err != nil {
			return nil, err
		}
		values[i] = valueSpec{col: c, agg: agg}
	}

	// Rows with every grouping cell present.
	var rows []int
	for r := 0; r < t.Len(); r++ {
		ok := dim == nil || dim.Values[r] != nil
		for _, c := range index {
			ok = ok && c.Values[r] != nil
		}
		if ok {
			rows = append(rows, r)
		}
	}

	groups, order := groupRows(index, rows)
	var dimValues []any
	if dim != nil {
		dimValues = sortedDistinct(dim, rows)
	}

	out := indexColumns(index, groups, order, !spec.NoMargins)
	var cells []*table.Column
	switch {
	case len(values) == 0:
		cells = crossTab(dim, dimValues, groups, order, rows, !spec.NoMargins)
	case dim == nil:
		for _, v := range values {
			cells = append(cells, aggregateColumn(v, v.col.Name, groups, order, rows, nil, nil, !spec.NoMargins))
		}
	default:
		for _, v := range values {
			for _, dv := range dimValues {
				name := dimLabel(v.col.Name, dv, len(values))
				cells = append(cells, aggregateColumn(v, name, groups, order, rows, dim, dv, !spec.NoMargins))
			}
			if !spec.NoMargins {
				name := dimLabel(v.col.Name, MarginLabel, len(values))
				cells = append(cells, aggregateColumn(v, name, groups, order, rows, nil, nil, true))
			}
		}
	}

	res, err := table.New(append(out, cells...)...)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	return res, nil
}

func checkAgg(agg Agg, c *table.Column) error {
	switch agg {
	case AggSum, AggMean:
		if c.Kind.Family() != table.FamilyNumeric {
			return apperrors.NewAppValidationError(fmt.Sprintf(
				"aggregation %s needs a numeric column, %q is %s", agg, c.Name, c.Kind))
		}
	case AggCount, AggDistinct, AggMin, AggMax, AggFirst:
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported aggregation %q", agg))
	}
	return nil
}

// groupRows buckets rows by their index tuple and returns the tuple keys in
// ascending order of the tuples.
func groupRows(index []*table.Column, rows []int) (map[string][]int, []string) {
	groups := map[string][]int{}
	var order []string
	for _, r := range rows {
		key := tupleKey(index, r)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := groups[order[i]][0], groups[order[j]][0]
		for _, c := range index {
			if cmp, ok := table.Compare(c.Values[a], c.Values[b]); ok && cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return groups, order
}

func tupleKey(index []*table.Column, r int) string {
	parts := make([]string, len(index))
	for i, c := range index {
		parts[i] = table.Key(c.Values[r])
	}
	return strings.Join(parts, "\x1f")
}

func sortedDistinct(c *table.Column, rows []int) []any {
	sub := c.Take(rows)
	values := sub.Distinct()
	sort.SliceStable(values, func(i, j int) bool { return table.Less(values[i], values[j]) })
	return values
}

// indexColumns lays out one row per group. With margins the index columns
// gain a trailing "Total" row, so non-text index columns become text.
func indexColumns(index []*table.Column, groups map[string][]int, order []string, margins bool) []*table.Column {
	out := make([]*table.Column, len(index))
	for i, c := range index {
		kind := c.Kind
		asText := margins && kind != table.KindText && kind != table.KindCategory
		if asText {
			kind = table.KindText
		}
		values := make([]any, 0, len(order)+1)
		for _, key := range order {
			v := c.Values[groups[key][0]]
			if asText {
				v = dimText(v)
			}
			values = append(values, v)
		}
		if margins {
			if i == 0 {
				values = append(values, MarginLabel)
			} else {
				values = append(values, "")
			}
		}
		out[i] = table.NewColumn(c.Name, kind, values)
	}
	return out
}

// aggregateColumn aggregates v per group, restricted to rows whose dim cell
// equals dv when dim is set. Groups with no such rows get an absent cell.
func aggregateColumn(v valueSpec, name string, groups map[string][]int, order []string, all []int, dim *table.Column, dv any, margins bool) *table.Column {
	cells := make([]any, 0, len(order)+1)
	pick := func(rows []int) []any {
		var picked []any
		for _, r := range rows {
			if dim != nil {
				if c, ok := table.Compare(dim.Values[r], dv); !ok || c != 0 {
					continue
				}
			}
			picked = append(picked, v.col.Values[r])
		}
		return picked
	}
	for _, key := range order {
		cells = append(cells, aggregateCells(pick(groups[key]), v.agg))
	}
	if margins {
		cells = append(cells, aggregateCells(pick(all), v.agg))
	}
	return table.NewColumn(name, aggKind(v.agg, v.col.Kind), cells)
}

// crossTab counts rows per (group, dimension value). Empty combinations
// count zero.
func crossTab(dim *table.Column, dimValues []any, groups map[string][]int, order []string, all []int, margins bool) []*table.Column {
	count := func(rows []int, dv any) float64 {
		n := 0
		for _, r := range rows {
			if c, ok := table.Compare(dim.Values[r], dv); ok && c == 0 {
				n++
			}
		}
		return float64(n)
	}

	var out []*table.Column
	for _, dv := range dimValues {
		cells := make([]any, 0, len(order)+1)
		for _, key := range order {
			cells = append(cells, count(groups[key], dv))
		}
		if margins {
			cells = append(cells, count(all, dv))
		}
		out = append(out, table.NewColumn(dimText(dv), table.KindFloat, cells))
	}
	if margins {
		cells := make([]any, 0, len(order)+1)
		for _, key := range order {
			cells = append(cells, float64(len(groups[key])))
		}
		cells = append(cells, float64(len(all)))
		out = append(out, table.NewColumn(MarginLabel, table.KindFloat, cells))
	}
	return out
}

// aggregateCells applies agg to the cells of one group. Absent cells are
// ignored; a group of absent cells sums to zero and has no mean.
func aggregateCells(cells []any, agg Agg) any {
	var present []any
	for _, v := range cells {
		if v != nil {
			present = append(present, v)
		}
	}
	if len(cells) == 0 {
		return nil
	}

	switch agg {
	case AggSum, AggMean:
		var total float64
		for _, v := range present {
			total += v.(float64)
		}
		if agg == AggSum {
			return total
		}
		if len(present) == 0 {
			return nil
		}
		return total / float64(len(present))
	case AggCount:
		return float64(len(present))
	case AggDistinct:
		seen := map[string]struct{}{}
		for _, v := range present {
			seen[table.Key(v)] = struct{}{}
		}
		return float64(len(seen))
	case AggMin, AggMax:
		var best any
		for _, v := range present {
			if best == nil {
				best = v
				continue
			}
			c, _ := table.Compare(v, best)
			if (agg == AggMin && c < 0) || (agg == AggMax && c > 0) {
				best = v
			}
		}
		return best
	case AggFirst:
		if len(present) == 0 {
			return nil
		}
		return present[0]
	}
	return nil
}

func aggKind(agg Agg, source table.Kind) table.Kind {
	switch agg {
	case AggMin, AggMax, AggFirst:
		return source
	default:
		return table.KindFloat
	}
}

// dimLabel names the pivot column for value column valueName at dimension
// value dv. A single value column is named by the dimension value alone.
func dimLabel(valueName string, dv any, nValues int) string {
	if nValues == 1 {
		return dimText(dv)
	}
	return valueName + "_" + dimText(dv)
}

// dimText renders a grouping value as a label, dropping the time of day
// from midnight timestamps.
func dimText(v any) string {
	if ts, ok := v.(time.Time); ok && ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 {
		return ts.Format(table.DateLayout)
	}
	return table.Format(v)
}
