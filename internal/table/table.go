// Package table holds the in-memory column store shared by the loaders, the
// reporting toolkit and the writers.
//
// A Table is an ordered list of named columns of equal length. Each column
// carries one semantic Kind and its cells are stored as plain Go values:
//
//	KindText, KindCategory  string
//	KindFloat               float64
//	KindDateTime            time.Time
//	KindBool                bool
//
// An absent cell is nil regardless of the kind. Tables are treated as
// immutable by the toolkit: every operation returns a new Table.
package table

import (
	"fmt"
)

// Column is a named, typed slice of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn builds a column from cells.
func NewColumn(name string, kind Kind, values []any) *Column {
	return &Column{Name: name, Kind: kind, Values: values}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Values)
}

// NullCount returns how many cells are absent.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column header and a shallow copy of its cells.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Take returns a new column holding the cells at rows, in order.
func (c *Column) Take(rows []int) *Column {
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = c.Values[r]
	}
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// ColumnType pairs a column name with its runtime kind.
type ColumnType struct {
	Name string
	Kind Kind
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles a table, checking that names are unique and lengths agree.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if i == 0 {
			t.rows = c.Len()
		}
		if err := t.add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New for literals in tests and fixed layouts.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with the given column layout and no rows.
func Empty(types []ColumnType) *Table {
	t := &Table{index: make(map[string]int, len(types))}
	for _, ct := range types {
		_ = t.add(&Column{Name: ct.Name, Kind: ct.Kind, Values: []any{}})
	}
	return t
}

func (t *Table) add(c *Column) error {
	if _, dup := t.index[c.Name]; dup {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.columns) > 0 && c.Len() != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.rows)
	}
	if len(t.columns) == 0 {
		t.rows = c.Len()
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Types returns every column's runtime kind, in column order.
func (t *Table) Types() []ColumnType {
	types := make([]ColumnType, len(t.columns))
	for i, c := range t.columns {
		types[i] = ColumnType{Name: c.Name, Kind: c.Kind}
	}
	return types
}

// Columns returns the columns in order. Callers must not mutate them.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Lookup is Column returning an error naming the missing column.
func (t *Table) Lookup(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return c, nil
}

// Value returns the cell at row of the named column, or nil when the column
// does not exist.
func (t *Table) Value(name string, row int) any {
	c, ok := t.Column(name)
	if !ok {
		return nil
	}
	return c.Values[row]
}

// Row returns the cells of one row keyed by column name.
func (t *Table) Row(row int) map[string]any {
	out := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		out[c.Name] = c.Values[row]
	}
	return out
}

// Set replaces an existing column of the same name or appends c. The
// receiver is modified; loaders use it while building a fresh table.
func (t *Table) Set(c *Column) error {
	if len(t.columns) > 0 && c.Len() != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.rows)
	}
	if i, ok := t.index[c.Name]; ok {
		t.columns[i] = c
		return nil
	}
	return t.add(c)
}

// Rename returns a copy of the table with columns renamed per mapping.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		name := c.Name
		if to, ok := mapping[name]; ok {
			name = to
		}
		cols[i] = &Column{Name: name, Kind: c.Kind, Values: c.Values}
	}
	return New(cols...)
}

// Take returns a new table holding the given rows, in order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Take(rows)
	}
	out := &Table{index: make(map[string]int, len(cols)), rows: len(rows)}
	for _, c := range cols {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out
}

// Mask keeps the rows whose flag is true.
func (t *Table) Mask(keep []bool) *Table {
	rows := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Clone returns a copy whose column slices can be replaced independently.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	out := &Table{index: make(map[string]int, len(cols)), rows: t.rows}
	for _, c := range cols {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out
}

// Distinct returns the distinct non-null cells of a column in first-appearance order.
func (c *Column) Distinct() []any {
	seen := make(map[string]struct{}, len(c.Values))
	out := make([]any, 0)
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		k := Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
