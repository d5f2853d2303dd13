package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

func salesFixture() *table.Table {
	return table.MustNew(
		table.NewColumn("REGION", table.KindText, []any{"Norte", "Norte", "Sur", "Norte", nil}),
		table.NewColumn("PERFIL", table.KindCategory, []any{"Minorista", "Mayorista", "Minorista", "Minorista", "Minorista"}),
		table.NewColumn("VENTAS", table.KindFloat, []any{10.0, 20.0, 5.0, 7.0, 100.0}),
		table.NewColumn("ID", table.KindText, []any{"u1", "u2", "u3", "u1", "u5"}),
	)
}

func column(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, "column %q", name)
	return c.Values
}

func TestPivot_DefaultAggregations(t *testing.T) {
	k := New(nil)

	got, err := k.Pivot(salesFixture(), PivotSpec{Index: []string{"REGION"}, Values: []string{"VENTAS", "ID"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"REGION", "VENTAS", "ID"}, got.Names())
	assert.Equal(t, []any{"Norte", "Sur", MarginLabel}, column(t, got, "REGION"))
	assert.Equal(t, []any{37.0, 5.0, 42.0}, column(t, got, "VENTAS"), "numeric columns are summed")
	assert.Equal(t, []any{2.0, 1.0, 3.0}, column(t, got, "ID"), "text columns count distinct values")
}

func TestPivot_CrossTab(t *testing.T) {
	k := New(nil)

	got, err := k.Pivot(salesFixture(), PivotSpec{Index: []string{"REGION"}, Columns: "PERFIL"})
	require.NoError(t, err)

	assert.Equal(t, []string{"REGION", "Mayorista", "Minorista", MarginLabel}, got.Names())
	assert.Equal(t, []any{1.0, 0.0, 1.0}, column(t, got, "Mayorista"))
	assert.Equal(t, []any{2.0, 1.0, 3.0}, column(t, got, "Minorista"))
	assert.Equal(t, []any{3.0, 1.0, 4.0}, column(t, got, MarginLabel))
}

func TestPivot_ColumnDimensionWithValues(t *testing.T) {
	k := New(nil)

	got, err := k.Pivot(salesFixture(), PivotSpec{
		Index:     []string{"REGION"},
		Columns:   "PERFIL",
		Values:    []string{"VENTAS"},
		NoMargins: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"REGION", "Mayorista", "Minorista"}, got.Names())
	assert.Equal(t, []any{"Norte", "Sur"}, column(t, got, "REGION"))
	assert.Equal(t, []any{20.0, nil}, column(t, got, "Mayorista"), "empty cells are absent")
	assert.Equal(t, []any{17.0, 5.0}, column(t, got, "Minorista"))
}

func TestPivot_ExplicitAggregation(t *testing.T) {
	k := New(nil)

	got, err := k.Pivot(salesFixture(), PivotSpec{
		Index:     []string{"PERFIL"},
		Values:    []string{"VENTAS", "ID"},
		Aggs:      map[string]Agg{"VENTAS": AggMax, "ID": AggCount},
		NoMargins: true,
	})
	require.NoError(t, err)

	perfil, _ := got.Column("PERFIL")
	assert.Equal(t, table.KindCategory, perfil.Kind)
	assert.Equal(t, []any{"Mayorista", "Minorista"}, perfil.Values)
	assert.Equal(t, []any{20.0, 100.0}, column(t, got, "VENTAS"))
	assert.Equal(t, []any{1.0, 4.0}, column(t, got, "ID"))
}

func TestPivot_Rejections(t *testing.T) {
	k := New(nil)

	tests := []struct {
		name string
		spec PivotSpec
	}{
		{"numeric column dimension", PivotSpec{Index: []string{"REGION"}, Columns: "VENTAS"}},
		{"nothing to aggregate", PivotSpec{Index: []string{"REGION"}}},
		{"no index", PivotSpec{Values: []string{"VENTAS"}}},
		{"missing column", PivotSpec{Index: []string{"ZONA"}, Values: []string{"VENTAS"}}},
		{"sum over text", PivotSpec{Index: []string{"REGION"}, Values: []string{"ID"}, Aggs: map[string]Agg{"ID": AggSum}}},
		{"unknown aggregation", PivotSpec{Index: []string{"REGION"}, Values: []string{"VENTAS"}, Aggs: map[string]Agg{"VENTAS": "median"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.Pivot(salesFixture(), tt.spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestDefaultAgg(t *testing.T) {
	assert.Equal(t, AggSum, DefaultAgg(table.KindFloat))
	assert.Equal(t, AggDistinct, DefaultAgg(table.KindText))
	assert.Equal(t, AggDistinct, DefaultAgg(table.KindCategory))
	assert.Equal(t, AggDistinct, DefaultAgg(table.KindDateTime))
}
