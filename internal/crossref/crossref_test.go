package crossref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

func keys(name string, values ...any) *table.Table {
	return table.MustNew(table.NewColumn(name, table.KindText, values))
}

func TestCompare(t *testing.T) {
	left := keys("ID", "u1", "u2", "u1", nil, "u3")
	right := keys("USER", "u3", "u9", "u1")

	m, err := Compare(left, "ID", right, "USER")
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []any{"u1", "u2", "u3"}, m.Keys)
	assert.Equal(t, []bool{true, false, true}, m.Found)

	found, ok := m.Lookup("u2")
	assert.True(t, ok)
	assert.False(t, found)
	_, ok = m.Lookup("u9")
	assert.False(t, ok, "right-only keys are not part of the membership")
}

func TestCompare_RowCountEqualsDistinctKeys(t *testing.T) {
	tests := []struct {
		name  string
		left  []any
		right []any
	}{
		{"no overlap", []any{"a", "b"}, []any{"c"}},
		{"full overlap", []any{"a", "b"}, []any{"b", "a"}},
		{"duplicate left keys", []any{"a", "a", "a", "b"}, []any{"a"}},
		{"empty right", []any{"a"}, []any{}},
		{"empty left", []any{}, []any{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := keys("k", tt.left...)
			m, err := Compare(left, "k", keys("k", tt.right...), "k")
			require.NoError(t, err)
			distinct := len(left.Columns()[0].Distinct())
			assert.Equal(t, distinct, m.Len())
			tbl, err := m.Table("Participa")
			require.NoError(t, err)
			assert.Equal(t, distinct, tbl.Len())
		})
	}
}

func TestCompare_FanoutPanics(t *testing.T) {
	left := keys("ID", "u1", "u2")
	right := keys("ID", "u1", "u1")

	defer func() {
		rec := recover()
		require.NotNil(t, rec, "duplicate right keys must fail loudly")
		err, ok := rec.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, apperrors.ErrInvariant))
		assert.Contains(t, err.Error(), "3 rows for 2 distinct keys")
	}()
	_, _ = Compare(left, "ID", right, "ID")
}

func TestCompare_DuplicateRightKeyWithoutMatchIsFine(t *testing.T) {
	m, err := Compare(keys("ID", "u1"), "ID", keys("ID", "u7", "u7"), "ID")
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, m.Found)
}

func TestCompare_MissingColumn(t *testing.T) {
	_, err := Compare(keys("ID", "u1"), "NOPE", keys("ID", "u1"), "ID")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = Compare(keys("ID", "u1"), "ID", keys("ID", "u1"), "NOPE")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestMembership_TableAndColumn(t *testing.T) {
	left := keys("ID", "u1", "u2", nil, "u1")
	m, err := Compare(left, "ID", keys("ID", "u1"), "ID")
	require.NoError(t, err)

	tbl, err := m.Table("")
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", DefaultIndicator}, tbl.Names())
	assert.Equal(t, []any{true, false}, tbl.Columns()[1].Values)

	col, err := m.Column(left, "ID", "Participa")
	require.NoError(t, err)
	assert.Equal(t, table.KindBool, col.Kind)
	assert.Equal(t, []any{true, false, nil, true}, col.Values)
}

func TestMembership_TableIndicatorNamedLikeKey(t *testing.T) {
	m, err := Compare(keys("ID", "u1"), "ID", keys("ID", "u1"), "ID")
	require.NoError(t, err)

	_, err = m.Table("ID")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
