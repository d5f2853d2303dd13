package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyaltycli/internal/table"
)

func mergeFixtures() (*table.Table, *table.Table) {
	left := table.MustNew(
		table.NewColumn("ID", table.KindText, []any{"u1", "u2", "u3", nil}),
		table.NewColumn("N", table.KindFloat, []any{1.0, 2.0, 3.0, 4.0}),
	)
	right := table.MustNew(
		table.NewColumn("ID", table.KindText, []any{"u2", "u3", "u3", "u4", nil}),
		table.NewColumn("N", table.KindFloat, []any{20.0, 30.0, 31.0, 40.0, 50.0}),
		table.NewColumn("Z", table.KindText, []any{"b", "c", "c2", "d", "e"}),
	)
	return left, right
}

func TestMerge_JoinKinds(t *testing.T) {
	k := New(nil)
	left, right := mergeFixtures()

	tests := []struct {
		how   JoinKind
		ids   []any
		leftN []any
		z     []any
	}{
		{JoinInner, []any{"u2", "u3", "u3"}, []any{2.0, 3.0, 3.0}, []any{"b", "c", "c2"}},
		{JoinLeft, []any{"u1", "u2", "u3", "u3", nil}, []any{1.0, 2.0, 3.0, 3.0, 4.0}, []any{nil, "b", "c", "c2", nil}},
		{JoinRight, []any{"u2", "u3", "u3", "u4", nil}, []any{2.0, 3.0, 3.0, nil, nil}, []any{"b", "c", "c2", "d", "e"}},
		{JoinOuter, []any{"u1", "u2", "u3", "u3", nil, "u4", nil}, []any{1.0, 2.0, 3.0, 3.0, 4.0, nil, nil}, []any{nil, "b", "c", "c2", nil, "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.how), func(t *testing.T) {
			got, err := k.Merge(left, right, MergeSpec{LeftOn: []string{"ID"}, RightOn: []string{"ID"}, How: tt.how})
			require.NoError(t, err)
			assert.Equal(t, []string{"ID", "N_x", "N_y", "Z"}, got.Names())
			assert.Equal(t, tt.ids, column(t, got, "ID"))
			assert.Equal(t, tt.leftN, column(t, got, "N_x"))
			assert.Equal(t, tt.z, column(t, got, "Z"))
		})
	}
}

func TestMerge_DifferentKeyNamesAndSuffixes(t *testing.T) {
	k := New(nil)
	left, right := mergeFixtures()
	right, err := right.Rename(map[string]string{"ID": "ID USUARIO"})
	require.NoError(t, err)

	got, err := k.Merge(left, right, MergeSpec{
		LeftOn:   []string{"ID"},
		RightOn:  []string{"ID USUARIO"},
		Suffixes: [2]string{"_rgu", "_sl"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "N_rgu", "ID USUARIO", "N_sl", "Z"}, got.Names())
	assert.Equal(t, []any{"u2", "u3", "u3"}, column(t, got, "ID USUARIO"))
	assert.Equal(t, []any{20.0, 30.0, 31.0}, column(t, got, "N_sl"))
}

func TestMerge_Rejections(t *testing.T) {
	k := New(nil)
	left, right := mergeFixtures()

	_, err := k.Merge(left, right, MergeSpec{LeftOn: []string{"ID"}, RightOn: []string{"ID", "Z"}})
	assert.Error(t, err)

	_, err = k.Merge(left, right, MergeSpec{LeftOn: []string{"ID"}, RightOn: []string{"ID"}, How: "cross"})
	assert.Error(t, err)

	_, err = k.Merge(left, right, MergeSpec{LeftOn: []string{"Z"}, RightOn: []string{"Z"}})
	assert.Error(t, err)
}

func TestParseJoinKind(t *testing.T) {
	for in, want := range map[string]JoinKind{"inner": JoinInner, "LEFT": JoinLeft, "right": JoinRight, "full": JoinOuter, "outer": JoinOuter} {
		got, err := ParseJoinKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseJoinKind("semi")
	assert.Error(t, err)
}
