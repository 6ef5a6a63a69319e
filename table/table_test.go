package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(3,
		NewStringColumn("id", []string{"a", "b", "c"}),
		NewInt64Column("internal:current_id", []int64{10, 20, 30}),
		NewInt64Column("internal:parent_id", []int64{0, 0, 0}),
		NewInt64Column("internal:offset", []int64{1, 2, 3}),
	)
	require.NoError(t, err)
	return tbl
}

func TestDropMissingColumnIgnored(t *testing.T) {
	tbl := sampleTable(t)
	out := tbl.Drop("internal:offset", "does-not-exist")
	require.False(t, out.HasColumn("internal:offset"))
	require.True(t, out.HasColumn("id"))
	require.Equal(t, 3, out.NumRows)
	// original table is untouched
	require.True(t, tbl.HasColumn("internal:offset"))
}

func TestSetColumnReplacesInPlace(t *testing.T) {
	tbl := sampleTable(t)
	out, err := tbl.SetColumn(NewInt64Column("internal:current_id", []int64{0, 1, 2}))
	require.NoError(t, err)
	col, ok := out.Column("internal:current_id")
	require.True(t, ok)
	require.Equal(t, int64(0), col.Int64At(0))
	require.Equal(t, int64(1), col.Int64At(1))
	require.Equal(t, int64(2), col.Int64At(2))
	// order preserved
	require.Equal(t, tbl.Names(), out.Names())
}

func TestSetColumnLengthMismatch(t *testing.T) {
	tbl := sampleTable(t)
	_, err := tbl.SetColumn(NewInt64Column("internal:current_id", []int64{0, 1}))
	require.Error(t, err)
}

func TestTakeAndFilter(t *testing.T) {
	tbl := sampleTable(t)
	taken := tbl.Take([]int{2, 0})
	require.Equal(t, 2, taken.NumRows)
	col, _ := taken.Column("id")
	require.Equal(t, "c", col.StringAt(0))
	require.Equal(t, "a", col.StringAt(1))

	filtered := tbl.Filter([]bool{true, false, true})
	require.Equal(t, 2, filtered.NumRows)
	col, _ = filtered.Column("id")
	require.Equal(t, "a", col.StringAt(0))
	require.Equal(t, "c", col.StringAt(1))
}

func TestEmptyPreservesSchema(t *testing.T) {
	tbl := sampleTable(t)
	empty := tbl.Empty()
	require.Equal(t, 0, empty.NumRows)
	require.Equal(t, tbl.Names(), empty.Names())
}

func TestRowsRoundTrip(t *testing.T) {
	tbl := sampleTable(t)
	rows := tbl.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, "b", rows[1]["id"])
	require.Equal(t, int64(20), rows[1]["internal:current_id"])
}

func TestNewRejectsDuplicateAndMismatch(t *testing.T) {
	_, err := New(2,
		NewStringColumn("id", []string{"a", "b"}),
		NewStringColumn("id", []string{"c", "d"}),
	)
	require.Error(t, err)

	_, err = New(2,
		NewStringColumn("id", []string{"a"}),
	)
	require.Error(t, err)
}
