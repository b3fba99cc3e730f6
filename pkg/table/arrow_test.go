package table

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrowRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	tbl := MustNew(
		Col("id", 1, 2, 3),
		Col("score", 1.5, 2.5, 3.5),
		NewSeries("name", []any{"a", nil, "c"}),
		Col("active", true, false, true),
		Col("raw", []byte{1}, []byte{2}, []byte{3}),
		Col("at", ts, ts.Add(time.Hour), ts.Add(2*time.Hour)),
	)

	rec, err := tbl.ToArrow(mem)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(6), rec.NumCols())
	assert.Equal(t, arrow.PrimitiveTypes.Int64, rec.Schema().Field(0).Type)
	assert.True(t, rec.Column(2).IsNull(1))

	back, err := FromArrow(rec)
	require.NoError(t, err)
	assert.Equal(t, tbl.ColumnNames(), back.ColumnNames())
	for _, name := range []string{"id", "score", "name", "active", "raw"} {
		want, _ := tbl.Column(name)
		got, _ := back.Column(name)
		assert.Equal(t, want, got, name)
	}
	at, _ := back.Column("at")
	assert.Equal(t, Time, at.Type)
	for i, v := range at.Values {
		assert.True(t, ts.Add(time.Duration(i)*time.Hour).Equal(v.(time.Time)), "row %d", i)
	}
}

func TestToArrow_UnknownColumnsBecomeStrings(t *testing.T) {
	tbl := MustNew(NewSeries("mixed", []any{1, "x", nil}))

	rec, err := tbl.ToArrow(nil)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, arrow.BinaryTypes.String, rec.Schema().Field(0).Type)
	back, err := FromArrow(rec)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"1"}, {"x"}, {nil}}, back.Rows())
}
