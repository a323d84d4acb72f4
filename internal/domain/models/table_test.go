package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) Table {
	t.Helper()
	tbl := NewTable(SchemaIndexDaily...)
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.Local)
	require.NoError(t, tbl.Append(Time(day), Float(3385.51), Float(5.43e11)))
	require.NoError(t, tbl.Append(Time(day.AddDate(0, 0, 1)), Float(3391.02), Float(6.17e11)))
	return tbl
}

func TestTableJSONRoundTripIsExact(t *testing.T) {
	orig := sampleTable(t)

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Table
	require.NoError(t, json.Unmarshal(data, &back))

	require.Equal(t, orig.Cols, back.Cols)
	require.Equal(t, orig.Len(), back.Len())
	for i := 0; i < orig.Len(); i++ {
		wantDate, _ := orig.TimeAt(i, ColDate)
		gotDate, _ := back.TimeAt(i, ColDate)
		assert.True(t, wantDate.Equal(gotDate))

		wantClose, _ := orig.FloatAt(i, ColClose)
		gotClose, _ := back.FloatAt(i, ColClose)
		assert.Equal(t, wantClose, gotClose)

		wantAmt, _ := orig.FloatAt(i, ColAmount)
		gotAmt, _ := back.FloatAt(i, ColAmount)
		assert.Equal(t, wantAmt, gotAmt)
	}
}

func TestAppendRejectsArityMismatch(t *testing.T) {
	tbl := NewTable(SchemaActivity...)
	assert.Error(t, tbl.Append(Float(1)))
	assert.NoError(t, tbl.Append(Float(1), Float(2)))
}

func TestMergeByTimeNewRowsWin(t *testing.T) {
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local)

	base := NewTable(SchemaIndexDaily...)
	require.NoError(t, base.Append(Time(day), Float(3300), Float(1e11)))
	require.NoError(t, base.Append(Time(day.AddDate(0, 0, 1)), Float(3310), Float(2e11)))

	ext := NewTable(SchemaIndexDaily...)
	// Same date as the last base row but revised values, plus one new day.
	require.NoError(t, ext.Append(Time(day.AddDate(0, 0, 1)), Float(3315), Float(2.5e11)))
	require.NoError(t, ext.Append(Time(day.AddDate(0, 0, 2)), Float(3320), Float(3e11)))

	merged := MergeByTime(base, ext, ColDate)
	require.Equal(t, 3, merged.Len())

	revised, _ := merged.FloatAt(1, ColClose)
	assert.Equal(t, 3315.0, revised)

	// Dates come out sorted ascending.
	var prev time.Time
	for i := 0; i < merged.Len(); i++ {
		d, ok := merged.TimeAt(i, ColDate)
		require.True(t, ok)
		if i > 0 {
			assert.True(t, d.After(prev))
		}
		prev = d
	}
}

func TestSortByFloatDescIsStable(t *testing.T) {
	tbl := NewTable(
		Column{Name: ColName, Kind: KindString},
		Column{Name: ColHeat, Kind: KindFloat},
	)
	require.NoError(t, tbl.Append(Str("a"), Float(50)))
	require.NoError(t, tbl.Append(Str("b"), Float(80)))
	require.NoError(t, tbl.Append(Str("c"), Float(50)))

	sorted := tbl.SortByFloatDesc(ColHeat)
	first, _ := sorted.StrAt(0, ColName)
	second, _ := sorted.StrAt(1, ColName)
	third, _ := sorted.StrAt(2, ColName)
	assert.Equal(t, "b", first)
	assert.Equal(t, "a", second)
	assert.Equal(t, "c", third)
}

func TestRunModeSchedule(t *testing.T) {
	cases := []struct {
		clock string
		want  RunMode
	}{
		{"09:29", ModePostMarket},
		{"09:30", ModeLiveMorning},
		{"11:29", ModeLiveMorning},
		{"11:30", ModeMiddaySummary},
		{"12:59", ModeMiddaySummary},
		{"13:00", ModeLiveAfternoon},
		{"14:59", ModeLiveAfternoon},
		{"15:00", ModePostMarket},
	}
	for _, tc := range cases {
		clk, err := time.ParseInLocation("15:04", tc.clock, time.Local)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ModeFor(clk), tc.clock)
	}
}
