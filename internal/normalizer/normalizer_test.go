package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

var t0 = time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)

func bar(t time.Time, close, vol float64) model.Bar {
	return model.Bar{Time: t, Open: close - 1, High: close + 2, Low: close - 2, Close: close, Volume: vol}
}

func TestFill_Empty(t *testing.T) {
	out := Fill(model.Series{}, timeframe.Hours(1))
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestFill_SingleBar(t *testing.T) {
	in := model.Series{bar(t0, 10, 5)}
	out := Fill(in, timeframe.Hours(4))
	require.Equal(t, in, out)
}

func TestFill_NoGapInvariant(t *testing.T) {
	in := model.Series{
		bar(t0, 10, 1),
		bar(t0.Add(2*time.Hour), 11, 1),
		bar(t0.Add(7*time.Hour), 12, 1),
		bar(t0.Add(8*time.Hour), 13, 1),
	}
	out := Fill(in, timeframe.Hours(1))
	require.Len(t, out, 9)
	for i := 1; i < len(out); i++ {
		require.Equal(t, time.Hour, out[i].Time.Sub(out[i-1].Time))
	}
	require.Equal(t, in[0].Time, out[0].Time)
	require.Equal(t, in[3].Time, out[8].Time)
	require.NoError(t, out.Validate())
}

func TestFill_FlatBarsCarryPriorClose(t *testing.T) {
	in := model.Series{
		bar(t0, 10, 3),
		bar(t0.Add(6*time.Hour), 20, 4),
	}
	out := Fill(in, timeframe.Hours(1))
	require.Len(t, out, 7)
	require.False(t, out[0].Filled)
	for _, b := range out[1:6] {
		require.True(t, b.Filled)
		require.Equal(t, 10.0, b.Open)
		require.Equal(t, 10.0, b.High)
		require.Equal(t, 10.0, b.Low)
		require.Equal(t, 10.0, b.Close)
		require.Zero(t, b.Volume)
	}
	require.Equal(t, in[1], out[6])
}

func TestFill_DayStep(t *testing.T) {
	d := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	in := model.Series{bar(d, 1, 1), bar(d.AddDate(0, 0, 2), 2, 1), bar(d.AddDate(0, 0, 6), 3, 1)}
	out := Fill(in, timeframe.Days(2))
	require.Len(t, out, 4)
	require.True(t, out[2].Filled)
	require.Equal(t, d.AddDate(0, 0, 4), out[2].Time)
	require.Equal(t, 2.0, out[2].Close)
}

func TestFill_WeekStep(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := model.Series{bar(d, 1, 1), bar(d.AddDate(0, 0, 21), 2, 1)}
	out := Fill(in, timeframe.Weeks(1))
	require.Len(t, out, 4)
	require.Equal(t, d.AddDate(0, 0, 14), out[2].Time)
}

func TestFill_OffGridBarsMergeIntoSlot(t *testing.T) {
	in := model.Series{
		bar(t0, 10, 1),
		{Time: t0.Add(90 * time.Minute), Open: 11, High: 15, Low: 9, Close: 12, Volume: 2},
		{Time: t0.Add(110 * time.Minute), Open: 12, High: 13, Low: 7, Close: 14, Volume: 3},
		bar(t0.Add(3*time.Hour), 16, 4),
	}
	out := Fill(in, timeframe.Hours(1))
	require.Len(t, out, 4)
	require.True(t, out[1].Filled)
	merged := out[2]
	require.Equal(t, t0.Add(2*time.Hour), merged.Time)
	require.Equal(t, 11.0, merged.Open)
	require.Equal(t, 15.0, merged.High)
	require.Equal(t, 7.0, merged.Low)
	require.Equal(t, 14.0, merged.Close)
	require.Equal(t, 5.0, merged.Volume)
	require.False(t, merged.Filled)
}

func TestFill_DoesNotMutateInput(t *testing.T) {
	in := model.Series{bar(t0, 10, 1), bar(t0.Add(3*time.Hour), 11, 1)}
	snapshot := in.Clone()
	_ = Fill(in, timeframe.Hours(1))
	require.Equal(t, snapshot, in)
}
