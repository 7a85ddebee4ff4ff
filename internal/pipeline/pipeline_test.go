package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"MacdView/internal/calculator"
	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

var start = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// hourlyBars returns n hourly bars beginning one hour after start.
func hourlyBars(n int) model.Series {
	s := make(model.Series, n)
	for i := 0; i < n; i++ {
		p := 2300 + float64((i*37)%50) - 25
		s[i] = model.Bar{
			Time:   start.Add(time.Duration(i+1) * time.Hour),
			Open:   p - 0.5,
			High:   p + float64(i%6),
			Low:    p - 1 - float64(i%4),
			Close:  p,
			Volume: float64(100 + i%17),
		}
	}
	return s
}

func TestComputeSeries_InvalidTimeframe(t *testing.T) {
	_, err := ComputeSeries(timeframe.Timeframe("5m"), time.Hour, hourlyBars(10))
	require.ErrorIs(t, err, timeframe.ErrInvalidTimeframe)
}

func TestComputeSeries_EmptyInput(t *testing.T) {
	_, err := ComputeSeries(timeframe.TF4h, 100*time.Hour, model.Series{})
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestComputeSeries_UnorderedInput(t *testing.T) {
	s := hourlyBars(5)
	s[2], s[3] = s[3], s[2]
	_, err := ComputeSeries(timeframe.TF1h, 10*time.Hour, s)
	require.ErrorIs(t, err, model.ErrUnorderedSeries)
}

func TestComputeSeries_DailyFromHourly(t *testing.T) {
	raw := hourlyBars(30 * 24)
	out, err := ComputeSeries(timeframe.TF1D, 7*24*time.Hour, raw)
	require.NoError(t, err)
	require.Len(t, out, 7)

	offset := len(raw) - 7*24
	for d, bar := range out {
		day := raw[offset+d*24 : offset+d*24+24]
		vol, hi, lo := 0.0, day[0].High, day[0].Low
		for _, b := range day {
			vol += b.Volume
			hi = max(hi, b.High)
			lo = min(lo, b.Low)
		}
		require.Equal(t, vol, bar.Volume, "day %d", d)
		require.Equal(t, hi, bar.High, "day %d", d)
		require.Equal(t, lo, bar.Low, "day %d", d)
		require.Equal(t, day[0].Open, bar.Open, "day %d", d)
		require.Equal(t, day[23].Close, bar.Close, "day %d", d)
		require.Equal(t, day[23].Time, bar.Time, "day %d", d)
	}
}

func TestComputeSeries_GapIsFilledFlat(t *testing.T) {
	raw := hourlyBars(100)
	// Drop five consecutive hours.
	withGap := append(raw[:40:40], raw[45:]...)
	out, err := ComputeSeries(timeframe.TF1h, 100*time.Hour, withGap)
	require.NoError(t, err)
	require.Len(t, out, 100)

	preGap := raw[39]
	for i := 40; i < 45; i++ {
		b := out[i]
		require.True(t, b.Filled)
		require.Equal(t, raw[i].Time, b.Time)
		require.Equal(t, preGap.Close, b.Open)
		require.Equal(t, preGap.Close, b.High)
		require.Equal(t, preGap.Close, b.Low)
		require.Equal(t, preGap.Close, b.Close)
		require.Zero(t, b.Volume)
	}
	for i := 1; i < len(out); i++ {
		require.Equal(t, time.Hour, out[i].Time.Sub(out[i-1].Time))
	}
}

func TestComputeSeries_AggregatedTimeframes(t *testing.T) {
	raw := hourlyBars(24 * 20)
	for _, tf := range []timeframe.Timeframe{timeframe.TF2h, timeframe.TF3h, timeframe.TF4h, timeframe.TF6h, timeframe.TF8h, timeframe.TF12h} {
		spec, err := timeframe.Lookup(tf)
		require.NoError(t, err)
		out, err := ComputeSeries(tf, 1000*time.Hour, raw)
		require.NoError(t, err, tf)
		require.NotEmpty(t, out, tf)
		for i := 1; i < len(out); i++ {
			require.Equal(t, spec.Step.Nominal(), out[i].Time.Sub(out[i-1].Time), tf)
		}
	}
}

func TestCompute_TrimDoesNotRecompute(t *testing.T) {
	raw := hourlyBars(24 * 15)
	p := Default()

	full, err := p.Compute(timeframe.TF4h, 10000*time.Hour, raw)
	require.NoError(t, err)
	short, err := p.Compute(timeframe.TF4h, 48*time.Hour, raw)
	require.NoError(t, err)
	require.Len(t, short, 12)
	require.Equal(t, full[len(full)-len(short):], short)
}

func TestCompute_IndicatorsUseFullHistory(t *testing.T) {
	raw := hourlyBars(24 * 15)
	norm, err := Default().Normalize(timeframe.TF1h, raw)
	require.NoError(t, err)
	want, err := calculator.Annotate(norm, calculator.DefaultParams())
	require.NoError(t, err)

	got, err := ComputeSeries(timeframe.TF1h, 24*time.Hour, raw)
	require.NoError(t, err)
	require.Equal(t, want[len(want)-24:], got)
}

func TestCompute_MinSeedBars(t *testing.T) {
	p := Default()
	p.MinSeedBars = 50
	_, err := p.Compute(timeframe.TF1D, 7*24*time.Hour, hourlyBars(24*30))
	require.ErrorIs(t, err, calculator.ErrInsufficientLookback)
}

func TestCompute_ZeroLookback(t *testing.T) {
	_, err := ComputeSeries(timeframe.TF1h, 0, hourlyBars(10))
	require.ErrorIs(t, err, calculator.ErrInsufficientLookback)
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	raw := hourlyBars(50)
	snapshot := raw.Clone()
	_, err := ComputeSeries(timeframe.TF3h, 30*time.Hour, raw)
	require.NoError(t, err)
	require.Equal(t, snapshot, raw)
}

func TestCompute_ConstantPrice(t *testing.T) {
	raw := hourlyBars(72)
	for i := range raw {
		raw[i].Open, raw[i].High, raw[i].Low, raw[i].Close = 1950, 1950, 1950, 1950
	}
	out, err := ComputeSeries(timeframe.TF2h, 72*time.Hour, raw)
	require.NoError(t, err)
	for _, b := range out {
		require.Equal(t, 1950.0, b.EMA26)
		require.Equal(t, 1950.0, b.EMA50)
		require.Zero(t, b.MACD)
		require.Zero(t, b.Histogram)
	}
}
