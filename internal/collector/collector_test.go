package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MacdView/internal/cache"
	"MacdView/internal/calculator"
	"MacdView/internal/model"
	"MacdView/internal/pipeline"
	"MacdView/internal/timeframe"
)

var t0 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func hourly(n int) model.Series {
	bars := make(model.Series, n)
	for i := range bars {
		p := 100 + float64(i%7)
		bars[i] = model.Bar{
			Time: t0.Add(time.Duration(i+1) * time.Hour),
			Open: p, High: p + 1, Low: p - 1, Close: p + 0.5,
			Volume: 10,
		}
	}
	return bars
}

func newTestCollector(f Fetcher, now time.Time) *Collector {
	c := NewCollector(f, "GC=F", zap.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func TestFetchRange(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCollector(&MockFetcher{}, now)

	start, end, err := c.FetchRange(timeframe.TF12h, 1000*time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, now, end)
	// hourly base is capped by provider history
	require.Equal(t, now.Add(-maxHourlyHistory), start)

	start, _, err = c.FetchRange(timeframe.TF1W, 4000*time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(-4000*time.Hour-200*7*24*time.Hour), start)

	c.HistoryDays = 30
	c.WarmupBars = 10
	start, _, err = c.FetchRange(timeframe.TF1D, 48*time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, -30), start)

	_, _, err = c.FetchRange("5m", time.Hour, now)
	require.ErrorIs(t, err, timeframe.ErrInvalidTimeframe)
}

func TestCollect(t *testing.T) {
	raw := hourly(500)
	now := raw[len(raw)-1].Time.Add(30 * time.Minute)
	f := &MockFetcher{Bars: raw}
	c := newTestCollector(f, now)

	chart, err := c.Collect(context.Background(), timeframe.TF4h, 48)
	require.NoError(t, err)
	require.Equal(t, 1, f.Calls)
	require.Equal(t, "GC=F", chart.Symbol)
	require.Equal(t, "4h", chart.Timeframe)
	require.Equal(t, "mock", chart.Source)
	require.Equal(t, 48, chart.LookbackHrs)
	require.Len(t, chart.Bars, 12)
	require.Equal(t, raw[len(raw)-1].Time, chart.Bars[11].Time)
	require.Zero(t, chart.Gaps.Filled)
	require.Equal(t, now, chart.ComputedAt)
}

func TestCollect_Errors(t *testing.T) {
	now := t0.AddDate(0, 1, 0)

	f := &MockFetcher{}
	_, err := newTestCollector(f, now).Collect(context.Background(), "13h", 48)
	require.ErrorIs(t, err, timeframe.ErrInvalidTimeframe)
	require.Zero(t, f.Calls)

	boom := errors.New("boom")
	_, err = newTestCollector(&MockFetcher{Err: boom}, now).Collect(context.Background(), timeframe.TF1h, 48)
	require.ErrorIs(t, err, ErrProvider)
	require.ErrorIs(t, err, boom)

	_, err = newTestCollector(&MockFetcher{Bars: model.Series{}}, now).Collect(context.Background(), timeframe.TF1h, 48)
	require.ErrorIs(t, err, pipeline.ErrEmptyInput)

	_, err = newTestCollector(&MockFetcher{Bars: hourly(100)}, now).Collect(context.Background(), timeframe.TF1h, 0)
	require.ErrorIs(t, err, calculator.ErrInsufficientLookback)
}

func TestCollect_GapsClassified(t *testing.T) {
	// Friday 2024-06-07 through Monday 2024-06-10, no weekend bars.
	var raw model.Series
	for _, d := range []int{7, 10} {
		day := time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
		raw = append(raw, model.Bar{Time: day, Open: 1, High: 1, Low: 1, Close: 1})
	}
	now := raw[1].Time.Add(time.Hour)
	c := newTestCollector(&MockFetcher{Bars: raw}, now)
	c.Calendar = &TradingCalendar{Fallback: true, Timezone: time.UTC}

	chart, err := c.Collect(context.Background(), timeframe.TF1D, 24*7)
	require.NoError(t, err)
	require.Len(t, chart.Bars, 4)
	require.Equal(t, model.GapReport{Filled: 2, MarketClosed: 2}, chart.Gaps)
}

func TestClassify_Hourly(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.UTC}
	// Wednesday 2024-06-05.
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	s := model.IndicatedSeries{
		{Bar: model.Bar{Time: day.Add(11 * time.Hour), Filled: true}},
		{Bar: model.Bar{Time: day.Add(3 * time.Hour), Filled: true}},
		{Bar: model.Bar{Time: day.Add(12 * time.Hour)}},
	}
	got := tc.Classify(s, timeframe.Hours(1))
	require.Equal(t, model.GapReport{Filled: 2, MarketClosed: 1, Missing: 1}, got)
}

func TestCachedFetcher(t *testing.T) {
	raw := hourly(48)
	mock := &MockFetcher{Bars: raw}
	f := NewCachedFetcher(mock, cache.NewMemoryCache(time.Minute), zap.NewNop())
	ctx := context.Background()
	end := raw[47].Time

	got, err := f.FetchBars(ctx, "GC=F", timeframe.Interval1h, raw[10].Time, end)
	require.NoError(t, err)
	require.Len(t, got, 38)
	require.Equal(t, 1, mock.Calls)

	// narrower range is served from cache
	got, err = f.FetchBars(ctx, "GC=F", timeframe.Interval1h, raw[20].Time, end)
	require.NoError(t, err)
	require.Len(t, got, 28)
	require.Equal(t, 1, mock.Calls)

	// wider range refetches
	_, err = f.FetchBars(ctx, "GC=F", timeframe.Interval1h, raw[0].Time, end)
	require.NoError(t, err)
	require.Equal(t, 2, mock.Calls)

	require.NoError(t, f.Invalidate())
	_, err = f.FetchBars(ctx, "GC=F", timeframe.Interval1h, raw[20].Time, end)
	require.NoError(t, err)
	require.Equal(t, 3, mock.Calls)
	require.Equal(t, "mock", f.Name())
}

func TestCachedFetcher_ErrorNotCached(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("down")}
	f := NewCachedFetcher(mock, cache.NewMemoryCache(time.Minute), zap.NewNop())
	_, err := f.FetchBars(context.Background(), "GC=F", timeframe.Interval1d, t0, t0.AddDate(0, 1, 0))
	require.Error(t, err)

	mock.Err = nil
	mock.Price = 100
	got, err := f.FetchBars(context.Background(), "GC=F", timeframe.Interval1d, t0, t0.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	require.Equal(t, 2, mock.Calls)
}

func TestMockFetcher_Generated(t *testing.T) {
	m := &MockFetcher{Price: 2000}
	got, err := m.FetchBars(context.Background(), "GC=F", timeframe.Interval1h, t0, t0.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 10)
	require.NoError(t, got.Validate())
	require.Equal(t, t0.Add(time.Hour), got[0].Time)
}
