package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MacdView/internal/cache"
	"MacdView/internal/collector"
	"MacdView/internal/config"
	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *collector.MockFetcher, cache.Cache, *fakeSender) {
	t.Helper()
	cfg, err := config.Load("does-not-exist.yaml")
	require.NoError(t, err)

	mock := &collector.MockFetcher{Price: 2000}
	c := cache.NewMemoryCache(time.Minute)
	log := zap.NewNop()
	col := collector.NewCollector(collector.NewCachedFetcher(mock, c, log), "GC=F", log)
	col.HistoryDays = 60
	col.WarmupBars = 50
	sender := &fakeSender{}
	return NewScheduler(context.Background(), col, c, sender, cfg, log), mock, c, sender
}

func TestHandleCommand_Chart(t *testing.T) {
	s, mock, _, _ := newTestScheduler(t)

	reply := s.HandleCommand(context.Background(), "/chart")
	require.Contains(t, reply, "<b>GC=F 12h</b> | last 1000h")
	require.Contains(t, reply, "Latest close:")

	// shorter range on the same base interval is served from cache
	reply = s.HandleCommand(context.Background(), "/chart 4h 48")
	require.Contains(t, reply, "<b>GC=F 4h</b> | last 48h")
	require.Equal(t, 1, mock.Calls)
}

func TestHandleCommand_BadArgs(t *testing.T) {
	s, mock, _, _ := newTestScheduler(t)

	require.Contains(t, s.HandleCommand(context.Background(), "/chart 5m"), "invalid timeframe")
	require.Contains(t, s.HandleCommand(context.Background(), "/chart 4h 5"), "outside 24..4000")
	require.Contains(t, s.HandleCommand(context.Background(), "/chart 4h x"), "not a number")
	require.Zero(t, mock.Calls)
}

func TestHandleCommand_Refresh(t *testing.T) {
	s, mock, c, _ := newTestScheduler(t)

	key := cache.Key{Symbol: "GC=F", Interval: timeframe.Interval1d}
	require.NoError(t, c.Put(key, &cache.Entry{Bars: model.Series{}, FetchedAt: time.Now()}))

	reply := s.HandleCommand(context.Background(), "/refresh")
	require.Contains(t, reply, "Cache cleared")
	require.Equal(t, 1, mock.Calls)

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHandleCommand_Misc(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	require.Contains(t, s.HandleCommand(context.Background(), "/timeframes"), "12h 1D 2D 3D 1W")
	require.Contains(t, s.HandleCommand(context.Background(), "hello"), "/chart [timeframe] [hours]")
	require.Contains(t, s.HandleCommand(context.Background(), "  "), "/refresh")
}

func TestRegister(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	require.NoError(t, s.Register("0 */5 * * * *"))
	require.Error(t, s.Register("every five minutes"))
	s.Start()
	s.Stop()
}

func TestCrossover(t *testing.T) {
	at := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bar := func(i int, h float64) model.IndicatedBar {
		return model.IndicatedBar{Bar: model.Bar{Time: at.Add(time.Duration(i) * time.Hour)}, Histogram: h}
	}

	_, ok := crossover(model.IndicatedSeries{bar(0, 1)})
	require.False(t, ok)
	_, ok = crossover(model.IndicatedSeries{bar(0, 1), bar(1, 2)})
	require.False(t, ok)
	got, ok := crossover(model.IndicatedSeries{bar(0, -1), bar(1, 0.5)})
	require.True(t, ok)
	require.Equal(t, at.Add(time.Hour), got)
	_, ok = crossover(model.IndicatedSeries{bar(0, 0.1), bar(1, -0.1)})
	require.True(t, ok)
}

func TestRefreshTask_AlertsOncePerCrossover(t *testing.T) {
	s, _, _, sender := newTestScheduler(t)
	at := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	require.True(t, s.markCrossover(at))
	require.False(t, s.markCrossover(at))
	require.True(t, s.markCrossover(at.Add(time.Hour)))

	s.refreshTask()
	s.Notifier = nil
	s.refreshTask()
	require.LessOrEqual(t, len(sender.sent), 1)
}
