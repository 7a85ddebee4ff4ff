package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MacdView/internal/cache"
	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// CachedFetcher serves repeated requests from a cache while the entry is fresh and
// reaches back far enough.
type CachedFetcher struct {
	Next  Fetcher
	Cache cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

// NewCachedFetcher wraps next with c.
func NewCachedFetcher(next Fetcher, c cache.Cache, log *zap.Logger) *CachedFetcher {
	return &CachedFetcher{Next: next, Cache: c, log: log, now: time.Now}
}

func (f *CachedFetcher) Name() string { return f.Next.Name() }

func (f *CachedFetcher) FetchBars(ctx context.Context, symbol string, interval timeframe.BaseInterval, start, end time.Time) (model.Series, error) {
	key := cache.Key{Symbol: symbol, Interval: interval}
	entry, ok, err := f.Cache.Get(key)
	if err != nil {
		f.log.Warn("cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if ok && entry.Covers(start) {
		f.log.Debug("cache hit", zap.String("symbol", symbol), zap.String("interval", string(interval)))
		return entry.Bars.Between(start, end), nil
	}

	bars, err := f.Next.FetchBars(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	err = f.Cache.Put(key, &cache.Entry{Bars: bars, Start: start, End: end, FetchedAt: f.now()})
	if err != nil {
		f.log.Warn("cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return bars, nil
}

// Invalidate drops every cached series.
func (f *CachedFetcher) Invalidate() error {
	return f.Cache.Clear()
}
