// Package collector fetches market data from a provider and turns it into
// display-ready charts.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"MacdView/internal/model"
	"MacdView/internal/pipeline"
	"MacdView/internal/timeframe"
)

// ErrProvider marks failures of the remote data source.
var ErrProvider = errors.New("data provider failure")

// maxHourlyHistory is how far back providers serve hourly bars.
const maxHourlyHistory = 729 * 24 * time.Hour

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher     Fetcher
	Symbol      string
	Pipeline    pipeline.Pipeline
	HistoryDays int
	WarmupBars  int
	// Calendar, when set, classifies gap-filled bars.
	Calendar *TradingCalendar

	log *zap.Logger
	now func() time.Time
}

// NewCollector creates a new Collector with the default pipeline.
func NewCollector(fetcher Fetcher, symbol string, log *zap.Logger) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Symbol:      symbol,
		Pipeline:    pipeline.Default(),
		HistoryDays: 730,
		WarmupBars:  200,
		log:         log,
		now:         time.Now,
	}
}

// FetchRange returns the provider range needed to show lookback of tf at now with
// enough earlier bars to warm up the indicators.
func (c *Collector) FetchRange(tf timeframe.Timeframe, lookback time.Duration, now time.Time) (start, end time.Time, err error) {
	spec, err := timeframe.Lookup(tf)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	span := time.Duration(c.HistoryDays) * 24 * time.Hour
	if need := lookback + time.Duration(c.WarmupBars)*spec.Step.Nominal(); need > span {
		span = need
	}
	if spec.Base == timeframe.Interval1h && span > maxHourlyHistory {
		span = maxHourlyHistory
	}
	return now.Add(-span), now, nil
}

// Collect fetches bars for tf and computes the chart for the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, tf timeframe.Timeframe, lookbackHours int) (*model.Chart, error) {
	spec, err := timeframe.Lookup(tf)
	if err != nil {
		return nil, err
	}
	lookback := time.Duration(lookbackHours) * time.Hour
	now := c.now()
	start, end, err := c.FetchRange(tf, lookback, now)
	if err != nil {
		return nil, err
	}

	raw, err := c.Fetcher.FetchBars(ctx, c.Symbol, spec.Base, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrProvider, c.Fetcher.Name(), spec.Base, err)
	}
	c.log.Debug("fetched bars",
		zap.String("symbol", c.Symbol),
		zap.String("interval", string(spec.Base)),
		zap.Int("count", len(raw)))

	bars, err := c.Pipeline.Compute(tf, lookback, raw)
	if err != nil {
		return nil, fmt.Errorf("compute %s %s: %w", c.Symbol, tf, err)
	}

	chart := &model.Chart{
		Symbol:      c.Symbol,
		Timeframe:   string(tf),
		LookbackHrs: lookbackHours,
		Source:      c.Fetcher.Name(),
		Bars:        bars,
		FetchedFrom: start,
		FetchedTo:   end,
		ComputedAt:  now,
	}
	if c.Calendar != nil {
		chart.Gaps = c.Calendar.Classify(bars, spec.Step)
	} else {
		for _, b := range bars {
			if b.Filled {
				chart.Gaps.Filled++
				chart.Gaps.Missing++
			}
		}
	}
	c.log.Info("chart computed",
		zap.String("symbol", c.Symbol),
		zap.String("timeframe", string(tf)),
		zap.Int("bars", len(bars)),
		zap.Int("filled", chart.Gaps.Filled))
	return chart, nil
}
