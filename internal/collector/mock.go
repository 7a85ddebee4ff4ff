package collector

import (
	"context"
	"math"
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars, when set, is returned for every interval instead of generated data.
	Bars model.Series
	Err  error
	// Calls counts FetchBars invocations.
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval timeframe.BaseInterval, start, end time.Time) (model.Series, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars.Between(start, end), nil
	}
	return generateMockBars(m.Price, interval, start, end), nil
}

// generateMockBars produces a gently oscillating series on the interval grid.
func generateMockBars(basePrice float64, interval timeframe.BaseInterval, start, end time.Time) model.Series {
	step := interval.Nominal()
	if step <= 0 || !start.Before(end) {
		return model.Series{}
	}
	first := start.Truncate(step).Add(step)
	bars := make(model.Series, 0, int(end.Sub(first)/step)+1)
	for i, t := 0, first; !t.After(end); i, t = i+1, t.Add(step) {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/24))
		bars = append(bars, model.Bar{
			Time:   t.UTC(),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars
}
