package calculator

import (
	"fmt"

	"MacdView/internal/model"
)

// Params sets the indicator spans.
type Params struct {
	TrendFast  int
	TrendSlow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultParams returns EMA(26), EMA(50) and MACD(12,26,9).
func DefaultParams() Params {
	return Params{TrendFast: 26, TrendSlow: 50, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
}

// Annotate computes all indicators over the full series.
// The trend EMAs are computed separately from the MACD EMAs even when spans coincide.
func Annotate(series model.Series, p Params) (model.IndicatedSeries, error) {
	out := make(model.IndicatedSeries, len(series))
	if len(series) == 0 {
		return out, nil
	}

	closes := series.Closes()
	trendFast, err := EMA(closes, p.TrendFast)
	if err != nil {
		return nil, fmt.Errorf("ema%d: %w", p.TrendFast, err)
	}
	trendSlow, err := EMA(closes, p.TrendSlow)
	if err != nil {
		return nil, fmt.Errorf("ema%d: %w", p.TrendSlow, err)
	}
	m, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}

	for i, b := range series {
		out[i] = model.IndicatedBar{
			Bar:       b,
			EMA26:     trendFast[i],
			EMA50:     trendSlow[i],
			MACD:      m.MACD[i],
			Signal:    m.Signal[i],
			Histogram: m.Histogram[i],
		}
	}
	return out, nil
}
