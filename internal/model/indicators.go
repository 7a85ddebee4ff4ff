package model

import "time"

// IndicatedBar is a bar annotated with trend and momentum values.
type IndicatedBar struct {
	Bar
	EMA26     float64 `json:"ema26"`
	EMA50     float64 `json:"ema50"`
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// IndicatedSeries is an annotated series in chronological order.
type IndicatedSeries []IndicatedBar

// Last returns the newest bar and false when the series is empty.
func (s IndicatedSeries) Last() (IndicatedBar, bool) {
	if len(s) == 0 {
		return IndicatedBar{}, false
	}
	return s[len(s)-1], true
}

// GapReport splits filled slots by whether the market was scheduled to trade.
type GapReport struct {
	Filled       int `json:"filled"`
	MarketClosed int `json:"market_closed"`
	Missing      int `json:"missing"`
}

// Chart is the finished, display-ready series for one request.
type Chart struct {
	Symbol      string          `json:"symbol"`
	Timeframe   string          `json:"timeframe"`
	LookbackHrs int             `json:"lookback_hours"`
	Source      string          `json:"source"`
	Bars        IndicatedSeries `json:"bars"`
	Gaps        GapReport       `json:"gaps"`
	FetchedFrom time.Time       `json:"fetched_from"`
	FetchedTo   time.Time       `json:"fetched_to"`
	ComputedAt  time.Time       `json:"computed_at"`
}
