package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedSeries is returned when a series breaks the strictly ascending timestamp rule.
var ErrUnorderedSeries = errors.New("series timestamps not strictly ascending")

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	// Filled marks a flat bar inserted for a slot with no observation.
	Filled bool `json:"filled,omitempty"`
}

// Merge folds next into b as the later bar of the same window.
func (b Bar) Merge(next Bar) Bar {
	out := b
	if next.High > out.High {
		out.High = next.High
	}
	if next.Low < out.Low {
		out.Low = next.Low
	}
	out.Close = next.Close
	out.Volume += next.Volume
	out.Time = next.Time
	out.Filled = b.Filled && next.Filled
	return out
}

// FlatBar returns a no-activity bar at price with zero volume.
func FlatBar(t time.Time, price float64) Bar {
	return Bar{Time: t, Open: price, High: price, Low: price, Close: price, Filled: true}
}

// Series is an ordered run of bars keyed by unique, ascending timestamps.
type Series []Bar

// Validate checks that timestamps are strictly ascending.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s follows %s", ErrUnorderedSeries,
				i, s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the closing prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Between returns the bars with start <= Time <= end.
func (s Series) Between(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
