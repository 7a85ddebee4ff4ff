package calculator

import (
	"errors"
	"fmt"
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// ErrInsufficientLookback is returned when trimming leaves nothing to display.
var ErrInsufficientLookback = errors.New("no displayable data for lookback")

// LookbackCutoff returns the instant after which bars fall inside the lookback.
//
// Hour timeframes subtract the duration directly. Day timeframes use whole
// days (floor) and the weekly timeframe whole weeks (floor of days/7).
// ok is false when the lookback rounds down to zero units.
func LookbackCutoff(last time.Time, unit timeframe.Unit, lookback time.Duration) (cutoff time.Time, ok bool) {
	switch unit {
	case timeframe.Hour:
		if lookback < time.Hour {
			return time.Time{}, false
		}
		return last.Add(-lookback), true
	case timeframe.Day:
		days := int(lookback / (24 * time.Hour))
		if days <= 0 {
			return time.Time{}, false
		}
		return last.AddDate(0, 0, -days), true
	case timeframe.Week:
		weeks := int(lookback/(24*time.Hour)) / 7
		if weeks <= 0 {
			return time.Time{}, false
		}
		return last.AddDate(0, 0, -7*weeks), true
	default:
		return time.Time{}, false
	}
}

// TrimLookback keeps the trailing bars newer than the lookback cutoff.
// Values are copied from series as computed; nothing is recalculated.
func TrimLookback(series model.IndicatedSeries, unit timeframe.Unit, lookback time.Duration) (model.IndicatedSeries, error) {
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientLookback)
	}
	cutoff, ok := LookbackCutoff(last.Time, unit, lookback)
	if !ok {
		return nil, fmt.Errorf("%w: lookback %s is shorter than one %s bar", ErrInsufficientLookback, lookback, unit)
	}

	start := len(series)
	for start > 0 && series[start-1].Time.After(cutoff) {
		start--
	}
	if start == len(series) {
		return nil, fmt.Errorf("%w: no bars after %s", ErrInsufficientLookback, cutoff.Format(time.RFC3339))
	}
	out := make(model.IndicatedSeries, len(series)-start)
	copy(out, series[start:])
	return out, nil
}
