// Package aggregator downsamples a base-interval bar series into coarser bars.
package aggregator

import (
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// Aggregate reduces series into windows of the given period.
//
// A window is labelled by its closing edge and holds the bars with
// edge-period < Time <= edge. Edges are laid out from midnight of the first
// bar's day in that bar's location. Windows without bars are omitted; a
// trailing partial window is kept. A zero period returns a copy of series.
func Aggregate(series model.Series, period timeframe.Period) model.Series {
	if len(series) == 0 {
		return model.Series{}
	}
	if period.IsZero() {
		return series.Clone()
	}

	out := make(model.Series, 0, len(series)/period.Count+1)
	edge := origin(series[0].Time)
	var current model.Bar
	open := false

	for _, b := range series {
		if b.Time.After(edge) {
			if open {
				out = append(out, current)
				open = false
			}
			edge = closingEdge(edge, b.Time, period)
		}
		if !open {
			current = b
			current.Filled = false
			open = true
		} else {
			current = current.Merge(b)
		}
		current.Time = edge
	}
	if open {
		out = append(out, current)
	}
	return out
}

// NeedsResampling reports whether series is sampled finer than base, e.g.
// hourly bars handed in for a daily timeframe.
func NeedsResampling(series model.Series, base timeframe.BaseInterval) bool {
	threshold := base.Nominal() / 2
	for i := 1; i < len(series); i++ {
		if series[i].Time.Sub(series[i-1].Time) <= threshold {
			return true
		}
	}
	return false
}

func origin(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// closingEdge returns the first edge at or after t, stepping from edge.
func closingEdge(edge, t time.Time, period timeframe.Period) time.Time {
	// Skip whole periods in one jump for long gaps in hourly data.
	if period.Unit == timeframe.Hour {
		step := period.Nominal()
		if n := int(t.Sub(edge) / step); n > 1 {
			edge = period.Add(edge, n-1)
		}
	}
	for edge.Before(t) {
		edge = period.Add(edge, 1)
	}
	return edge
}
