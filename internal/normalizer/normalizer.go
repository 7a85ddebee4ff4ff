// Package normalizer places a bar series on a uniform calendar grid and fills gaps.
package normalizer

import (
	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// Fill returns one bar per grid slot from the first to the last bar of series,
// with slots step apart.
//
// Slot i covers (grid[i-1], grid[i]]. A bar sitting exactly on the grid keeps
// its timestamp; off-grid bars are merged into the slot that contains them.
// Slots with no bar become flat bars at the previous close with zero volume.
func Fill(series model.Series, step timeframe.Period) model.Series {
	if len(series) == 0 {
		return model.Series{}
	}
	if step.IsZero() {
		return series.Clone()
	}

	last := series[len(series)-1].Time
	out := make(model.Series, 0, estimateSlots(series, step))

	i := 0
	for n := 0; ; n++ {
		slot := step.Add(series[0].Time, n)

		var bar model.Bar
		filled := true
		for i < len(series) && !series[i].Time.After(slot) {
			if filled {
				bar = series[i]
				filled = false
			} else {
				bar = bar.Merge(series[i])
			}
			i++
		}

		if filled {
			bar = model.FlatBar(slot, out[len(out)-1].Close)
		}
		bar.Time = slot
		out = append(out, bar)

		if !slot.Before(last) {
			break
		}
	}
	return out
}

func estimateSlots(series model.Series, step timeframe.Period) int {
	nominal := step.Nominal()
	if nominal <= 0 {
		return len(series)
	}
	span := series[len(series)-1].Time.Sub(series[0].Time)
	return int(span/nominal) + 2
}
