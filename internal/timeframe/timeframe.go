package timeframe

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeframe is returned for timeframe labels outside the supported set.
var ErrInvalidTimeframe = errors.New("invalid timeframe")

// Timeframe is a display interval label such as "4h" or "1D".
type Timeframe string

const (
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF3h  Timeframe = "3h"
	TF4h  Timeframe = "4h"
	TF6h  Timeframe = "6h"
	TF8h  Timeframe = "8h"
	TF12h Timeframe = "12h"
	TF1D  Timeframe = "1D"
	TF2D  Timeframe = "2D"
	TF3D  Timeframe = "3D"
	TF1W  Timeframe = "1W"
)

// BaseInterval is a sampling interval a market-data provider can serve directly.
type BaseInterval string

const (
	Interval1h  BaseInterval = "1h"
	Interval1d  BaseInterval = "1d"
	Interval1wk BaseInterval = "1wk"
)

// Nominal returns the interval length ignoring calendar irregularities.
func (b BaseInterval) Nominal() time.Duration {
	switch b {
	case Interval1h:
		return time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval1wk:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Spec describes how a timeframe is derived from its base interval.
type Spec struct {
	Base BaseInterval
	// Aggregation is zero for native timeframes.
	Aggregation Period
	// Step is the spacing of the output grid.
	Step Period
}

// Native reports whether the timeframe equals its base interval.
func (s Spec) Native() bool { return s.Aggregation.IsZero() }

var order = []Timeframe{TF1h, TF2h, TF3h, TF4h, TF6h, TF8h, TF12h, TF1D, TF2D, TF3D, TF1W}

var specs = map[Timeframe]Spec{
	TF1h:  {Base: Interval1h, Step: Hours(1)},
	TF2h:  {Base: Interval1h, Aggregation: Hours(2), Step: Hours(2)},
	TF3h:  {Base: Interval1h, Aggregation: Hours(3), Step: Hours(3)},
	TF4h:  {Base: Interval1h, Aggregation: Hours(4), Step: Hours(4)},
	TF6h:  {Base: Interval1h, Aggregation: Hours(6), Step: Hours(6)},
	TF8h:  {Base: Interval1h, Aggregation: Hours(8), Step: Hours(8)},
	TF12h: {Base: Interval1h, Aggregation: Hours(12), Step: Hours(12)},
	TF1D:  {Base: Interval1d, Step: Days(1)},
	TF2D:  {Base: Interval1d, Aggregation: Days(2), Step: Days(2)},
	TF3D:  {Base: Interval1d, Aggregation: Days(3), Step: Days(3)},
	TF1W:  {Base: Interval1wk, Step: Weeks(1)},
}

// All returns the supported timeframes in display order.
func All() []Timeframe {
	out := make([]Timeframe, len(order))
	copy(out, order)
	return out
}

// Parse validates a timeframe label. Labels are case-sensitive: "1d" is not "1D".
func Parse(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := specs[tf]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
	}
	return tf, nil
}

// Lookup returns the derivation spec for tf.
func Lookup(tf Timeframe) (Spec, error) {
	spec, ok := specs[tf]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidTimeframe, string(tf))
	}
	return spec, nil
}

// Resolve maps tf to its base interval and aggregation period.
// ok is false for native timeframes, which pass through unaggregated.
func Resolve(tf Timeframe) (base BaseInterval, agg Period, ok bool, err error) {
	spec, err := Lookup(tf)
	if err != nil {
		return "", Period{}, false, err
	}
	return spec.Base, spec.Aggregation, !spec.Native(), nil
}

func (tf Timeframe) String() string { return string(tf) }
