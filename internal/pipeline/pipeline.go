// Package pipeline turns raw base-interval bars into a gap-free, indicator-annotated
// series for one timeframe and lookback.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"MacdView/internal/aggregator"
	"MacdView/internal/calculator"
	"MacdView/internal/model"
	"MacdView/internal/normalizer"
	"MacdView/internal/timeframe"
)

// ErrEmptyInput is returned when there are no bars to compute on.
var ErrEmptyInput = errors.New("no input bars")

// Pipeline holds the tunables of a computation. The zero value is not usable;
// start from Default.
type Pipeline struct {
	Params calculator.Params
	// MinSeedBars rejects histories shorter than this many grid bars. Zero disables the check.
	MinSeedBars int
}

// Default returns a pipeline with the standard indicator spans.
func Default() Pipeline {
	return Pipeline{Params: calculator.DefaultParams()}
}

// ComputeSeries runs the default pipeline.
func ComputeSeries(tf timeframe.Timeframe, lookback time.Duration, raw model.Series) (model.IndicatedSeries, error) {
	return Default().Compute(tf, lookback, raw)
}

// Compute aggregates raw to tf, fills the grid, annotates the full history and
// trims the result to lookback. raw is not modified.
func (p Pipeline) Compute(tf timeframe.Timeframe, lookback time.Duration, raw model.Series) (model.IndicatedSeries, error) {
	full, spec, err := p.annotate(tf, raw)
	if err != nil {
		return nil, err
	}
	out, err := calculator.TrimLookback(full, spec.Step.Unit, lookback)
	if err != nil {
		return nil, fmt.Errorf("trim %s to %s: %w", tf, lookback, err)
	}
	return out, nil
}

// Normalize returns the aggregated, gap-filled series for tf without indicators.
func (p Pipeline) Normalize(tf timeframe.Timeframe, raw model.Series) (model.Series, error) {
	spec, err := timeframe.Lookup(tf)
	if err != nil {
		return nil, err
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	agg := spec.Aggregation
	if spec.Native() && aggregator.NeedsResampling(raw, spec.Base) {
		agg = spec.Step
	}
	return normalizer.Fill(aggregator.Aggregate(raw, agg), spec.Step), nil
}

func (p Pipeline) annotate(tf timeframe.Timeframe, raw model.Series) (model.IndicatedSeries, timeframe.Spec, error) {
	spec, err := timeframe.Lookup(tf)
	if err != nil {
		return nil, spec, err
	}
	norm, err := p.Normalize(tf, raw)
	if err != nil {
		return nil, spec, err
	}
	if len(norm) == 0 {
		return nil, spec, fmt.Errorf("%s: %w", tf, ErrEmptyInput)
	}
	if p.MinSeedBars > 0 && len(norm) < p.MinSeedBars {
		return nil, spec, fmt.Errorf("%w: %d %s bars, need %d to seed indicators",
			calculator.ErrInsufficientLookback, len(norm), tf, p.MinSeedBars)
	}
	full, err := calculator.Annotate(norm, p.Params)
	if err != nil {
		return nil, spec, fmt.Errorf("annotate %s: %w", tf, err)
	}
	return full, spec, nil
}
