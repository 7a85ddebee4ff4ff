package calculator

import (
	"errors"
	"fmt"
)

// EMA computes the exponential moving average of values over span bars.
//
// The smoothing factor is 2/(span+1) and the first output equals the first
// input, so every position is defined. Early values lean towards the seed
// until roughly span bars of history have accumulated.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		// Same as alpha*v + (1-alpha)*prev, but exact when v == prev.
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out, nil
}

// MACDResult holds the three MACD lines, aligned with the input.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the fast-minus-slow EMA line, its signal EMA and the histogram.
func MACD(values []float64, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		return MACDResult{}, fmt.Errorf("fast span %d must be below slow span %d", fast, slow)
	}
	emaFast, err := EMA(values, fast)
	if err != nil {
		return MACDResult{}, fmt.Errorf("fast ema: %w", err)
	}
	emaSlow, err := EMA(values, slow)
	if err != nil {
		return MACDResult{}, fmt.Errorf("slow ema: %w", err)
	}

	line := make([]float64, len(values))
	for i := range values {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig, err := EMA(line, signal)
	if err != nil {
		return MACDResult{}, fmt.Errorf("signal ema: %w", err)
	}
	hist := make([]float64, len(values))
	for i := range line {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{MACD: line, Signal: sig, Histogram: hist}, nil
}
