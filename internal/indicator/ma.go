// Package indicator implements the technical indicators used by tactics.
//
// Every function returns a slice aligned with its input: the value at index i
// depends only on inputs at indices <= i. Positions where the indicator is not
// yet available, or is mathematically undefined, hold NaN.
package indicator

import "math"

// NaN is the marker for unavailable values
var NaN = math.NaN()

// Valid reports whether v is a usable number
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NaN
	}
	return out
}

// SMA calculates Simple Moving Average over exactly the trailing period values.
// The first period-1 positions are NaN. A NaN input poisons every window it is in.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		out[i] = sum / float64(period)
	}

	// A NaN anywhere turns the rolling sum into NaN forever, so recompute
	// windows after it explicitly.
	if !allValid(values) {
		for i := period - 1; i < len(values); i++ {
			out[i] = mean(values[i-period+1 : i+1])
		}
	}

	return out
}

// EMA calculates Exponential Moving Average with smoothing 2/(span+1),
// seeded by the first value.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	ema := math.NaN()
	for i, v := range values {
		switch {
		case !Valid(v):
			// keep the previous value
		case !Valid(ema):
			ema = v
		default:
			ema = alpha*v + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func allValid(values []float64) bool {
	for _, v := range values {
		if !Valid(v) {
			return false
		}
	}
	return true
}
