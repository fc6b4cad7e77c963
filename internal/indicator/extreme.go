package indicator

import "math"

// Highest returns the maximum over up to period trailing values including
// the current one. Windows at the start of the series may be shorter.
func Highest(values []float64, period int) []float64 {
	return rolling(values, period, 0, maxOf)
}

// Lowest returns the minimum over up to period trailing values including
// the current one.
func Lowest(values []float64, period int) []float64 {
	return rolling(values, period, 0, minOf)
}

// HighestBefore returns the maximum over up to period values strictly before
// the current one. Index 0 is NaN.
func HighestBefore(values []float64, period int) []float64 {
	return rolling(values, period, 1, maxOf)
}

// LowestBefore returns the minimum over up to period values strictly before
// the current one. Index 0 is NaN.
func LowestBefore(values []float64, period int) []float64 {
	return rolling(values, period, 1, minOf)
}

// MeanBefore returns the mean over exactly period values strictly before the
// current one.
func MeanBefore(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	avg := SMA(values, period)
	for i := 1; i < len(values); i++ {
		out[i] = avg[i-1]
	}
	return out
}

func rolling(values []float64, period, lag int, agg func([]float64) float64) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := lag; i < len(values); i++ {
		end := i - lag + 1
		start := end - period
		if start < 0 {
			start = 0
		}
		out[i] = agg(values[start:end])
	}
	return out
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if !Valid(v) {
			return NaN
		}
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if !Valid(v) {
			return NaN
		}
		if v < m {
			m = v
		}
	}
	return m
}
