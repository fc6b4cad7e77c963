package indicator

// VolumeRatio divides each bar's volume by the mean volume of the previous
// period bars. The current bar is never part of its own average.
//
// The first period positions are NaN, as is any bar whose trailing mean is zero.
func VolumeRatio(volumes []float64, period int) []float64 {
	out := nanSlice(len(volumes))
	if period <= 0 {
		return out
	}
	avg := SMA(volumes, period)
	for i := period; i < len(volumes); i++ {
		prev := avg[i-1]
		if !Valid(prev) || prev == 0 {
			continue
		}
		out[i] = volumes[i] / prev
	}
	return out
}

// Change divides each value by its predecessor; index 0 is NaN
func Change(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out[i] = values[i] / values[i-1]
	}
	return out
}
