package indicator

// RSI calculates the Relative Strength Index using simple averages of gains
// and losses over the trailing period deltas.
//
// The first period positions are NaN. When the average loss is zero the value
// is indeterminate and reported as NaN rather than 100.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	gains[0], losses[0] = NaN, NaN
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
		if !Valid(delta) {
			gains[i], losses[i] = NaN, NaN
		}
	}

	avgGain := SMA(gains[1:], period)
	avgLoss := SMA(losses[1:], period)

	for i := period; i < len(closes); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if !Valid(g) || !Valid(l) || l == 0 {
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return out
}
