package indicator

// KDJ holds the stochastic K, D and J lines
type KDJ struct {
	K []float64
	D []float64
	J []float64
}

// Default KDJ parameters
const (
	KDJPeriod = 9
	KDJM1     = 3
	KDJM2     = 3
)

// kdjSeed is the K and D value before the first RSV
const kdjSeed = 50.0

// CalcKDJ computes the stochastic oscillator.
//
//	RSV = (close - LLV(low, n)) / (HHV(high, n) - LLV(low, n)) * 100
//	K   = ((m1-1)*K' + RSV) / m1
//	D   = ((m2-1)*D' + K) / m2
//	J   = 3K - 2D
//
// K and D start from 50. The first n-1 positions are NaN. A flat window
// (HHV == LLV) carries K and D forward unchanged.
func CalcKDJ(highs, lows, closes []float64, n, m1, m2 int) KDJ {
	size := len(closes)
	res := KDJ{K: nanSlice(size), D: nanSlice(size), J: nanSlice(size)}
	if n <= 0 || m1 <= 0 || m2 <= 0 || size < n {
		return res
	}

	k, d := kdjSeed, kdjSeed
	for i := n - 1; i < size; i++ {
		hh := maxOf(highs[i-n+1 : i+1])
		ll := minOf(lows[i-n+1 : i+1])
		if span := hh - ll; Valid(span) && span > 0 && Valid(closes[i]) {
			rsv := (closes[i] - ll) / span * 100
			k = (float64(m1-1)*k + rsv) / float64(m1)
			d = (float64(m2-1)*d + k) / float64(m2)
		}
		res.K[i] = k
		res.D[i] = d
		res.J[i] = 3*k - 2*d
	}
	return res
}
