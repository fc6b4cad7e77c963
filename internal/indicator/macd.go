package indicator

// MACD holds the DIF, DEA and histogram lines
type MACD struct {
	DIF  []float64
	DEA  []float64
	Hist []float64
}

// Default MACD periods
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// CalcMACD computes DIF = EMA(fast) - EMA(slow), DEA = EMA(DIF, signal) and
// histogram = 2 * (DIF - DEA).
func CalcMACD(closes []float64, fast, slow, signal int) MACD {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = fastEMA[i] - slowEMA[i]
	}
	dea := EMA(dif, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = 2 * (dif[i] - dea[i])
	}
	return MACD{DIF: dif, DEA: dea, Hist: hist}
}

// CrossUp reports whether fast crossed above slow at index i:
// fast[i-1] <= slow[i-1] and fast[i] > slow[i].
func CrossUp(fast, slow []float64, i int) bool {
	if i < 1 || i >= len(fast) || i >= len(slow) {
		return false
	}
	if !Valid(fast[i]) || !Valid(slow[i]) || !Valid(fast[i-1]) || !Valid(slow[i-1]) {
		return false
	}
	return fast[i-1] <= slow[i-1] && fast[i] > slow[i]
}
