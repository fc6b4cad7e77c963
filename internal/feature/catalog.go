package feature

import (
	"sort"

	"github.com/newthinker/zhanfa/internal/indicator"
)

type entry struct {
	parametric bool
	help       string
	compute    func(f *Frame, n int) []float64
}

// catalog is filled in init because entries refer back to Frame.column,
// which reads the catalog.
var catalog map[string]entry

func init() {
	catalog = map[string]entry{
		"open":       {help: "opening price", compute: func(f *Frame, _ int) []float64 { return f.series.Opens() }},
		"high":       {help: "high price", compute: func(f *Frame, _ int) []float64 { return f.series.Highs() }},
		"low":        {help: "low price", compute: func(f *Frame, _ int) []float64 { return f.series.Lows() }},
		"close":      {help: "closing price", compute: func(f *Frame, _ int) []float64 { return f.series.Closes() }},
		"volume":     {help: "traded volume", compute: func(f *Frame, _ int) []float64 { return f.series.Volumes() }},
		"pct_change": {help: "percent change vs previous close", compute: func(f *Frame, _ int) []float64 { return f.series.PctChanges() }},
		"turnover":   {help: "turnover rate, percent", compute: func(f *Frame, _ int) []float64 { return f.series.Turnovers() }},
		"vol_change": {help: "volume / previous volume", compute: func(f *Frame, _ int) []float64 { return indicator.Change(f.series.Volumes()) }},

		"dif":  {help: "MACD DIF, EMA12 - EMA26", compute: func(f *Frame, _ int) []float64 { return f.macd().DIF }},
		"dea":  {help: "MACD DEA, EMA9 of DIF", compute: func(f *Frame, _ int) []float64 { return f.macd().DEA }},
		"macd": {help: "MACD histogram, 2*(DIF-DEA)", compute: func(f *Frame, _ int) []float64 { return f.macd().Hist }},
		"k":    {help: "KDJ(9,3,3) K line", compute: func(f *Frame, _ int) []float64 { return f.kdj().K }},
		"d":    {help: "KDJ(9,3,3) D line", compute: func(f *Frame, _ int) []float64 { return f.kdj().D }},
		"j":    {help: "KDJ(9,3,3) J line", compute: func(f *Frame, _ int) []float64 { return f.kdj().J }},

		"ma": {parametric: true, help: "simple moving average of close", compute: func(f *Frame, n int) []float64 {
			return indicator.SMA(f.series.Closes(), n)
		}},
		"ema": {parametric: true, help: "exponential moving average of close", compute: func(f *Frame, n int) []float64 {
			return indicator.EMA(f.series.Closes(), n)
		}},
		"vma": {parametric: true, help: "simple moving average of volume, current bar included", compute: func(f *Frame, n int) []float64 {
			return indicator.SMA(f.series.Volumes(), n)
		}},
		"rsi": {parametric: true, help: "relative strength index", compute: func(f *Frame, n int) []float64 {
			return indicator.RSI(f.series.Closes(), n)
		}},
		"vol_ratio": {parametric: true, help: "volume / mean volume of the previous n bars", compute: func(f *Frame, n int) []float64 {
			return indicator.VolumeRatio(f.series.Volumes(), n)
		}},
		"turnover_ma": {parametric: true, help: "simple moving average of turnover", compute: func(f *Frame, n int) []float64 {
			return indicator.SMA(f.series.Turnovers(), n)
		}},
		"hhv": {parametric: true, help: "highest high over up to n bars incl. current", compute: func(f *Frame, n int) []float64 {
			return indicator.Highest(f.series.Highs(), n)
		}},
		"hhvx": {parametric: true, help: "highest high over up to n bars before current", compute: func(f *Frame, n int) []float64 {
			return indicator.HighestBefore(f.series.Highs(), n)
		}},
		"llv": {parametric: true, help: "lowest low over up to n bars incl. current", compute: func(f *Frame, n int) []float64 {
			return indicator.Lowest(f.series.Lows(), n)
		}},
		"llvx": {parametric: true, help: "lowest low over up to n bars before current", compute: func(f *Frame, n int) []float64 {
			return indicator.LowestBefore(f.series.Lows(), n)
		}},
		"drawdown": {parametric: true, help: "(hhv_n - close) / hhv_n", compute: func(f *Frame, n int) []float64 {
			hh := f.column("hhv", n)
			return zipWith(hh, f.column("close", 0), func(h, c float64) float64 { return ratio(h-c, h) })
		}},
		"range_pos": {parametric: true, help: "(close - llv_n) / (hhv_n - llv_n)", compute: func(f *Frame, n int) []float64 {
			hh, ll, cl := f.column("hhv", n), f.column("llv", n), f.column("close", 0)
			out := make([]float64, len(cl))
			for i := range cl {
				out[i] = ratio(cl[i]-ll[i], hh[i]-ll[i])
			}
			return out
		}},
		"box_amp": {parametric: true, help: "(hhvx_n - llvx_n) / llvx_n, box amplitude before current", compute: func(f *Frame, n int) []float64 {
			return zipWith(f.column("hhvx", n), f.column("llvx", n), func(h, l float64) float64 { return ratio(h-l, l) })
		}},
		"ma_gap": {parametric: true, help: "(ma_n - close) / close * 100", compute: func(f *Frame, n int) []float64 {
			return zipWith(f.column("ma", n), f.column("close", 0), func(m, c float64) float64 { return ratio(m-c, c) * 100 })
		}},
	}
}

// Describe lists catalog entries as name -> help, sorted by name. Parametric
// entries are shown with a "<n>" suffix.
func Describe() [][2]string {
	out := make([][2]string, 0, len(catalog))
	for name, e := range catalog {
		if e.parametric {
			name += "<n>"
		}
		out = append(out, [2]string{name, e.help})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// RequiredColumns reports source columns a reference depends on beyond the
// always-required OHLCV set.
func (r Ref) RequiredColumns() []string {
	switch r.Base {
	case "turnover", "turnover_ma":
		return []string{"turnover"}
	}
	return nil
}

func zipWith(a, b []float64, f func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 || !indicator.Valid(num) || !indicator.Valid(den) {
		return indicator.NaN
	}
	return num / den
}
