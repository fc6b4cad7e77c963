package tactic

import (
	"math"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
)

// flatSeries returns n daily bars closing at price
func flatSeries(code string, n int, price float64) core.Series {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	s := core.Series{Code: code}
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, core.PriceBar{
			Date:   day.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		})
	}
	return s
}

// tail builds a column of length n whose last values are vals, NaN before
func tail(n int, vals ...float64) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	copy(col[n-len(vals):], vals)
	return col
}
