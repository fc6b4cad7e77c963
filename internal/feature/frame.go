package feature

import (
	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/indicator"
)

// Frame is a symbol's bar history plus lazily computed indicator columns.
// A Frame belongs to a single screening task and is not safe for concurrent use.
type Frame struct {
	series core.Series
	cols   map[string][]float64

	macdLines *indicator.MACD
	kdjLines  *indicator.KDJ
}

// New creates a frame over the series
func New(s core.Series) *Frame {
	return &Frame{
		series: s,
		cols:   make(map[string][]float64),
	}
}

// Len returns the number of bars
func (f *Frame) Len() int {
	return f.series.Len()
}

// Series returns the underlying bars
func (f *Frame) Series() core.Series {
	return f.series
}

// Set injects a precomputed column, replacing any cached one. Values must be
// aligned with the series.
func (f *Frame) Set(key string, values []float64) {
	f.cols[key] = values
}

// Column returns the full aligned column for a reference, ignoring its offset
func (f *Frame) Column(r Ref) []float64 {
	return f.column(r.Base, r.Period)
}

// Value reads the reference at the latest bar minus its offset. ok is false
// when the bar does not exist or the value is unavailable.
func (f *Frame) Value(r Ref) (v float64, ok bool) {
	return f.ValueAt(r, f.Len()-1)
}

// ValueAt reads the reference relative to bar i
func (f *Frame) ValueAt(r Ref, i int) (v float64, ok bool) {
	idx := i - r.Back
	if idx < 0 || idx >= f.Len() {
		return indicator.NaN, false
	}
	col := f.Column(r)
	if idx >= len(col) {
		return indicator.NaN, false
	}
	v = col[idx]
	return v, indicator.Valid(v)
}

func (f *Frame) column(base string, period int) []float64 {
	key := Ref{Base: base, Period: period}.Key()
	if col, ok := f.cols[key]; ok {
		return col
	}
	e, ok := catalog[base]
	if !ok {
		col := make([]float64, f.Len())
		for i := range col {
			col[i] = indicator.NaN
		}
		return col
	}
	col := e.compute(f, period)
	f.cols[key] = col
	return col
}

func (f *Frame) macd() indicator.MACD {
	if f.macdLines == nil {
		m := indicator.CalcMACD(f.series.Closes(), indicator.MACDFast, indicator.MACDSlow, indicator.MACDSignal)
		f.macdLines = &m
	}
	return *f.macdLines
}

func (f *Frame) kdj() indicator.KDJ {
	if f.kdjLines == nil {
		k := indicator.CalcKDJ(f.series.Highs(), f.series.Lows(), f.series.Closes(),
			indicator.KDJPeriod, indicator.KDJM1, indicator.KDJM2)
		f.kdjLines = &k
	}
	return *f.kdjLines
}
