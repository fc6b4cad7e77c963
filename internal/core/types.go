package core

import "time"

// Timeframe is the bar interval a tactic evaluates on
type Timeframe string

const (
	TimeframeDaily  Timeframe = "daily"
	TimeframeWeekly Timeframe = "weekly"
)

// PriceBar represents one trading day (or resampled week) for a symbol
type PriceBar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Turnover  float64 // percent, NaN when the source has no turnover column
	PctChange float64 // percent change vs previous close
}

// Series is the ordered bar history of one symbol, oldest first
type Series struct {
	Code string
	Bars []PriceBar
}

// Len returns the number of bars
func (s Series) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar. It panics on an empty series.
func (s Series) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}

// Closes extracts closing prices
func (s Series) Closes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Close })
}

// Opens extracts opening prices
func (s Series) Opens() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Open })
}

// Highs extracts high prices
func (s Series) Highs() []float64 {
	return s.column(func(b PriceBar) float64 { return b.High })
}

// Lows extracts low prices
func (s Series) Lows() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Low })
}

// Volumes extracts volumes
func (s Series) Volumes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Volume })
}

// Turnovers extracts turnover rates
func (s Series) Turnovers() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Turnover })
}

// PctChanges extracts percent changes
func (s Series) PctChanges() []float64 {
	return s.column(func(b PriceBar) float64 { return b.PctChange })
}

func (s Series) column(f func(PriceBar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}

// ScreenResult is one admitted symbol of a run
type ScreenResult struct {
	Code      string
	Name      string
	Date      time.Time
	Close     float64
	PctChange float64
	Score     int
	Tier      string
	Advice    string
	Signals   []string           // labels of matched conditions
	Values    map[string]float64 // feature snapshot keyed by feature reference
}

// SkipReason explains why a symbol produced no result
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipBoard               SkipReason = "board"
	SkipReadFailed          SkipReason = "read_failed"
	SkipMalformed           SkipReason = "malformed"
	SkipMissingColumn       SkipReason = "missing_column"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipPriceBand           SkipReason = "price_band"
	SkipGate                SkipReason = "gate"
	SkipIndeterminate       SkipReason = "indeterminate"
	SkipNoSignal            SkipReason = "no_signal"
	SkipBelowThreshold      SkipReason = "below_threshold"
)

// SkipReasons lists every reason in reporting order
var SkipReasons = []SkipReason{
	SkipBoard,
	SkipReadFailed,
	SkipMalformed,
	SkipMissingColumn,
	SkipInsufficientHistory,
	SkipPriceBand,
	SkipGate,
	SkipIndeterminate,
	SkipNoSignal,
	SkipBelowThreshold,
}

// Outcome is the result of screening a single symbol: either Result is set
// or Skip names the reason it was dropped.
type Outcome struct {
	Code   string
	Result *ScreenResult
	Skip   SkipReason
	Err    error
}

// Admitted reports whether the symbol produced a result
func (o Outcome) Admitted() bool {
	return o.Result != nil
}

// Skipped builds a skip outcome
func Skipped(code string, reason SkipReason, err error) Outcome {
	return Outcome{Code: code, Skip: reason, Err: err}
}
