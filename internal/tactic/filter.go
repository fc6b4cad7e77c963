package tactic

import (
	"strings"

	"github.com/newthinker/zhanfa/internal/core"
)

// Candidate is what the hard filters look at
type Candidate struct {
	Code  string
	Name  string
	Daily core.Series
}

// Filter is a hard include/exclude predicate with the reason it reports
type Filter struct {
	Reason core.SkipReason
	Admit  func(Candidate) bool
}

// BoardFilter rejects codes by prefix and names by keyword
func (t *Tactic) BoardFilter() Filter {
	return Filter{Reason: core.SkipBoard, Admit: func(c Candidate) bool {
		return t.AdmitBoard(c.Code, c.Name)
	}}
}

// PriceFilter rejects a latest close outside the price band
func (t *Tactic) PriceFilter() Filter {
	return Filter{Reason: core.SkipPriceBand, Admit: func(c Candidate) bool {
		if c.Daily.Len() == 0 {
			return false
		}
		return t.AdmitPrice(c.Daily.Last().Close)
	}}
}

// HistoryFilter rejects series shorter than MinBars
func (t *Tactic) HistoryFilter() Filter {
	return Filter{Reason: core.SkipInsufficientHistory, Admit: func(c Candidate) bool {
		return c.Daily.Len() >= t.MinBars
	}}
}

// HardFilters returns the board, price and history filters in cascade order
func (t *Tactic) HardFilters() []Filter {
	return []Filter{t.BoardFilter(), t.PriceFilter(), t.HistoryFilter()}
}

// Cascade applies filters in order and stops at the first rejection
func Cascade(filters []Filter, c Candidate) (bool, core.SkipReason) {
	for _, f := range filters {
		if !f.Admit(c) {
			return false, f.Reason
		}
	}
	return true, core.SkipNone
}

// AdmitBoard applies the board rule to a code and display name
func (t *Tactic) AdmitBoard(code, name string) bool {
	b := t.Board
	for _, p := range b.DenyPrefixes {
		if strings.HasPrefix(code, p) {
			return false
		}
	}
	if len(b.AllowPrefixes) > 0 {
		allowed := false
		for _, p := range b.AllowPrefixes {
			if strings.HasPrefix(code, p) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	upper := strings.ToUpper(name)
	for _, kw := range b.DenyNameKeywords {
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return false
		}
	}
	return true
}

// AdmitPrice checks the latest close against the price band
func (t *Tactic) AdmitPrice(close float64) bool {
	if close < t.Price.Min {
		return false
	}
	if t.Price.Max > 0 && close > t.Price.Max {
		return false
	}
	return true
}
