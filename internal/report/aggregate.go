// internal/report/aggregate.go

// Package report ranks screening results and renders them as a CSV file.
package report

import (
	"math"
	"sort"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/loader"
	"github.com/newthinker/zhanfa/internal/tactic"
)

// UnknownName is shown for codes missing from the name table
const UnknownName = "unknown"

// Aggregate joins names, sorts by the tactic's sort keys and truncates to
// top rows. top <= 0 falls back to the tactic's top_n; zero there keeps
// every row. The input slice is not modified.
func Aggregate(t *tactic.Tactic, results []core.ScreenResult, names loader.NameTable, top int) []core.ScreenResult {
	rows := make([]core.ScreenResult, len(results))
	copy(rows, results)

	for i := range rows {
		if name, ok := names.Lookup(rows[i].Code); ok && name != "" {
			rows[i].Name = name
		} else {
			rows[i].Name = UnknownName
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return less(t.Sort, &rows[i], &rows[j])
	})

	if top <= 0 {
		top = t.TopN
	}
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}
	return rows
}

func less(keys []tactic.SortKey, a, b *core.ScreenResult) bool {
	for _, k := range keys {
		if k.By == tactic.FieldCode {
			if a.Code != b.Code {
				return (a.Code < b.Code) != k.Desc
			}
			continue
		}
		va, vb := sortValue(a, k.By), sortValue(b, k.By)
		nanA, nanB := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case nanA && nanB:
			continue
		case nanA:
			return false
		case nanB:
			return true
		case va == vb:
			continue
		case k.Desc:
			return va > vb
		default:
			return va < vb
		}
	}
	return a.Code < b.Code
}

// sortValue reads a numeric sort key; unknown keys are NaN
func sortValue(r *core.ScreenResult, key string) float64 {
	switch key {
	case tactic.FieldScore:
		return float64(r.Score)
	case tactic.FieldClose:
		return r.Close
	case tactic.FieldPctChange:
		return r.PctChange
	case tactic.FieldDate:
		return float64(r.Date.Unix())
	}
	if v, ok := r.Values[key]; ok && !math.IsInf(v, 0) {
		return v
	}
	return math.NaN()
}
