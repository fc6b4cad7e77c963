// internal/report/render.go
package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/tactic"
	"github.com/shopspring/decimal"
)

// DefaultPrecision applies to numeric columns without an explicit precision
const DefaultPrecision = 2

// SignalSeparator joins matched condition labels in one cell
const SignalSeparator = "; "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Render writes rows as UTF-8 CSV with a byte order mark, one column per
// tactic column.
func Render(t *tactic.Tactic, rows []core.ScreenResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(t.Columns))
	for i := range rows {
		for j, c := range t.Columns {
			record[j] = Cell(c, &rows[i])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cell formats one column of a result
func Cell(c tactic.Column, r *core.ScreenResult) string {
	switch c.Key {
	case tactic.FieldCode:
		return r.Code
	case tactic.FieldName:
		return r.Name
	case tactic.FieldDate:
		return r.Date.Format(time.DateOnly)
	case tactic.FieldTier:
		return r.Tier
	case tactic.FieldAdvice:
		return r.Advice
	case tactic.FieldSignals:
		return strings.Join(r.Signals, SignalSeparator)
	case tactic.FieldScore:
		return strconv.Itoa(r.Score) + c.Suffix
	case tactic.FieldClose:
		return Number(c, r.Close)
	case tactic.FieldPctChange:
		return Number(c, r.PctChange)
	}
	v, ok := r.Values[c.Key]
	if !ok {
		return ""
	}
	return Number(c, v)
}

// Number rounds v half away from zero to the column precision. Unavailable
// values render as an empty cell.
func Number(c tactic.Column, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	prec := DefaultPrecision
	if c.Precision != nil {
		prec = *c.Precision
	}

	d := decimal.NewFromFloat(v)
	if c.Percent {
		d = d.Shift(2)
	}
	s := d.StringFixed(int32(prec))
	if c.Percent {
		s += "%"
	}
	return s + c.Suffix
}
