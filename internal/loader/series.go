// internal/loader/series.go

// Package loader reads per-symbol price CSV files, the symbol name table and
// the data directory listing.
package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
)

// Column names understood by LoadSeries
const (
	ColDate      = "date"
	ColOpen      = "open"
	ColHigh      = "high"
	ColLow       = "low"
	ColClose     = "close"
	ColVolume    = "volume"
	ColPctChange = "pct_change"
	ColTurnover  = "turnover"
	ColCode      = "code"
)

// BaseColumns must be present in every symbol file
var BaseColumns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

var headerAliases = map[string]string{
	"日期":            ColDate,
	"date":          ColDate,
	"trade_date":    ColDate,
	"开盘":            ColOpen,
	"open":          ColOpen,
	"最高":            ColHigh,
	"high":          ColHigh,
	"最低":            ColLow,
	"low":           ColLow,
	"收盘":            ColClose,
	"close":         ColClose,
	"成交量":           ColVolume,
	"volume":        ColVolume,
	"vol":           ColVolume,
	"涨跌幅":           ColPctChange,
	"pct_change":    ColPctChange,
	"pct_chg":       ColPctChange,
	"换手率":           ColTurnover,
	"turnover":      ColTurnover,
	"turnover_rate": ColTurnover,
	"股票代码":          ColCode,
	"代码":            ColCode,
	"code":          ColCode,
	"ts_code":       ColCode,
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

var bom = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br
}

// LoadSeries reads a symbol file. require lists optional columns the caller
// needs in addition to BaseColumns. A code column, when present, overrides
// code.
func LoadSeries(path, code string, require []string) (core.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Series{}, core.WrapError(core.ErrReadFailed, err)
	}
	defer f.Close()

	return ReadSeries(f, code, require)
}

// ReadSeries parses symbol CSV content from r
func ReadSeries(r io.Reader, code string, require []string) (core.Series, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return core.Series{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("empty file"))
		}
		return core.Series{}, readErr(err)
	}
	idx := indexHeader(header)

	for _, col := range append(append([]string{}, BaseColumns...), require...) {
		if _, ok := idx[col]; !ok {
			return core.Series{}, core.WrapError(core.ErrMissingColumn, fmt.Errorf("%q", col))
		}
	}
	pctIdx, hasPct := idx[ColPctChange]
	turnIdx, hasTurn := idx[ColTurnover]
	codeIdx, hasCode := idx[ColCode]

	series := core.Series{Code: code}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return core.Series{}, readErr(err)
		}
		if blank(rec) {
			continue
		}
		if hasCode && series.Len() == 0 {
			if c := field(rec, codeIdx); c != "" {
				series.Code = NormalizeCode(c)
			}
		}

		var bar core.PriceBar
		if bar.Date, err = parseDate(field(rec, idx[ColDate])); err != nil {
			return core.Series{}, malformed(line, err)
		}
		nums := []struct {
			col string
			dst *float64
		}{
			{ColOpen, &bar.Open},
			{ColHigh, &bar.High},
			{ColLow, &bar.Low},
			{ColClose, &bar.Close},
			{ColVolume, &bar.Volume},
		}
		for _, n := range nums {
			if *n.dst, err = parseNumber(field(rec, idx[n.col])); err != nil {
				return core.Series{}, malformed(line, fmt.Errorf("%s: %w", n.col, err))
			}
		}

		bar.PctChange = math.NaN()
		if hasPct {
			if bar.PctChange, err = parseOptional(field(rec, pctIdx)); err != nil {
				return core.Series{}, malformed(line, fmt.Errorf("%s: %w", ColPctChange, err))
			}
		}
		bar.Turnover = math.NaN()
		if hasTurn {
			if bar.Turnover, err = parseOptional(field(rec, turnIdx)); err != nil {
				return core.Series{}, malformed(line, fmt.Errorf("%s: %w", ColTurnover, err))
			}
		}

		if n := len(series.Bars); n > 0 && !bar.Date.After(series.Bars[n-1].Date) {
			return core.Series{}, malformed(line, fmt.Errorf("date %s not after %s",
				bar.Date.Format("2006-01-02"), series.Bars[n-1].Date.Format("2006-01-02")))
		}
		series.Bars = append(series.Bars, bar)
	}

	if series.Len() == 0 {
		return core.Series{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("no rows"))
	}
	if !hasPct {
		derivePctChange(series.Bars)
	}
	return series, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if col, ok := headerAliases[h]; ok {
			if _, dup := idx[col]; !dup {
				idx[col] = i
			}
		}
	}
	return idx
}

func derivePctChange(bars []core.PriceBar) {
	for i := range bars {
		if i == 0 || bars[i-1].Close == 0 {
			bars[i].PctChange = math.NaN()
			continue
		}
		bars[i].PctChange = (bars[i].Close/bars[i-1].Close - 1) * 100
	}
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	// some exports carry a time part
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// parseOptional treats an empty cell as unavailable
func parseOptional(s string) (float64, error) {
	if s == "" || s == "-" {
		return math.NaN(), nil
	}
	return parseNumber(s)
}

func malformed(line int, err error) error {
	return core.WrapError(core.ErrMalformedData, fmt.Errorf("line %d: %w", line, err))
}

func readErr(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return core.WrapError(core.ErrMalformedData, err)
	}
	return core.WrapError(core.ErrReadFailed, err)
}
