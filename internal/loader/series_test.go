// internal/loader/series_test.go
package loader

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeries_ChineseHeaders(t *testing.T) {
	data := "\ufeff日期,开盘,收盘,最高,最低,成交量,涨跌幅,换手率\n" +
		"2025-01-02,10.00,10.20,10.30,9.90,12000,1.50,0.80\n" +
		"2025-01-03,10.20,10.00,10.25,9.95,9000,-1.96,0.60\n"

	s, err := ReadSeries(strings.NewReader(data), "600000", []string{ColTurnover})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "600000", s.Code)

	b := s.Bars[0]
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), b.Date)
	assert.Equal(t, 10.0, b.Open)
	assert.Equal(t, 10.3, b.High)
	assert.Equal(t, 9.9, b.Low)
	assert.Equal(t, 10.2, b.Close)
	assert.Equal(t, 12000.0, b.Volume)
	assert.Equal(t, 1.5, b.PctChange)
	assert.Equal(t, 0.8, b.Turnover)
}

func TestReadSeries_EnglishHeadersDerivesPctChange(t *testing.T) {
	data := "trade_date,Open,High,Low,Close,Vol\n" +
		"20250102,10,10,10,10,100\n" +
		"20250103,10,11,10,11,100\n"

	s, err := ReadSeries(strings.NewReader(data), "1", nil)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, math.IsNaN(s.Bars[0].PctChange))
	assert.InDelta(t, 10.0, s.Bars[1].PctChange, 1e-9)
	assert.True(t, math.IsNaN(s.Bars[1].Turnover))
}

func TestReadSeries_CodeColumn(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"chinese", "日期,股票代码,开盘,收盘,最高,最低,成交量\n2025-01-02,1,10,10,10,10,100\n", "000001"},
		{"ts_code", "ts_code,trade_date,open,high,low,close,vol\n000002.SZ,20250102,10,10,10,10,100\n", "000002"},
		{"blank cell keeps file code", "date,code,open,high,low,close,volume\n2025-01-02,,10,10,10,10,100\n", "600000"},
		{"absent", "date,open,high,low,close,volume\n2025-01-02,10,10,10,10,100\n", "600000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadSeries(strings.NewReader(tt.data), "600000", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Code)
		})
	}
}

func TestReadSeries_Errors(t *testing.T) {
	header := "date,open,high,low,close,volume\n"
	tests := []struct {
		name    string
		data    string
		require []string
		want    *core.Error
	}{
		{"empty", "", nil, core.ErrMalformedData},
		{"header only", header, nil, core.ErrMalformedData},
		{"missing close", "date,open,high,low,volume\n2025-01-02,1,1,1,1\n", nil, core.ErrMissingColumn},
		{"missing turnover", header + "2025-01-02,1,1,1,1,1\n", []string{ColTurnover}, core.ErrMissingColumn},
		{"bad number", header + "2025-01-02,1,x,1,1,1\n", nil, core.ErrMalformedData},
		{"bad date", header + "02.01.2025,1,1,1,1,1\n", nil, core.ErrMalformedData},
		{"repeated date", header + "2025-01-02,1,1,1,1,1\n2025-01-02,1,1,1,1,1\n", nil, core.ErrMalformedData},
		{"descending", header + "2025-01-03,1,1,1,1,1\n2025-01-02,1,1,1,1,1\n", nil, core.ErrMalformedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeries(strings.NewReader(tt.data), "600000", tt.require)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestReadSeries_SkipsBlankRowsAndEmptyOptionals(t *testing.T) {
	data := "date,open,high,low,close,volume,turnover\n" +
		"2025/01/02,1,1,1,1,1,\n" +
		",,,,,,\n" +
		"2025/01/03,1,1,1,1,1,0.5\n"

	s, err := ReadSeries(strings.NewReader(data), "600000", nil)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, math.IsNaN(s.Bars[0].Turnover))
	assert.Equal(t, 0.5, s.Bars[1].Turnover)
}

func TestLoadSeries_Unreadable(t *testing.T) {
	_, err := LoadSeries(filepath.Join(t.TempDir(), "600000.csv"), "600000", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrReadFailed))
	assert.Equal(t, core.SkipReadFailed, core.SkipReasonFor(err))
}

func TestLoadSeries_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "000001.csv")
	data := "date,open,high,low,close,volume\n2025-01-02,1,2,0.5,1.5,100\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := LoadSeries(path, "000001", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1.5, s.Last().Close)
}
