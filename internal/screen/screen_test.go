package screen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/loader"
	"github.com/newthinker/zhanfa/internal/metrics"
	"github.com/newthinker/zhanfa/internal/tactic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uptrendTactic = `
name: uptrend
min_bars: 10
board:
  allow_prefixes: ["00", "60"]
price:
  min: 5
  max: 20
rules:
  - name: trend
    required: true
    branches:
      - label: above MA5
        points: 60
        when: ["close > ma5"]
tiers:
  - min: 60
    label: strong
    advice: hold
columns:
  - key: code
  - key: ma5
`

func uptrend(t *testing.T) *tactic.Tactic {
	t.Helper()
	tc, err := tactic.Decode(strings.NewReader(uptrendTactic))
	require.NoError(t, err)
	return tc
}

func builtin(t *testing.T, name string) *tactic.Tactic {
	t.Helper()
	r, err := tactic.Load("", nil)
	require.NoError(t, err)
	tc, ok := r.Get(name)
	require.True(t, ok)
	return tc
}

// writeSymbol writes n weekday bars starting Monday 2024-01-01, the close
// moving by step each bar
func writeSymbol(t *testing.T, dir, code string, n int, start, step float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		c := start + step*float64(i)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n", day.Format("2006-01-02"), c, c+0.1, c-0.1, c, 10000+i)
		day = day.AddDate(0, 0, 1)
	}
	path := filepath.Join(dir, code+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func neverLoad(t *testing.T) LoadFunc {
	return func(path, code string, req []string) (core.Series, error) {
		t.Errorf("file %s was read", path)
		return core.Series{}, nil
	}
}

func TestScreenFile_Admitted(t *testing.T) {
	dir := t.TempDir()
	path := writeSymbol(t, dir, "600000", 30, 10, 0.1)

	s := New(uptrend(t), loader.NameTable{"600000": "Pudong Bank"})
	o := s.ScreenFile(path)

	require.True(t, o.Admitted(), "skip %q: %v", o.Skip, o.Err)
	r := o.Result
	assert.Equal(t, "600000", r.Code)
	assert.Equal(t, "Pudong Bank", r.Name)
	assert.Equal(t, 60, r.Score)
	assert.Equal(t, "strong", r.Tier)
	assert.Equal(t, "hold", r.Advice)
	assert.Equal(t, []string{"above MA5"}, r.Signals)
	assert.InDelta(t, 12.9, r.Close, 1e-9)
	assert.InDelta(t, 12.7, r.Values["ma5"], 1e-9)
}

func TestScreenFile_PriceBand(t *testing.T) {
	path := writeSymbol(t, t.TempDir(), "600000", 60, 25, 0)

	o := New(builtin(t, "crash_recovery"), nil).ScreenFile(path)
	assert.Equal(t, core.SkipPriceBand, o.Skip)
}

func TestScreenFile_BoardBeforeRead(t *testing.T) {
	names := loader.NameTable{"600001": "*ST Foo"}
	s := New(builtin(t, "crash_recovery"), names, WithLoader(neverLoad(t)))

	for _, path := range []string{"/absent/300750.csv", "/absent/600001.csv", "/absent/688001.csv"} {
		o := s.ScreenFile(path)
		assert.Equal(t, core.SkipBoard, o.Skip, path)
	}
}

func TestScreenFile_InsufficientHistory(t *testing.T) {
	path := writeSymbol(t, t.TempDir(), "600000", 30, 12, 0)

	o := New(builtin(t, "crash_recovery"), nil).ScreenFile(path)
	assert.Equal(t, core.SkipInsufficientHistory, o.Skip)
}

func TestScreenFile_WeeklyHistory(t *testing.T) {
	// 100 weekdays are 20 weeks, short of the 30 weekly bars required
	path := writeSymbol(t, t.TempDir(), "600000", 100, 12, 0)

	o := New(builtin(t, "weekly_box_breakout"), nil).ScreenFile(path)
	assert.Equal(t, core.SkipInsufficientHistory, o.Skip)
}

func TestScreenFile_FileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "600002.csv")
	require.NoError(t, os.WriteFile(bad, []byte("date,open,high,low,close,volume\n2024-01-02,1,1,1,x,1\n"), 0o644))
	noTurnover := writeSymbol(t, dir, "600003", 80, 12, 0)

	s := New(uptrend(t), nil)

	o := s.ScreenFile(filepath.Join(dir, "600001.csv"))
	assert.Equal(t, core.SkipReadFailed, o.Skip)
	assert.Error(t, o.Err)

	o = s.ScreenFile(bad)
	assert.Equal(t, core.SkipMalformed, o.Skip)

	o = New(builtin(t, "oversold_rotation"), nil).ScreenFile(noTurnover)
	assert.Equal(t, core.SkipMissingColumn, o.Skip)
}

func TestScreenFile_NoSignal(t *testing.T) {
	path := writeSymbol(t, t.TempDir(), "600000", 30, 12, 0)

	o := New(uptrend(t), nil).ScreenFile(path)
	assert.Equal(t, core.SkipNoSignal, o.Skip)
}

func TestScreenFile_RecoversPanic(t *testing.T) {
	s := New(uptrend(t), nil, WithLoader(func(string, string, []string) (core.Series, error) {
		panic("boom")
	}))

	o := s.ScreenFile("/data/600000.csv")
	assert.Equal(t, core.SkipMalformed, o.Skip)
	assert.ErrorContains(t, o.Err, "boom")
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSymbol(t, dir, "600000", 30, 10, 0.1)
	writeSymbol(t, dir, "000001", 30, 8, 0.2)
	writeSymbol(t, dir, "600003", 30, 12, 0)
	writeSymbol(t, dir, "300001", 30, 10, 0.1)
	writeSymbol(t, dir, "600004", 30, 30, 0.1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "600005.csv"), []byte("garbage"), 0o644))
	return dir
}

func TestRun(t *testing.T) {
	files, err := loader.SymbolFiles(fixtureDir(t))
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	sum, err := New(uptrend(t), nil, WithWorkers(3), WithMetrics(reg)).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, "uptrend", sum.Tactic)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 2, sum.Admitted())
	assert.Equal(t, "000001", sum.Results[0].Code)
	assert.Equal(t, "600000", sum.Results[1].Code)
	assert.Equal(t, map[core.SkipReason]int{
		core.SkipNoSignal:      1,
		core.SkipBoard:         1,
		core.SkipPriceBand:     1,
		core.SkipMissingColumn: 1,
	}, sum.Skips)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestRun_Deterministic(t *testing.T) {
	files, err := loader.SymbolFiles(fixtureDir(t))
	require.NoError(t, err)
	tc := uptrend(t)

	one, err := New(tc, nil, WithWorkers(1)).Run(context.Background(), files)
	require.NoError(t, err)

	reversed := make([]string, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}
	many, err := New(tc, nil, WithWorkers(8)).Run(context.Background(), reversed)
	require.NoError(t, err)

	assert.Equal(t, one.Results, many.Results)
	assert.Equal(t, one.Skips, many.Skips)
}

func TestRun_Empty(t *testing.T) {
	files, err := loader.SymbolFiles(t.TempDir())
	require.NoError(t, err)

	sum, err := New(uptrend(t), nil).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.Results)
}

func TestRun_Cancelled(t *testing.T) {
	files, err := loader.SymbolFiles(fixtureDir(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(uptrend(t), nil).Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}
