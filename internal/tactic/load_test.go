package tactic

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalTactic = `
name: quiet
min_bars: 20
rules:
  - name: rsi
    branches:
      - label: oversold
        points: 10
        when: ["rsi6 < 20"]
tiers:
  - min: 10
    label: hit
sort:
  - by: RSI6
columns:
  - key: code
  - key: RSI6
`

func TestDecode(t *testing.T) {
	tc, err := Decode(strings.NewReader(minimalTactic))
	require.NoError(t, err)

	assert.Equal(t, "quiet", tc.Name)
	assert.Equal(t, core.TimeframeDaily, tc.Timeframe)
	assert.Equal(t, PolicyStrict, tc.Policy)
	assert.Equal(t, "rsi6", tc.Sort[0].By)
	assert.Equal(t, "rsi6", tc.Columns[1].Key)
	assert.Equal(t, "rsi6", tc.Columns[1].Header)
}

func TestDecode_Defaults(t *testing.T) {
	tc, err := Decode(strings.NewReader("name: d\nmin_bars: 5\ntiers: [{min: 0, label: all}]\n"))
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{By: FieldScore, Desc: true}}, tc.Sort)
	require.Len(t, tc.Columns, len(defaultColumns()))
	for i, c := range defaultColumns() {
		assert.Equal(t, c.Key, tc.Columns[i].Key)
		assert.Equal(t, c.Key, tc.Columns[i].Header)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":      "name: x\nmin_bars: 5\nbogus: 1\ntiers: [{min: 0, label: a}]\n",
		"no name":            "min_bars: 5\ntiers: [{min: 0, label: a}]\n",
		"no min bars":        "name: x\ntiers: [{min: 0, label: a}]\n",
		"no tiers":           "name: x\nmin_bars: 5\n",
		"tier order":         "name: x\nmin_bars: 5\ntiers: [{min: 10, label: a}, {min: 20, label: b}]\n",
		"tier label":         "name: x\nmin_bars: 5\ntiers: [{min: 10}]\n",
		"weekly bars":        "name: x\ntimeframe: weekly\nmin_bars: 5\ntiers: [{min: 0, label: a}]\n",
		"timeframe":          "name: x\ntimeframe: hourly\nmin_bars: 5\ntiers: [{min: 0, label: a}]\n",
		"policy":             "name: x\npolicy: lax\nmin_bars: 5\ntiers: [{min: 0, label: a}]\n",
		"price band":         "name: x\nmin_bars: 5\nprice: {min: 20, max: 5}\ntiers: [{min: 0, label: a}]\n",
		"bad column":         "name: x\nmin_bars: 5\ncolumns: [{key: wat}]\ntiers: [{min: 0, label: a}]\n",
		"negative precision": "name: x\nmin_bars: 5\ncolumns: [{key: close, precision: -1}]\ntiers: [{min: 0, label: a}]\n",
		"sort by text":       "name: x\nmin_bars: 5\nsort: [{by: advice}]\ntiers: [{min: 0, label: a}]\n",
		"require column":     "name: x\nmin_bars: 5\nrequire: [amount]\ntiers: [{min: 0, label: a}]\n",
		"empty rule":         "name: x\nmin_bars: 5\nrules: [{name: r}]\ntiers: [{min: 0, label: a}]\n",
		"negative top_n":     "name: x\nmin_bars: 5\ntop_n: -1\ntiers: [{min: 0, label: a}]\n",
		"bad clause":         "name: x\nmin_bars: 5\ngates: [{require: \"close >\"}]\ntiers: [{min: 0, label: a}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrTacticInvalid), err.Error())
		})
	}
}

func TestBuiltins(t *testing.T) {
	tactics, err := Builtins()
	require.NoError(t, err)

	names := make([]string, 0, len(tactics))
	for _, tc := range tactics {
		names = append(names, tc.Name)
		assert.Equal(t, SourceBuiltin, tc.Source)
	}
	assert.ElementsMatch(t, []string{
		"crash_recovery", "dragon_breakout", "multidim_resonance",
		"oversold_rotation", "volume_price", "weekly_box_breakout",
	}, names)
}

func TestRequiredColumns(t *testing.T) {
	assert.Equal(t, []string{"turnover"}, builtin(t, "oversold_rotation").RequiredColumns())
	assert.Empty(t, builtin(t, "crash_recovery").RequiredColumns())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(minimalTactic), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	tactics, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, tactics, 1)
	assert.Equal(t, filepath.Join(dir, "b.yml"), tactics[0].Source)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: [broken"), 0o644))
	_, err = LoadDir(dir)
	assert.Error(t, err)
}
