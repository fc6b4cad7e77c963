package tactic

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/feature"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// SourceBuiltin marks tactics compiled into the binary
const SourceBuiltin = "builtin"

// Decode reads one tactic definition and validates it
func Decode(r io.Reader) (*Tactic, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Tactic
	if err := dec.Decode(&t); err != nil {
		return nil, core.WrapError(core.ErrTacticInvalid, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads a tactic definition from disk
func LoadFile(p string) (*Tactic, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading tactic %s: %w", p, err)
	}
	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tactic %s: %w", p, err)
	}
	t.Source = p
	return t, nil
}

// LoadDir reads every *.yaml and *.yml file in dir, sorted by file name
func LoadDir(dir string) ([]*Tactic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tactic dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tactics := make([]*Tactic, 0, len(names))
	for _, n := range names {
		t, err := LoadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		tactics = append(tactics, t)
	}
	return tactics, nil
}

// Builtins decodes the tactics embedded in the binary
func Builtins() ([]*Tactic, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	tactics := make([]*Tactic, 0, len(entries))
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, err
		}
		t, err := Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		t.Source = SourceBuiltin
		tactics = append(tactics, t)
	}
	return tactics, nil
}

// Validate checks the definition and normalizes column and sort keys
func (t *Tactic) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrTacticInvalid, fmt.Errorf("%s: "+format, append([]any{t.Name}, args...)...))
	}

	if t.Name == "" {
		return core.WrapError(core.ErrTacticInvalid, fmt.Errorf("name is required"))
	}
	switch t.Timeframe {
	case "":
		t.Timeframe = core.TimeframeDaily
	case core.TimeframeDaily, core.TimeframeWeekly:
	default:
		return invalid("unknown timeframe %q", t.Timeframe)
	}
	if t.MinBars <= 0 {
		return invalid("min_bars must be positive")
	}
	if t.Weekly() && t.MinWeeklyBars <= 0 {
		return invalid("weekly tactics need min_weekly_bars")
	}
	if t.Price.Min < 0 || (t.Price.Max > 0 && t.Price.Max < t.Price.Min) {
		return invalid("price band [%g, %g] is invalid", t.Price.Min, t.Price.Max)
	}
	switch t.Policy {
	case "":
		t.Policy = PolicyStrict
	case PolicyStrict, PolicyTiered:
	default:
		return invalid("unknown policy %q", t.Policy)
	}
	for _, col := range t.Require {
		if col != "turnover" && col != "pct_change" {
			return invalid("cannot require column %q", col)
		}
	}
	for _, r := range t.Rules {
		if len(r.Branches) == 0 {
			return invalid("rule %q has no branches", r.Name)
		}
	}

	if len(t.Tiers) == 0 {
		return invalid("at least one tier is required")
	}
	for i := 1; i < len(t.Tiers); i++ {
		if t.Tiers[i].Min > t.Tiers[i-1].Min {
			return invalid("tiers must be ordered by descending min")
		}
	}
	for _, tier := range t.Tiers {
		if tier.Label == "" {
			return invalid("tier with min %d has no label", tier.Min)
		}
	}

	if t.TopN < 0 {
		return invalid("top_n cannot be negative")
	}

	normalize := func(key string) (string, error) {
		key = strings.ToLower(strings.TrimSpace(key))
		if IsField(key) {
			return key, nil
		}
		ref, err := feature.Parse(key)
		if err != nil {
			return "", err
		}
		return ref.String(), nil
	}
	if len(t.Columns) == 0 {
		t.Columns = defaultColumns()
	}
	for i := range t.Columns {
		key, err := normalize(t.Columns[i].Key)
		if err != nil {
			return invalid("column: %v", err)
		}
		t.Columns[i].Key = key
		if p := t.Columns[i].Precision; p != nil && *p < 0 {
			return invalid("column %q: precision cannot be negative", key)
		}
		if t.Columns[i].Header == "" {
			t.Columns[i].Header = key
		}
	}
	if len(t.Sort) == 0 {
		t.Sort = []SortKey{{By: FieldScore, Desc: true}}
	}
	for i := range t.Sort {
		key, err := normalize(t.Sort[i].By)
		if err != nil {
			return invalid("sort: %v", err)
		}
		switch key {
		case FieldName, FieldTier, FieldAdvice, FieldSignals:
			return invalid("cannot sort by %q", key)
		}
		t.Sort[i].By = key
	}
	return nil
}

func defaultColumns() []Column {
	return []Column{
		{Key: FieldCode}, {Key: FieldName}, {Key: FieldDate}, {Key: FieldClose},
		{Key: FieldPctChange}, {Key: FieldScore}, {Key: FieldTier}, {Key: FieldAdvice},
		{Key: FieldSignals},
	}
}
