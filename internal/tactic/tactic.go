// Package tactic defines screening tactics as data: hard filters, numeric
// gates, scored rule groups and a tier table, decoded from YAML.
package tactic

import (
	"github.com/newthinker/zhanfa/internal/core"
)

// Policy decides what a failing gate does
type Policy string

const (
	// PolicyStrict rejects the symbol on the first failing gate
	PolicyStrict Policy = "strict"
	// PolicyTiered subtracts the gate's penalty and lets the tier table decide
	PolicyTiered Policy = "tiered"
)

// Tactic is a complete screening rule set
type Tactic struct {
	Name          string         `yaml:"name"`
	Title         string         `yaml:"title"`
	Description   string         `yaml:"description"`
	Timeframe     core.Timeframe `yaml:"timeframe"`
	MinBars       int            `yaml:"min_bars"`
	MinWeeklyBars int            `yaml:"min_weekly_bars"`
	Require       []string       `yaml:"require"`
	Board         Board          `yaml:"board"`
	Price         PriceBand      `yaml:"price"`
	Policy        Policy         `yaml:"policy"`
	Gates         []Gate         `yaml:"gates"`
	BaseScore     int            `yaml:"base_score"`
	Rules         []Rule         `yaml:"rules"`
	Tiers         []Tier         `yaml:"tiers"`
	Sort          []SortKey      `yaml:"sort"`
	TopN          int            `yaml:"top_n"`
	Columns       []Column       `yaml:"columns"`

	// Source marks where the definition came from ("builtin" or a file path)
	Source string `yaml:"-"`
}

// Board is the static code-prefix and name rule applied before any data is read
type Board struct {
	AllowPrefixes    []string `yaml:"allow_prefixes"`
	DenyPrefixes     []string `yaml:"deny_prefixes"`
	DenyNameKeywords []string `yaml:"deny_name_keywords"`
}

// PriceBand bounds the latest close. A zero Max means no upper bound.
type PriceBand struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Gate is a numeric requirement evaluated after the hard filters
type Gate struct {
	Require Clause `yaml:"require"`
	Label   string `yaml:"label"`
	Penalty int    `yaml:"penalty"` // tiered policy only
}

// Rule is a group of mutually exclusive branches; the first branch whose
// clauses all hold contributes its points.
type Rule struct {
	Name     string   `yaml:"name"`
	Required bool     `yaml:"required"`
	Branches []Branch `yaml:"branches"`
}

// Branch is one scored alternative of a rule
type Branch struct {
	Label  string   `yaml:"label"`
	Points int      `yaml:"points"`
	When   []Clause `yaml:"when"`
	Advice string   `yaml:"advice"` // overrides the tier advice when set
}

// Tier maps a score range to a strength label and advisory text
type Tier struct {
	Min    int      `yaml:"min"`
	When   []Clause `yaml:"when"`
	Label  string   `yaml:"label"`
	Advice string   `yaml:"advice"`
}

// SortKey orders the report
type SortKey struct {
	By   string `yaml:"by"`
	Desc bool   `yaml:"desc"`
}

// Column is one report column
type Column struct {
	Key       string `yaml:"key"`
	Header    string `yaml:"header"`
	Precision *int   `yaml:"precision"`
	Percent   bool   `yaml:"percent"` // multiply by 100 and append "%"
	Suffix    string `yaml:"suffix"`
}

// Builtin report fields usable as column and sort keys
const (
	FieldCode      = "code"
	FieldName      = "name"
	FieldDate      = "date"
	FieldClose     = "close"
	FieldPctChange = "pct_change"
	FieldScore     = "score"
	FieldTier      = "tier"
	FieldAdvice    = "advice"
	FieldSignals   = "signals"
)

var builtinFields = map[string]bool{
	FieldCode: true, FieldName: true, FieldDate: true, FieldClose: true, FieldPctChange: true,
	FieldScore: true, FieldTier: true, FieldAdvice: true, FieldSignals: true,
}

// IsField reports whether key is a builtin report field rather than a feature
func IsField(key string) bool {
	return builtinFields[key]
}

// Weekly reports whether the tactic evaluates resampled weekly bars
func (t *Tactic) Weekly() bool {
	return t.Timeframe == core.TimeframeWeekly
}

// RequiredColumns returns the optional source columns the tactic needs,
// combining its explicit list with those implied by referenced features.
func (t *Tactic) RequiredColumns() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(cols ...string) {
		for _, c := range cols {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	add(t.Require...)
	for _, c := range t.clauses() {
		for _, op := range []Operand{c.Left, c.Right} {
			if op.Ref != nil {
				add(op.Ref.RequiredColumns()...)
			}
		}
	}
	return out
}

func (t *Tactic) clauses() []Clause {
	var out []Clause
	for _, g := range t.Gates {
		out = append(out, g.Require)
	}
	for _, r := range t.Rules {
		for _, b := range r.Branches {
			out = append(out, b.When...)
		}
	}
	for _, tier := range t.Tiers {
		out = append(out, tier.When...)
	}
	return out
}
