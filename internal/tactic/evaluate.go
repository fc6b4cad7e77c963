package tactic

import (
	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/feature"
)

// Verdict is the outcome of gates, rules and tiers for one symbol
type Verdict struct {
	Skip    core.SkipReason
	Score   int
	Tier    string
	Advice  string
	Signals []string
}

// Admitted reports whether a tier was assigned
func (v Verdict) Admitted() bool {
	return v.Skip == core.SkipNone
}

// Evaluate runs the gates, scores the rule groups and picks a tier using the
// frame's latest bar. Hard filters are not part of Evaluate.
func (t *Tactic) Evaluate(f *feature.Frame) Verdict {
	v := Verdict{Score: t.BaseScore}

	for _, g := range t.Gates {
		ok, det := g.Require.Eval(f)
		if ok {
			continue
		}
		if t.Policy == PolicyTiered {
			v.Score -= g.Penalty
			continue
		}
		if !det {
			v.Skip = core.SkipIndeterminate
		} else {
			v.Skip = core.SkipGate
		}
		return v
	}

	var branchAdvice string
	for _, r := range t.Rules {
		matched := false
		for _, b := range r.Branches {
			ok, _ := allHold(f, b.When)
			if !ok {
				continue
			}
			matched = true
			v.Score += b.Points
			if b.Label != "" {
				v.Signals = append(v.Signals, b.Label)
			}
			if b.Advice != "" {
				branchAdvice = b.Advice
			}
			break
		}
		if !matched && r.Required {
			v.Skip = core.SkipNoSignal
			return v
		}
	}

	tier, ok := t.pickTier(f, v.Score)
	if !ok {
		v.Skip = core.SkipBelowThreshold
		return v
	}
	v.Tier = tier.Label
	v.Advice = tier.Advice
	if branchAdvice != "" {
		v.Advice = branchAdvice
	}
	return v
}

func (t *Tactic) pickTier(f *feature.Frame, score int) (Tier, bool) {
	for _, tier := range t.Tiers {
		if score < tier.Min {
			continue
		}
		if ok, _ := allHold(f, tier.When); ok {
			return tier, true
		}
	}
	return Tier{}, false
}

// SnapshotRefs lists the feature references the report needs: every
// non-builtin column and sort key.
func (t *Tactic) SnapshotRefs() []feature.Ref {
	seen := make(map[string]bool)
	var refs []feature.Ref
	add := func(key string) {
		if IsField(key) || seen[key] {
			return
		}
		ref, err := feature.Parse(key)
		if err != nil {
			return
		}
		seen[key] = true
		refs = append(refs, ref)
	}
	for _, c := range t.Columns {
		add(c.Key)
	}
	for _, s := range t.Sort {
		add(s.By)
	}
	return refs
}

// Snapshot reads the report features at the latest bar. Unavailable values
// are stored as NaN.
func (t *Tactic) Snapshot(f *feature.Frame) map[string]float64 {
	refs := t.SnapshotRefs()
	out := make(map[string]float64, len(refs))
	for _, r := range refs {
		v, _ := f.Value(r)
		out[r.String()] = v
	}
	return out
}
