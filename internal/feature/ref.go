// Package feature resolves named indicator references against a symbol's
// bar history.
package feature

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/zhanfa/internal/core"
)

// Ref is a parsed feature reference of the form name[@back], for example
// "rsi14", "ma60@1" or "close".
type Ref struct {
	Base   string // catalog entry, e.g. "rsi"
	Period int    // 0 for fixed features
	Back   int    // bars before the latest
}

var refPattern = regexp.MustCompile(`^([a-z_]+?)(\d*)$`)

// Parse validates s against the catalog
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	name, back := s, 0
	if i := strings.IndexByte(s, '@'); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil || n < 0 {
			return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("bad offset in %q", s))
		}
		name, back = s[:i], n
	}

	m := refPattern.FindStringSubmatch(name)
	if m == nil {
		return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("%q", s))
	}
	base, digits := m[1], m[2]

	entry, ok := catalog[base]
	if !ok {
		return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("%q", s))
	}

	ref := Ref{Base: base, Back: back}
	switch {
	case entry.parametric && digits == "":
		return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("%q needs a period, e.g. %s14", s, base))
	case !entry.parametric && digits != "":
		return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("%q takes no period", s))
	case entry.parametric:
		p, _ := strconv.Atoi(digits)
		if p <= 0 {
			return Ref{}, core.WrapError(core.ErrUnknownFeature, fmt.Errorf("%q period must be positive", s))
		}
		ref.Period = p
	}
	return ref, nil
}

// MustParse is Parse for constant references
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Key identifies the column a reference reads, without the offset
func (r Ref) Key() string {
	if r.Period > 0 {
		return r.Base + strconv.Itoa(r.Period)
	}
	return r.Base
}

func (r Ref) String() string {
	if r.Back > 0 {
		return r.Key() + "@" + strconv.Itoa(r.Back)
	}
	return r.Key()
}

// Lookback is the number of bars the reference needs to be meaningful
func (r Ref) Lookback() int {
	return r.Period + r.Back
}
