package tactic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newthinker/zhanfa/internal/feature"
	"gopkg.in/yaml.v3"
)

// Operand is a feature reference or a constant
type Operand struct {
	Ref   *feature.Ref
	Const float64
}

// Value resolves the operand against the frame
func (o Operand) Value(f *feature.Frame) (float64, bool) {
	if o.Ref == nil {
		return o.Const, true
	}
	return f.Value(*o.Ref)
}

func (o Operand) String() string {
	if o.Ref != nil {
		return o.Ref.String()
	}
	return strconv.FormatFloat(o.Const, 'f', -1, 64)
}

func parseOperand(s string) (Operand, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Operand{Const: v}, nil
	}
	ref, err := feature.Parse(s)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Ref: &ref}, nil
}

// Op is a comparison operator
type Op string

const (
	OpLT Op = "<"
	OpLE Op = "<="
	OpGT Op = ">"
	OpGE Op = ">="
	OpEQ Op = "=="
	OpNE Op = "!="
)

func (op Op) apply(a, b float64) bool {
	switch op {
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	}
	return false
}

// Clause compares two operands, the right one optionally scaled:
//
//	rsi14 < 30
//	volume <= vma5 * 0.7
//	ma60 >= ma60@1 * 0.998
type Clause struct {
	Left  Operand
	Op    Op
	Right Operand
	Scale float64
}

// ParseClause parses the textual clause form
func ParseClause(s string) (Clause, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 && len(fields) != 5 {
		return Clause{}, fmt.Errorf("clause %q: want \"a op b\" or \"a op b * k\"", s)
	}

	c := Clause{Op: Op(fields[1]), Scale: 1}
	switch c.Op {
	case OpLT, OpLE, OpGT, OpGE, OpEQ, OpNE:
	default:
		return Clause{}, fmt.Errorf("clause %q: unknown operator %q", s, fields[1])
	}

	var err error
	if c.Left, err = parseOperand(fields[0]); err != nil {
		return Clause{}, fmt.Errorf("clause %q: %w", s, err)
	}
	if c.Right, err = parseOperand(fields[2]); err != nil {
		return Clause{}, fmt.Errorf("clause %q: %w", s, err)
	}
	if len(fields) == 5 {
		if fields[3] != "*" {
			return Clause{}, fmt.Errorf("clause %q: only \"*\" scaling is supported", s)
		}
		if c.Scale, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return Clause{}, fmt.Errorf("clause %q: bad scale: %w", s, err)
		}
	}
	return c, nil
}

// MustClause is ParseClause for literals
func MustClause(s string) Clause {
	c, err := ParseClause(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Eval compares the operands at the frame's latest bar. determinate is false
// when either side is unavailable; ok is then always false.
func (c Clause) Eval(f *feature.Frame) (ok, determinate bool) {
	a, okA := c.Left.Value(f)
	b, okB := c.Right.Value(f)
	if !okA || !okB {
		return false, false
	}
	return c.Op.apply(a, b*c.Scale), true
}

func (c Clause) String() string {
	s := c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
	if c.Scale != 1 {
		s += " * " + strconv.FormatFloat(c.Scale, 'f', -1, 64)
	}
	return s
}

// UnmarshalYAML decodes the textual form
func (c *Clause) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: clause must be a string: %w", node.Line, err)
	}
	parsed, err := ParseClause(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes the textual form
func (c Clause) MarshalYAML() (any, error) {
	return c.String(), nil
}

// allHold evaluates clauses as a conjunction
func allHold(f *feature.Frame, clauses []Clause) (ok, determinate bool) {
	for _, c := range clauses {
		ok, det := c.Eval(f)
		if !det {
			return false, false
		}
		if !ok {
			return false, true
		}
	}
	return true, true
}
