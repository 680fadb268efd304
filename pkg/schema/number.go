package schema

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// NumberType stores numbers as float64.
type NumberType struct {
	base
}

// NewNumber builds a number type bound to path.
func NewNumber(path string, opts Options) *NumberType {
	t := &NumberType{base: newBase(path, Number, opts)}
	t.registerBase(t)

	t.update[OpInc] = func(v, operand, _ any) any {
		cur, _ := toNumber(v)
		delta, ok := toNumber(operand)
		if !ok {
			return v
		}
		return cur + delta
	}
	t.update[OpMul] = func(v, operand, _ any) any {
		cur, _ := toNumber(v)
		factor, ok := toNumber(operand)
		if !ok {
			return v
		}
		return cur * factor
	}
	t.update[OpMin] = func(v, operand, _ any) any {
		if isEmpty(v) || t.Compare(operand, v) < 0 {
			return t.Cast(operand, nil)
		}
		return v
	}
	t.update[OpMax] = func(v, operand, _ any) any {
		if isEmpty(v) || t.Compare(operand, v) > 0 {
			return t.Cast(operand, nil)
		}
		return v
	}
	return t
}

func (t *NumberType) Name() string { return string(Number) }

func (t *NumberType) Cast(value any, _ any) any {
	v := t.applyDefault(value)
	if isEmpty(v) {
		return v
	}
	if n, ok := toNumber(v); ok {
		return n
	}
	input := v
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		input = s
	}
	n, err := cast.ToFloat64E(input)
	if err != nil {
		return v
	}
	return n
}

func (t *NumberType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}

	n, ok := toNumber(v)
	if !ok || math.IsNaN(n) {
		return nil, invalid(t.path, "must be a number", v)
	}
	if t.opts.Min != nil && n < *t.opts.Min {
		return nil, invalid(t.path, fmt.Sprintf("must be at least %v", *t.opts.Min), v)
	}
	if t.opts.Max != nil && n > *t.opts.Max {
		return nil, invalid(t.path, fmt.Sprintf("must be at most %v", *t.opts.Max), v)
	}
	return n, nil
}

func (t *NumberType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	fa, okA := toNumber(a)
	fb, okB := toNumber(b)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	return cmp.Compare(fa, fb)
}

func (t *NumberType) Parse(stored any, _ any) any {
	if n, ok := toNumber(stored); ok {
		return n
	}
	return stored
}

func (t *NumberType) Value(value any, _ any) any { return value }

func (t *NumberType) Match(value, query any, _ any) bool {
	return EqualValues(value, query)
}
