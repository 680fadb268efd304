package schema

import "github.com/spf13/cast"

// BooleanType is a true/false flag.
type BooleanType struct {
	base
}

// NewBoolean builds a boolean type bound to path.
func NewBoolean(path string, opts Options) *BooleanType {
	t := &BooleanType{base: newBase(path, Boolean, opts)}
	t.registerBase(t)
	return t
}

func (t *BooleanType) Name() string { return string(Boolean) }

func (t *BooleanType) Cast(value any, _ any) any {
	v := t.applyDefault(value)
	if isEmpty(v) {
		return v
	}
	if b, ok := v.(bool); ok {
		return b
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return v
	}
	return b
}

func (t *BooleanType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}
	if _, ok := v.(bool); !ok {
		return nil, invalid(t.path, "must be a boolean", v)
	}
	return v, nil
}

func (t *BooleanType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	ba, okA := a.(bool)
	bb, okB := b.(bool)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	return compareBools(ba, bb)
}

func (t *BooleanType) Parse(stored any, _ any) any { return stored }

func (t *BooleanType) Value(value any, _ any) any { return value }

func (t *BooleanType) Match(value, query any, _ any) bool {
	return EqualValues(value, query)
}
