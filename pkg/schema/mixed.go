package schema

// MixedType accepts any value without coercion.
type MixedType struct {
	base
}

// NewMixed builds a mixed type bound to path.
func NewMixed(path string, opts Options) *MixedType {
	t := &MixedType{base: newBase(path, Mixed, opts)}
	t.registerBase(t)
	return t
}

func (t *MixedType) Name() string { return string(Mixed) }

func (t *MixedType) Cast(value any, _ any) any { return t.applyDefault(value) }

func (t *MixedType) Validate(value any, doc any) (any, error) {
	return t.validateBase(value, doc)
}

func (t *MixedType) Compare(a, b any) int { return CompareValues(a, b) }

func (t *MixedType) Parse(stored any, _ any) any { return stored }

func (t *MixedType) Value(value any, _ any) any { return value }

func (t *MixedType) Match(value, query any, _ any) bool {
	return EqualValues(value, query)
}
