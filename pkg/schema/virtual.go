package schema

// VirtualType is a computed path. It has no stored representation: document
// traversal skips it and its stored-value operations are identities.
type VirtualType struct {
	base
	getter GetterFunc
	setter SetterFunc
}

// VirtualOption configures a virtual path.
type VirtualOption func(*VirtualType)

// WithGetter sets the function computing the virtual value.
func WithGetter(fn GetterFunc) VirtualOption {
	return func(v *VirtualType) {
		v.getter = fn
	}
}

// WithSetter sets the function applying a written virtual value.
func WithSetter(fn SetterFunc) VirtualOption {
	return func(v *VirtualType) {
		v.setter = fn
	}
}

// NewVirtual builds a virtual path.
func NewVirtual(path string, opts ...VirtualOption) *VirtualType {
	t := &VirtualType{base: newBase(path, Virtual, Options{})}
	for _, opt := range opts {
		opt(t)
	}
	t.registerBase(t)
	return t
}

func (t *VirtualType) Name() string { return string(Virtual) }

// Get computes the value for doc. Without a getter it is Undefined.
func (t *VirtualType) Get(doc any) any {
	if t.getter == nil {
		return Undefined
	}
	return t.getter(doc)
}

// Set hands value to the setter. Without a setter it is a *TypeError.
func (t *VirtualType) Set(doc any, value any) error {
	if t.setter == nil {
		return typeErrorf("set", "virtual path %q has no setter", t.path)
	}
	return t.setter(doc, value)
}

func (t *VirtualType) Cast(value any, _ any) any { return value }

func (t *VirtualType) Validate(value any, _ any) (any, error) { return value, nil }

func (t *VirtualType) Compare(a, b any) int { return CompareValues(a, b) }

func (t *VirtualType) Parse(stored any, _ any) any { return stored }

func (t *VirtualType) Value(value any, _ any) any { return value }

func (t *VirtualType) Match(value, query any, _ any) bool {
	return EqualValues(value, query)
}
