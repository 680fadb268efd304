package schema

// ObjectType is a nested document. It owns a sub-tree whose paths are
// relative to the object.
type ObjectType struct {
	base
	tree *PathTree
}

// NewObject builds an object type bound to path. A nil tree is an object with
// no declared children.
func NewObject(path string, tree *PathTree, opts Options) *ObjectType {
	if tree == nil {
		tree = NewPathTree()
	}
	t := &ObjectType{base: newBase(path, Object, opts), tree: tree}
	t.registerBase(t)
	return t
}

// Tree returns the relative sub-tree.
func (t *ObjectType) Tree() *PathTree { return t.tree }

func (t *ObjectType) Name() string { return string(Object) }

// Cast fills an absent object with a fresh map, then casts every direct child
// in place.
func (t *ObjectType) Cast(value any, doc any) any {
	v := t.applyDefault(value)
	if IsUndefined(v) {
		v = map[string]any{}
	}
	if v == nil {
		return nil
	}

	m, ok := asMap(v)
	if !ok {
		return v
	}
	for _, key := range t.tree.Fields() {
		child, _ := t.tree.Get(key)
		cur, present := m[key]
		if !present {
			cur = Undefined
		}
		out := child.Cast(cur, doc)
		if !IsUndefined(out) {
			m[key] = out
		}
	}
	return m
}

func (t *ObjectType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}

	m, ok := asMap(v)
	if !ok {
		return nil, invalid(t.path, "must be an object", v)
	}
	for _, key := range t.tree.Fields() {
		child, _ := t.tree.Get(key)
		cur, present := m[key]
		if !present {
			cur = Undefined
		}
		out, err := child.Validate(cur, doc)
		if err != nil {
			return nil, err
		}
		if present || !isEmpty(out) {
			m[key] = out
		}
	}
	return m, nil
}

func (t *ObjectType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	ma, okA := asMap(a)
	mb, okB := asMap(b)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	for _, key := range t.tree.Fields() {
		child, _ := t.tree.Get(key)
		if c := child.Compare(lookup(ma, key), lookup(mb, key)); c != 0 {
			return c
		}
	}
	return CompareValues(ma, mb)
}

func (t *ObjectType) Parse(stored any, doc any) any {
	return t.convert(stored, func(child Type, v any) any { return child.Parse(v, doc) })
}

func (t *ObjectType) Value(value any, doc any) any {
	return t.convert(value, func(child Type, v any) any { return child.Value(v, doc) })
}

// convert copies a map, passing declared children through fn. Empty input
// yields an empty map.
func (t *ObjectType) convert(v any, fn func(Type, any) any) any {
	if isEmpty(v) {
		return map[string]any{}
	}
	m, ok := asMap(v)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	for _, key := range t.tree.Fields() {
		val, present := m[key]
		if !present {
			continue
		}
		child, _ := t.tree.Get(key)
		out[key] = fn(child, val)
	}
	return out
}

func (t *ObjectType) Match(value, query any, doc any) bool {
	if isEmpty(value) || isEmpty(query) {
		return EqualValues(value, query)
	}
	mv, okV := asMap(value)
	mq, okQ := asMap(query)
	if !okV || !okQ {
		return false
	}

	declared := make(map[string]bool)
	for _, key := range t.tree.Fields() {
		declared[key] = true
		child, _ := t.tree.Get(key)
		if !child.Match(lookup(mv, key), lookup(mq, key), doc) {
			return false
		}
	}
	for _, m := range []map[string]any{mv, mq} {
		for key := range m {
			if declared[key] {
				continue
			}
			if !EqualValues(lookup(mv, key), lookup(mq, key)) {
				return false
			}
		}
	}
	return true
}

func lookup(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	return Undefined
}
