package schema

import "strings"

// root wraps the top-level tree in an object type so documents traverse the
// same way nested objects do.
func (s *Schema) root() *ObjectType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewObject("", s.tree, Options{})
}

// Cast casts every stored path of doc in place and returns it. A nil doc is
// replaced by a new map.
func (s *Schema) Cast(doc map[string]any) map[string]any {
	if doc == nil {
		doc = map[string]any{}
	}
	s.root().Cast(doc, doc)
	return doc
}

// Validate validates doc in place. It stops at the first failing path and
// returns its *ValidationError unchanged.
func (s *Schema) Validate(doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	_, err := s.root().Validate(doc, doc)
	return err
}

// Value returns the persisted form of doc. doc itself is left unchanged.
func (s *Schema) Value(doc map[string]any) map[string]any {
	out, _ := s.root().Value(doc, doc).(map[string]any)
	return out
}

// Parse returns the in-memory form of a persisted document.
func (s *Schema) Parse(stored map[string]any) map[string]any {
	out, _ := s.root().Parse(stored, stored).(map[string]any)
	return out
}

// Get reads path from doc. Virtual paths are computed through their getter.
func (s *Schema) Get(doc map[string]any, path string) any {
	if t, ok := s.Path(path); ok {
		if v, isVirtual := t.(*VirtualType); isVirtual {
			return v.Get(doc)
		}
	}
	return GetPath(doc, path)
}

// Set casts value through the type bound to path and writes it into doc.
// Virtual paths go through their setter; undeclared paths are written as is.
func (s *Schema) Set(doc map[string]any, path string, value any) error {
	t, ok := s.Path(path)
	if !ok {
		return SetPath(doc, path, value)
	}
	if v, isVirtual := t.(*VirtualType); isVirtual {
		return v.Set(doc, value)
	}
	return SetPath(doc, path, t.Cast(value, doc))
}

// GetPath reads a dotted path from doc. A missing path is Undefined.
func GetPath(doc map[string]any, path string) any {
	var cur any = doc
	for _, key := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return Undefined
		}
		next, present := m[key]
		if !present {
			return Undefined
		}
		cur = next
	}
	return cur
}

// SetPath writes value at a dotted path, creating intermediate maps. Writing
// Undefined removes the path.
func SetPath(doc map[string]any, path string, value any) error {
	if IsUndefined(value) {
		UnsetPath(doc, path)
		return nil
	}
	keys := strings.Split(path, ".")
	m := doc
	for i, key := range keys[:len(keys)-1] {
		next, present := m[key]
		if !present || next == nil {
			child := map[string]any{}
			m[key] = child
			m = child
			continue
		}
		child, ok := asMap(next)
		if !ok {
			return typeErrorf("set", "path %q: %q is not an object", path, strings.Join(keys[:i+1], "."))
		}
		m[key] = child
		m = child
	}
	m[keys[len(keys)-1]] = value
	return nil
}

// UnsetPath removes a dotted path from doc. Missing paths are ignored.
func UnsetPath(doc map[string]any, path string) {
	keys := strings.Split(path, ".")
	m := doc
	for _, key := range keys[:len(keys)-1] {
		child, ok := asMap(m[key])
		if !ok {
			return
		}
		m[key] = child
		m = child
	}
	delete(m, keys[len(keys)-1])
}
