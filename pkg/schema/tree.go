package schema

import "strings"

// PathTree maps dotted paths to types and remembers insertion order.
// Intermediate objects are stored under their own path next to their
// descendants, so "a" and "a.b" are both addressable. A nil tree reads as
// empty.
type PathTree struct {
	types map[string]Type
	order []string
}

// NewPathTree creates an empty tree.
func NewPathTree() *PathTree {
	return &PathTree{types: make(map[string]Type)}
}

// Get returns the type bound to path.
func (p *PathTree) Get(path string) (Type, bool) {
	if p == nil {
		return nil, false
	}
	t, ok := p.types[path]
	return t, ok
}

// Set binds path to t. Overwriting keeps the original position.
func (p *PathTree) Set(path string, t Type) {
	if _, exists := p.types[path]; !exists {
		p.order = append(p.order, path)
	}
	p.types[path] = t
}

// Paths returns every path in insertion order.
func (p *PathTree) Paths() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of paths.
func (p *PathTree) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Fields returns the top-level stored paths (no dot, not virtual) in
// insertion order. These drive document traversal.
func (p *PathTree) Fields() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, 0, len(p.order))
	for _, path := range p.order {
		if strings.Contains(path, ".") {
			continue
		}
		if p.types[path].Kind() == Virtual {
			continue
		}
		out = append(out, path)
	}
	return out
}

// clone copies the tree so a merged object never shares its sub-tree.
func (p *PathTree) clone() *PathTree {
	out := NewPathTree()
	if p == nil {
		return out
	}
	for _, path := range p.order {
		out.Set(path, p.types[path])
	}
	return out
}
