package schema

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Declaration describes a tree of fields. Values may be:
//
//   - a bare type constructor: String, Number, ... or a kind name ("string")
//   - the bracket form of an array: "[string]"
//   - a Field, or a map with a "type" key: {type: T, required: true, ...}
//   - a slice: []any{} for an array of Mixed, []any{T} for an array of T
//   - a nested Declaration (or map) without "type": a nested object
//
// Keys are compiled in lexical order.
type Declaration map[string]any

// kindAliases maps accepted kind names onto kinds.
var kindAliases = map[string]Kind{
	"string":    String,
	"str":       String,
	"number":    Number,
	"int":       Number,
	"float":     Number,
	"boolean":   Boolean,
	"bool":      Boolean,
	"date":      Date,
	"time":      Date,
	"timestamp": Date,
	"objectid":  ObjectID,
	"uuid":      ObjectID,
	"mixed":     Mixed,
	"any":       Mixed,
	"array":     Array,
	"object":    Object,
}

// scope is an object sub-tree receiving the relative paths of its
// descendants.
type scope struct {
	prefix string
	tree   *PathTree
}

// compiler turns declarations into types. Every compiled type is emitted into
// each enclosing scope; objects are emitted before their descendants.
type compiler struct {
	root   *PathTree
	scopes []scope
}

func newCompiler(root *PathTree) *compiler {
	c := &compiler{root: root}
	if root != nil {
		c.scopes = []scope{{tree: root}}
	}
	return c
}

func (c *compiler) emit(path string, t Type) {
	for _, s := range c.scopes {
		if s.prefix == "" {
			s.tree.Set(path, t)
			continue
		}
		if rel, ok := strings.CutPrefix(path, s.prefix+"."); ok {
			s.tree.Set(rel, t)
		}
	}
}

func (c *compiler) compile(path string, spec any, opts Options) (Type, error) {
	t, err := c.build(path, spec, opts)
	if err != nil {
		return nil, err
	}
	if t.Kind() != Object {
		c.emit(path, t)
	}
	return t, nil
}

func (c *compiler) build(path string, spec any, opts Options) (Type, error) {
	switch s := spec.(type) {
	case nil:
		return nil, typeErrorf("add", "path %q: missing type", path)
	case Kind:
		return c.leaf(path, s, opts)
	case string:
		return c.named(path, s, opts)
	case Field:
		return c.field(path, s)
	case *Field:
		if s == nil {
			return nil, typeErrorf("add", "path %q: nil field", path)
		}
		return c.field(path, *s)
	}

	if m, ok := asMap(spec); ok {
		if typ, has := m["type"]; has {
			if _, nested := asMap(typ); !nested {
				f, err := decodeField(path, m)
				if err != nil {
					return nil, err
				}
				return c.field(path, f)
			}
		}
		return c.object(path, m, opts)
	}
	if elems, ok := asSlice(spec); ok {
		return c.array(path, elems, opts)
	}
	return nil, typeErrorf("add", "path %q: unsupported declaration %T", path, spec)
}

func (c *compiler) field(path string, f Field) (Type, error) {
	if f.Type == nil {
		return nil, typeErrorf("add", "path %q: field has no type", path)
	}
	return c.build(path, f.Type, f.Options)
}

// named resolves a kind name or the bracket array form.
func (c *compiler) named(path, name string, opts Options) (Type, error) {
	name = strings.TrimSpace(name)
	if inner, ok := strings.CutPrefix(name, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return nil, typeErrorf("add", "path %q: malformed array type %q", path, name)
		}
		if strings.TrimSpace(inner) == "" {
			return NewArray(path, nil, opts), nil
		}
		return c.array(path, []any{inner}, opts)
	}

	kind, ok := kindAliases[strings.ToLower(name)]
	if !ok {
		return nil, typeErrorf("add", "path %q: unsupported type %q", path, name)
	}
	return c.leaf(path, kind, opts)
}

func (c *compiler) leaf(path string, kind Kind, opts Options) (Type, error) {
	switch kind {
	case String:
		return NewString(path, opts)
	case Number:
		return NewNumber(path, opts), nil
	case Boolean:
		return NewBoolean(path, opts), nil
	case Date:
		return NewDate(path, opts), nil
	case ObjectID:
		return NewObjectID(path, opts), nil
	case Mixed:
		return NewMixed(path, opts), nil
	case Array:
		return NewArray(path, nil, opts), nil
	case Object:
		return c.object(path, nil, opts)
	case Virtual:
		return nil, typeErrorf("add", "path %q: declare virtual paths with Schema.Virtual", path)
	default:
		return nil, typeErrorf("add", "path %q: unsupported type %q", path, kind)
	}
}

// array compiles the element declaration in isolation: paths below an array
// element are not addressable from the root.
func (c *compiler) array(path string, elems []any, opts Options) (Type, error) {
	switch len(elems) {
	case 0:
		return NewArray(path, nil, opts), nil
	case 1:
		child, err := newCompiler(nil).compile(path, elems[0], Options{})
		if err != nil {
			return nil, err
		}
		return NewArray(path, child, opts), nil
	default:
		return nil, typeErrorf("add", "path %q: array declares %d element types, want at most 1", path, len(elems))
	}
}

// object emits the object itself, then compiles every child below it. An
// object re-declared over an existing one keeps the existing children that
// the new declaration does not mention.
func (c *compiler) object(path string, decl map[string]any, opts Options) (Type, error) {
	tree := NewPathTree()
	if c.root != nil {
		if prev, ok := c.root.Get(path); ok {
			if obj, ok := prev.(*ObjectType); ok {
				tree = obj.tree.clone()
			}
		}
	}

	obj := NewObject(path, tree, opts)
	c.emit(path, obj)

	c.scopes = append(c.scopes, scope{prefix: path, tree: tree})
	defer func() { c.scopes = c.scopes[:len(c.scopes)-1] }()

	for _, key := range sortedKeys(decl) {
		if key == "" || strings.Contains(key, ".") {
			return nil, typeErrorf("add", "path %q: invalid key %q", path, key)
		}
		if _, err := c.compile(path+"."+key, decl[key], Options{}); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// decodeField decodes the map form of a field declaration. Unknown option
// keys are rejected.
func decodeField(path string, m map[string]any) (Field, error) {
	raw := make(map[string]any, len(m))
	for k, v := range m {
		raw[k] = v
	}

	var validator ValidatorFunc
	for _, key := range []string{"validate", "validator"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		switch fn := v.(type) {
		case ValidatorFunc:
			validator = fn
		case func(any, any) (any, error):
			validator = fn
		default:
			return Field{}, typeErrorf("add", "path %q: %s must be a function, got %T", path, key, v)
		}
	}

	var f Field
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return Field{}, typeErrorf("add", "path %q: %v", path, err)
	}
	if err := dec.Decode(raw); err != nil {
		return Field{}, typeErrorf("add", "path %q: %v", path, err)
	}
	if validator != nil {
		f.Validator = validator
	}
	return f, nil
}

// ParseType compiles a single declaration value bound to path. Paths below it
// are not collected.
func ParseType(path string, spec any) (Type, error) {
	return newCompiler(nil).compile(path, spec, Options{})
}

// ParseDeclaration reads a YAML (or JSON) document into a Declaration.
//
//	name:  string
//	tags:  "[string]"
//	age:   { type: number, min: 0 }
//	owner:
//	  email: { type: string, required: true, lowercase: true }
func ParseDeclaration(data []byte) (Declaration, error) {
	var decl Declaration
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("failed to parse declaration: %w", err)
	}
	if decl == nil {
		decl = Declaration{}
	}
	return decl, nil
}

// LoadDeclaration reads a declaration file.
func LoadDeclaration(path string) (Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration: %w", err)
	}
	return ParseDeclaration(data)
}
