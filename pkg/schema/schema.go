package schema

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/halu886/warehouse/internal/logging"
)

// Event names a document lifecycle event hooks attach to.
type Event string

const (
	EventSave   Event = "save"
	EventRemove Event = "remove"
)

// HookKind selects the hooks running before or after an event.
type HookKind string

const (
	HookPre  HookKind = "pre"
	HookPost HookKind = "post"
)

// Schema is the compiled path tree of a collection plus its hook lists and
// its method and static registries.
//
// A schema is built first and then frozen by the collection using it. Once
// frozen every mutating call fails, and concurrent reads are safe.
type Schema struct {
	mu      sync.RWMutex
	tree    *PathTree
	hooks   map[HookKind]map[Event][]HookFunc
	methods map[string]MethodFunc
	statics map[string]StaticFunc
	frozen  bool
	logger  *slog.Logger
}

// Option configures a Schema.
type Option func(*Schema)

// WithLogger sets the logger used while compiling declarations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Schema) {
		s.logger = logger
	}
}

// New creates a schema and compiles decl into it. A nil decl creates an
// empty schema.
func New(decl Declaration, opts ...Option) (*Schema, error) {
	s := &Schema{
		tree: NewPathTree(),
		hooks: map[HookKind]map[Event][]HookFunc{
			HookPre:  {},
			HookPost: {},
		},
		methods: make(map[string]MethodFunc),
		statics: make(map[string]StaticFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	if err := s.Add(decl); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is like New but panics on error. It suits package-level schemas.
func MustNew(decl Declaration, opts ...Option) *Schema {
	s, err := New(decl, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add compiles decl into the path tree. Keys are compiled in lexical order.
// Add is atomic: when any key fails, the tree is left unchanged.
func (s *Schema) Add(decl Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable("add"); err != nil {
		return err
	}

	staged := s.tree.clone()
	c := newCompiler(staged)
	for _, key := range sortedKeys(decl) {
		if key == "" || strings.Contains(key, ".") {
			return typeErrorf("add", "invalid key %q", key)
		}
		t, err := c.compile(key, decl[key], Options{})
		if err != nil {
			return err
		}
		s.logger.Debug("path compiled", "path", key, "type", t.Name())
	}
	s.tree = staged
	return nil
}

// Virtual registers a computed path. Virtual paths are never stored.
func (s *Schema) Virtual(name string, opts ...VirtualOption) (*VirtualType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable("virtual"); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, typeErrorf("virtual", "name is required")
	}
	if prev, ok := s.tree.Get(name); ok && prev.Kind() != Virtual {
		return nil, typeErrorf("virtual", "path %q is already declared as %s", name, prev.Name())
	}

	v := NewVirtual(name, opts...)
	s.tree.Set(name, v)
	return v, nil
}

// Pre appends fn to the hooks running before event.
func (s *Schema) Pre(event Event, fn HookFunc) error {
	return s.hook(HookPre, event, fn)
}

// Post appends fn to the hooks running after event.
func (s *Schema) Post(event Event, fn HookFunc) error {
	return s.hook(HookPost, event, fn)
}

func (s *Schema) hook(kind HookKind, event Event, fn HookFunc) error {
	op := string(kind)
	if event != EventSave && event != EventRemove {
		return typeErrorf(op, "invalid event %q, want %q or %q", event, EventSave, EventRemove)
	}
	if fn == nil {
		return typeErrorf(op, "%s hook requires a function", event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(op); err != nil {
		return err
	}
	s.hooks[kind][event] = append(s.hooks[kind][event], fn)
	return nil
}

// Hooks returns a copy of the hooks registered for kind and event, in
// registration order.
func (s *Schema) Hooks(kind HookKind, event Event) []HookFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.hooks[kind][event]
	out := make([]HookFunc, len(list))
	copy(out, list)
	return out
}

// Method registers an instance-level function. Names are write-once.
func (s *Schema) Method(name string, fn MethodFunc) error {
	if name == "" {
		return typeErrorf("method", "name is required")
	}
	if fn == nil {
		return typeErrorf("method", "method %q requires a function", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable("method"); err != nil {
		return err
	}
	if _, exists := s.methods[name]; exists {
		return typeErrorf("method", "method %q is already registered", name)
	}
	s.methods[name] = fn
	return nil
}

// Static registers a collection-level function. Names are write-once.
func (s *Schema) Static(name string, fn StaticFunc) error {
	if name == "" {
		return typeErrorf("static", "name is required")
	}
	if fn == nil {
		return typeErrorf("static", "static %q requires a function", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable("static"); err != nil {
		return err
	}
	if _, exists := s.statics[name]; exists {
		return typeErrorf("static", "static %q is already registered", name)
	}
	s.statics[name] = fn
	return nil
}

// Methods returns a copy of the method registry.
func (s *Schema) Methods() map[string]MethodFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]MethodFunc, len(s.methods))
	for name, fn := range s.methods {
		out[name] = fn
	}
	return out
}

// Statics returns a copy of the static registry.
func (s *Schema) Statics() map[string]StaticFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]StaticFunc, len(s.statics))
	for name, fn := range s.statics {
		out[name] = fn
	}
	return out
}

// LookupMethod returns the method registered under name.
func (s *Schema) LookupMethod(name string) (MethodFunc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.methods[name]
	return fn, ok
}

// LookupStatic returns the static registered under name.
func (s *Schema) LookupStatic(name string) (StaticFunc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.statics[name]
	return fn, ok
}

// Freeze marks the schema as in use. Every later mutation fails.
func (s *Schema) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *Schema) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// mutable reports whether op may change the schema. It also fills in the
// fields of a zero Schema so one declared as a plain value works like New(nil).
// Callers hold s.mu.
func (s *Schema) mutable(op string) error {
	if s.frozen {
		return typeErrorf(op, "schema is frozen")
	}
	if s.tree == nil {
		s.tree = NewPathTree()
	}
	if s.hooks == nil {
		s.hooks = map[HookKind]map[Event][]HookFunc{HookPre: {}, HookPost: {}}
	}
	if s.methods == nil {
		s.methods = make(map[string]MethodFunc)
	}
	if s.statics == nil {
		s.statics = make(map[string]StaticFunc)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return nil
}

// Path returns the type bound to a dotted path.
func (s *Schema) Path(name string) (Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(name)
}

// Paths returns every compiled path in insertion order.
func (s *Schema) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Paths()
}

// Tree returns the path tree. Callers must not mutate it.
func (s *Schema) Tree() *PathTree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Virtuals returns the names of the virtual paths, sorted.
func (s *Schema) Virtuals() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, path := range s.tree.Paths() {
		if t, _ := s.tree.Get(path); t.Kind() == Virtual {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
