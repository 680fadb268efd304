package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MarshalJSON describes the schema as a map of paths to type names. Virtual
// paths are included under the "virtual" name.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	raw := make(map[string]string, s.tree.Len())
	for _, path := range s.tree.Paths() {
		t, _ := s.tree.Get(path)
		raw[path] = t.Name()
	}
	return json.Marshal(raw)
}

// UnmarshalJSON rebuilds a schema from the map MarshalJSON produces. Options
// are not part of the description and are lost. A frozen schema is left
// untouched.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable("unmarshal"); err != nil {
		return err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decl, virtuals, err := declarationFromNames(raw)
	if err != nil {
		return err
	}

	fresh, err := New(decl, WithLogger(s.logger))
	if err != nil {
		return err
	}
	for _, name := range virtuals {
		if _, err := fresh.Virtual(name); err != nil {
			return err
		}
	}

	s.tree = fresh.tree
	s.hooks = fresh.hooks
	s.methods = fresh.methods
	s.statics = fresh.statics
	return nil
}

// declarationFromNames nests a flat path → type name map back into a
// declaration. Object entries become nested maps.
func declarationFromNames(raw map[string]string) (Declaration, []string, error) {
	paths := make([]string, 0, len(raw))
	for path := range raw {
		paths = append(paths, path)
	}
	// Parents sort before their children.
	sort.Strings(paths)

	decl := Declaration{}
	var virtuals []string
	for _, path := range paths {
		name := raw[path]
		if name == string(Virtual) {
			virtuals = append(virtuals, path)
			continue
		}

		keys := strings.Split(path, ".")
		parent := map[string]any(decl)
		for _, key := range keys[:len(keys)-1] {
			child, ok := parent[key].(map[string]any)
			if !ok {
				return nil, nil, typeErrorf("unmarshal", "path %q: parent %q is not an object", path, key)
			}
			parent = child
		}

		leaf := keys[len(keys)-1]
		if name == string(Object) {
			if _, exists := parent[leaf]; !exists {
				parent[leaf] = map[string]any{}
			}
			continue
		}
		if leaf == "type" {
			// A bare name under "type" would turn the parent into a field.
			parent[leaf] = map[string]any{"type": name}
			continue
		}
		parent[leaf] = name
	}
	return decl, virtuals, nil
}
