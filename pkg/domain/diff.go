package domain

import (
	"reflect"
	"sort"
)

// DocumentDiff represents the changes between two versions of a document.
// It is designed to be serialized to JSON for change feeds.
type DocumentDiff struct {
	// ID is always present to identify the target.
	ID string `json:"id"`

	// Changed contains only changed, added or deleted top-level paths.
	// For deletions, the path is present with a nil value.
	Changed map[string]any `json:"changed,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, every path of newDoc is reported (initial insert).
// It returns nil when nothing changed.
func Diff(oldDoc, newDoc Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}

	delta := make(map[string]any)
	for k, newVal := range newDoc {
		oldVal, exists := oldDoc[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range oldDoc {
		if _, exists := newDoc[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return &DocumentDiff{ID: newDoc.ID(), Changed: delta}
}

// Paths returns the changed paths, sorted.
func (d *DocumentDiff) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Changed))
	for k := range d.Changed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsEmpty checks if the diff contains any changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d == nil || len(d.Changed) == 0
}
