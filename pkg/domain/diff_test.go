package domain

import (
	"encoding/json"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		old       Document
		new       Document
		wantPaths []string
	}{
		{
			name:      "Initial Insert (Old is Nil)",
			old:       nil,
			new:       Document{"_id": "a", "name": "x"},
			wantPaths: []string{"_id", "name"},
		},
		{
			name:      "Modified",
			old:       Document{"_id": "a", "name": "x", "n": 1.0},
			new:       Document{"_id": "a", "name": "y", "n": 1.0},
			wantPaths: []string{"name"},
		},
		{
			name:      "Deleted",
			old:       Document{"_id": "a", "tags": []any{"x"}},
			new:       Document{"_id": "a"},
			wantPaths: []string{"tags"},
		},
		{
			name:      "Nested Change",
			old:       Document{"_id": "a", "o": map[string]any{"k": 1.0}},
			new:       Document{"_id": "a", "o": map[string]any{"k": 2.0}},
			wantPaths: []string{"o"},
		},
		{
			name: "No Change",
			old:  Document{"_id": "a", "o": map[string]any{"k": 1.0}},
			new:  Document{"_id": "a", "o": map[string]any{"k": 1.0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if len(tt.wantPaths) == 0 {
				if !got.IsEmpty() {
					t.Fatalf("Diff() = %+v, want empty", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Diff() = nil, want changes")
			}
			if got.ID != "a" {
				t.Errorf("Diff().ID = %q, want a", got.ID)
			}
			paths := got.Paths()
			if len(paths) != len(tt.wantPaths) {
				t.Fatalf("Diff().Paths() = %v, want %v", paths, tt.wantPaths)
			}
			for i := range paths {
				if paths[i] != tt.wantPaths[i] {
					t.Errorf("Diff().Paths() = %v, want %v", paths, tt.wantPaths)
				}
			}
		})
	}
}

func TestDiff_DeletionIsNull(t *testing.T) {
	got := Diff(Document{"_id": "a", "gone": 1.0}, Document{"_id": "a"})
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":"a","changed":{"gone":null}}` {
		t.Errorf("json = %s", data)
	}
}

func TestDocument_Clone(t *testing.T) {
	orig := Document{"_id": "a", "o": map[string]any{"list": []any{1.0}}}
	clone := orig.Clone()
	clone["o"].(map[string]any)["list"].([]any)[0] = 2.0

	if orig["o"].(map[string]any)["list"].([]any)[0] != 1.0 {
		t.Error("Clone() shares nested state with the original")
	}
	if clone.ID() != "a" {
		t.Errorf("ID() = %q, want a", clone.ID())
	}
	if Document(nil).Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}
