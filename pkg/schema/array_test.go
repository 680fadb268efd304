package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedArray() *ArrayType {
	return NewArray("list", nil, Options{})
}

func TestArray_CastDefaults(t *testing.T) {
	t.Run("absent without default is an empty sequence", func(t *testing.T) {
		arr := NewArray("tags", mustString(t, "tags", Options{}), Options{})
		got := arr.Cast(Undefined, nil)
		assert.Equal(t, []any{}, got)
	})

	t.Run("explicit nil stays nil", func(t *testing.T) {
		arr := mixedArray()
		assert.Nil(t, arr.Cast(nil, nil))
	})

	t.Run("literal default is copied for every document", func(t *testing.T) {
		arr := NewArray("tags", mustString(t, "tags", Options{}), Options{Default: []any{"x"}})

		first := arr.Cast(Undefined, map[string]any{}).([]any)
		second := arr.Cast(Undefined, map[string]any{}).([]any)
		require.Equal(t, []any{"x"}, first)
		require.Equal(t, []any{"x"}, second)

		first[0] = "changed"
		assert.Equal(t, []any{"x"}, second)
		assert.Equal(t, []any{"x"}, arr.Cast(Undefined, nil))
	})

	t.Run("default func is invoked on every cast", func(t *testing.T) {
		calls := 0
		arr := NewArray("tags", nil, Options{Default: func() any {
			calls++
			return []any{calls}
		}})
		assert.Equal(t, []any{1}, arr.Cast(Undefined, nil))
		assert.Equal(t, []any{2}, arr.Cast(Undefined, nil))
	})
}

func TestArray_CastLeniency(t *testing.T) {
	arr := NewArray("scores", NewNumber("scores", Options{}), Options{})

	assert.Equal(t, []any{5.0}, arr.Cast("5", nil))
	assert.Equal(t, []any{1.0, 2.5}, arr.Cast([]any{"1", 2.5}, nil))
	assert.Equal(t, []any{1.0, 2.0}, arr.Cast([]int{1, 2}, nil))
	assert.Equal(t, []any{}, arr.Cast([]any{}, nil))
}

func TestArray_CastInPlace(t *testing.T) {
	arr := NewArray("scores", NewNumber("scores", Options{}), Options{})
	in := []any{"1", "2"}
	out := arr.Cast(in, nil).([]any)

	assert.Equal(t, []any{1.0, 2.0}, in)
	assert.Same(t, &in[0], &out[0])
}

func TestArray_Validate(t *testing.T) {
	arr := NewArray("scores", NewNumber("scores", Options{Min: ptr(0.0)}), Options{})

	tests := []struct {
		name    string
		value   any
		wantErr string
	}{
		{name: "valid", value: []any{1.0, 2.0}},
		{name: "empty", value: []any{}},
		{name: "absent", value: Undefined},
		{name: "not a sequence", value: "nope", wantErr: "must be an array"},
		{name: "map", value: map[string]any{"a": 1}, wantErr: "must be an array"},
		{name: "element fails", value: []any{1.0, -1.0, "x"}, wantErr: "must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := arr.Validate(tt.value, nil)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Reason, tt.wantErr)
		})
	}
}

func TestArray_ValidateElementErrorIsNotWrapped(t *testing.T) {
	child := NewNumber("scores", Options{Validator: func(v, _ any) (any, error) {
		return nil, &ValidationError{Path: "scores", Reason: "custom"}
	}})
	arr := NewArray("scores", child, Options{})

	_, err := arr.Validate([]any{1.0, 2.0}, nil)
	ve, ok := err.(*ValidationError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "custom", ve.Reason)
}

func TestArray_ValidateRequired(t *testing.T) {
	arr := NewArray("tags", nil, Options{Required: true})

	_, err := arr.Validate(nil, nil)
	assert.True(t, IsValidationError(err))

	_, err = arr.Validate([]any{}, nil)
	assert.NoError(t, err)
}

func TestArray_Compare(t *testing.T) {
	arr := NewArray("list", NewNumber("list", Options{}), Options{})

	assert.Less(t, arr.Compare([]any{1, 2}, []any{1, 2, 3}), 0)
	assert.Less(t, arr.Compare(nil, []any{}), 0)
	assert.Less(t, arr.Compare(Undefined, []any{1}), 0)
	assert.Equal(t, 0, arr.Compare(nil, Undefined))
	assert.Equal(t, 0, arr.Compare([]any{1, 2}, []any{1.0, 2.0}))

	pairs := [][2][]any{
		{{1, 2}, {1, 3}},
		{{5}, {1, 9, 9}},
		{{}, {0}},
		{{2, 2}, {2, 2}},
	}
	for _, p := range pairs {
		assert.Equal(t, arr.Compare(p[0], p[1]), -arr.Compare(p[1], p[0]), "%v vs %v", p[0], p[1])
	}
}

func TestArray_ParseValue(t *testing.T) {
	arr := NewArray("ids", NewObjectID("ids", Options{}), Options{})

	assert.Equal(t, []any{}, arr.Parse(nil, nil))
	assert.Equal(t, []any{}, arr.Value(Undefined, nil))
	assert.Equal(t, []any{}, arr.Value([]any{}, nil))

	id := NewObjectID("id", Options{Auto: true}).Cast(Undefined, nil)
	stored := arr.Value([]any{id}, nil).([]any)
	require.Len(t, stored, 1)
	assert.IsType(t, "", stored[0])
	assert.Equal(t, []any{id}, arr.Parse(stored, nil))
}

func TestArray_Match(t *testing.T) {
	arr := mixedArray()

	assert.True(t, arr.Match([]any{1, "a"}, []any{1, "a"}, nil))
	assert.False(t, arr.Match([]any{"a", 1}, []any{1, "a"}, nil))
	assert.False(t, arr.Match([]any{1}, []any{1, 1}, nil))
	assert.True(t, arr.Match(Undefined, Undefined, nil))
	assert.True(t, arr.Match(nil, nil, nil))
	assert.False(t, arr.Match(nil, Undefined, nil))
	assert.False(t, arr.Match([]any{}, nil, nil))
}

func TestArray_QueryOperators(t *testing.T) {
	arr := mixedArray()

	tests := []struct {
		op      Operator
		value   any
		operand any
		want    bool
	}{
		{OpSize, []any{1, 2, 3}, 3, true},
		{OpSize, []any{}, 0, true},
		{OpSize, []any{1}, 2, false},
		{OpLength, []any{1, 2}, "2", true},
		{OpSize, []any{1, 2, 3}, 3.5, false},
		{OpSize, []any{1, 2, 3}, 3.0, true},
		{OpSize, []any{1, 2, 3}, "three", false},
		{OpIn, []any{"a", "b"}, []any{"b", "c"}, true},
		{OpIn, []any{"a"}, []any{"x"}, false},
		{OpIn, []any{"a"}, "a", true},
		{OpNin, []any{"a"}, []any{"x"}, true},
		{OpNin, []any{"a", "b"}, []any{"b"}, false},
		{OpAll, []any{"a", "b", "c"}, []any{"c", "a"}, true},
		{OpAll, []any{"a"}, []any{"a", "b"}, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			fn, ok := arr.QueryOperator(tt.op)
			require.True(t, ok)
			assert.Equal(t, tt.want, fn(tt.value, tt.operand, nil))
		})
	}
}

func TestArray_UpdateOperators(t *testing.T) {
	arr := mixedArray()

	tests := []struct {
		name    string
		op      Operator
		value   any
		operand any
		want    []any
	}{
		{"push scalar", OpPush, []any{1, 2}, 3, []any{1, 2, 3}},
		{"push onto absent", OpPush, Undefined, 1, []any{1}},
		{"push sequence", OpPush, []any{1}, []any{2, 3}, []any{1, 2, 3}},
		{"append", OpAppend, []any{1}, 2, []any{1, 2}},
		{"unshift", OpUnshift, []any{2, 3}, 1, []any{1, 2, 3}},
		{"prepend sequence", OpPrepend, []any{3}, []any{1, 2}, []any{1, 2, 3}},
		{"pull", OpPull, []any{1, 2, 3, 2}, 2, []any{1, 3}},
		{"pull many", OpPull, []any{1, 2, 3, 2}, []any{1, 2}, []any{3}},
		{"addToSet existing", OpAddToSet, []any{1, 2}, 2, []any{1, 2}},
		{"addToSet sequence", OpAddToSet, []any{1}, []any{1, 2}, []any{1, 2}},
		{"addToSet deduplicates operand", OpAddToSet, []any{}, []any{3, 3}, []any{3}},
		{"pop true", OpPop, []any{1, 2, 3}, true, []any{1, 2}},
		{"pop count", OpPop, []any{1, 2, 3}, 2, []any{1}},
		{"pop negative", OpPop, []any{1, 2, 3}, -1, []any{2, 3}},
		{"shift one", OpShift, []any{1, 2, 3}, 1, []any{2, 3}},
		{"shift true", OpShift, []any{1, 2, 3}, true, []any{2, 3}},
		{"shift negative", OpShift, []any{1, 2, 3}, -2, []any{1}},
		{"shift everything", OpShift, []any{1, 2}, 5, []any{}},
		{"pop false", OpPop, []any{1, 2}, false, []any{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := arr.UpdateOperator(tt.op)
			require.True(t, ok)
			assert.Equal(t, tt.want, fn(tt.value, tt.operand, nil))
		})
	}
}

func TestArray_UpdateOperatorsArePure(t *testing.T) {
	arr := mixedArray()
	in := []any{1, 2, 3}

	for _, op := range []Operator{OpPush, OpUnshift, OpPull, OpShift, OpPop, OpAddToSet} {
		fn, ok := arr.UpdateOperator(op)
		require.True(t, ok, op)
		out := fn(in, 1, nil).([]any)
		if len(out) > 0 {
			out[0] = "mutated"
		}
		assert.Equal(t, []any{1, 2, 3}, in, op)
	}
}

func TestArray_Name(t *testing.T) {
	assert.Equal(t, "[mixed]", mixedArray().Name())
	assert.Equal(t, "[number]", NewArray("n", NewNumber("n", Options{}), Options{}).Name())
}

func mustString(t *testing.T, path string, opts Options) *StringType {
	t.Helper()
	s, err := NewString(path, opts)
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }
