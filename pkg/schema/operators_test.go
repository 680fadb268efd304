package schema

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorNames(t *testing.T) {
	assert.Equal(t, OpIn, QueryName("$in"))
	assert.Equal(t, OpIn, QueryName("in"))
	assert.Equal(t, OpPush, UpdateName("$push"))
	assert.True(t, OpSize.IsQuery())
	assert.False(t, OpSize.IsUpdate())
	assert.True(t, OpAddToSet.IsUpdate())
}

func TestOperators_UnknownNameIsNotFound(t *testing.T) {
	for _, typ := range allTypes(t) {
		_, ok := typ.QueryOperator("q$bogus")
		assert.False(t, ok, typ.Name())
		_, ok = typ.UpdateOperator(OpEq)
		assert.False(t, ok, "%s: query names are not update operators", typ.Name())
	}
}

func TestOperators_BaseTable(t *testing.T) {
	base := []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpExists, OpSet, OpUnset}
	for _, typ := range allTypes(t) {
		ops := typ.Operators()
		assert.IsIncreasing(t, ops, typ.Name())
		for _, op := range base {
			assert.Contains(t, ops, op, typ.Name())
		}
	}

	assert.Contains(t, NewNumber("n", Options{}).Operators(), OpInc)
	assert.NotContains(t, mustString(t, "s", Options{}).Operators(), OpInc)
	assert.Contains(t, mixedArray().Operators(), OpAddToSet)
}

func TestOperators_BaseSemantics(t *testing.T) {
	n := NewNumber("n", Options{})
	query := func(op Operator) QueryFunc {
		fn, ok := n.QueryOperator(op)
		require.True(t, ok, op)
		return fn
	}

	tests := []struct {
		name    string
		op      Operator
		value   any
		operand any
		want    bool
	}{
		{"eq", OpEq, 2.0, 2, true},
		{"ne", OpNe, 2.0, 3, true},
		{"gt", OpGt, 3.0, 2, true},
		{"gt on absent", OpGt, Undefined, -10, false},
		{"gte", OpGte, 2.0, 2, true},
		{"lt", OpLt, 1.0, 2, true},
		{"lte on nil", OpLte, nil, 2, false},
		{"in", OpIn, 2.0, []any{1, 2}, true},
		{"in scalar", OpIn, 2.0, 2, true},
		{"nin", OpNin, 5.0, []any{1, 2}, true},
		{"exists", OpExists, 0.0, true, true},
		{"exists on absent", OpExists, Undefined, true, false},
		{"not exists", OpExists, Undefined, false, true},
		{"exists on nil", OpExists, nil, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, query(tt.op)(tt.value, tt.operand, nil))
		})
	}

	set, _ := n.UpdateOperator(OpSet)
	assert.Equal(t, 9, set(1.0, 9, nil))
	operand := []any{1}
	out := set(nil, operand, nil).([]any)
	out[0] = 2
	assert.Equal(t, []any{1}, operand)

	unset, _ := n.UpdateOperator(OpUnset)
	assert.True(t, IsUndefined(unset(1.0, nil, nil)))
}

func allTypes(t *testing.T) []Type {
	return []Type{
		mustString(t, "s", Options{}),
		NewNumber("n", Options{}),
		NewBoolean("b", Options{}),
		NewDate("d", Options{}),
		NewObjectID("id", Options{}),
		NewMixed("m", Options{}),
		mixedArray(),
		NewObject("o", nil, Options{}),
		NewVirtual("v"),
	}
}

func TestCompareValues_CrossTypeOrder(t *testing.T) {
	ordered := []any{
		nil,
		-1,
		2.5,
		"a",
		"b",
		map[string]any{"a": 1},
		[]any{1},
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		false,
		true,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for i := range ordered {
		for j := range ordered {
			got := CompareValues(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Less(t, got, 0, "%v < %v", ordered[i], ordered[j])
			case i > j:
				assert.Greater(t, got, 0, "%v > %v", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, got, "%v == %v", ordered[i], ordered[j])
			}
		}
	}

	assert.Equal(t, 0, CompareValues(nil, Undefined))
	assert.Equal(t, 0, CompareValues(1, 1.0))
}

func TestEqualValues(t *testing.T) {
	assert.True(t, EqualValues(nil, Undefined))
	assert.True(t, EqualValues(int64(3), 3.0))
	assert.True(t, EqualValues([]string{"a"}, []any{"a"}))
	assert.True(t, EqualValues(map[string]int{"a": 1}, map[string]any{"a": 1.0}))
	assert.False(t, EqualValues(map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}))
	assert.False(t, EqualValues("1", 1))
	assert.False(t, EqualValues(nil, 0))
}
