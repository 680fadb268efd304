package schema

import (
	"cmp"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// ArrayType is a homogeneous sequence. Every element operation delegates to
// the single child type the array owns.
//
// Cast mutates a []any input in place. Update operators never do: they return
// a new slice.
type ArrayType struct {
	base
	child Type
}

// NewArray builds an array type bound to path. A nil child defaults to Mixed.
func NewArray(path string, child Type, opts Options) *ArrayType {
	if child == nil {
		child = NewMixed(path, Options{})
	}
	t := &ArrayType{base: newBase(path, Array, opts), child: child}
	t.registerBase(t)
	t.registerQuery()
	t.registerUpdate()
	return t
}

// Child returns the element type.
func (t *ArrayType) Child() Type { return t.child }

func (t *ArrayType) Name() string { return fmt.Sprintf("[%s]", t.child.Name()) }

func (t *ArrayType) Cast(value any, doc any) any {
	v := t.applyDefault(value)
	if IsUndefined(v) {
		return []any{}
	}
	if v == nil {
		return nil
	}

	arr, ok := asSlice(v)
	if !ok {
		arr = []any{v}
	}
	if len(arr) == 0 {
		return arr
	}
	for i := range arr {
		arr[i] = t.child.Cast(arr[i], doc)
	}
	return arr
}

func (t *ArrayType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}

	arr, ok := asSlice(v)
	if !ok {
		return nil, invalid(t.path, "must be an array", v)
	}
	for i := range arr {
		elem, err := t.child.Validate(arr[i], doc)
		if err != nil {
			return nil, err
		}
		arr[i] = elem
	}
	return arr, nil
}

func (t *ArrayType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	sa, okA := asSlice(a)
	sb, okB := asSlice(b)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if c := t.child.Compare(sa[i], sb[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(sa), len(sb))
}

// Parse maps every stored element through the child. An empty input yields
// an empty sequence rather than nil.
func (t *ArrayType) Parse(stored any, doc any) any {
	arr, ok := asSlice(stored)
	if !ok || len(arr) == 0 {
		if isEmpty(stored) || ok {
			return []any{}
		}
		return stored
	}
	out := make([]any, len(arr))
	for i, elem := range arr {
		out[i] = t.child.Parse(elem, doc)
	}
	return out
}

// Value maps every element through the child. An empty input yields an empty
// sequence rather than nil.
func (t *ArrayType) Value(value any, doc any) any {
	arr, ok := asSlice(value)
	if !ok || len(arr) == 0 {
		if isEmpty(value) || ok {
			return []any{}
		}
		return value
	}
	out := make([]any, len(arr))
	for i, elem := range arr {
		out[i] = t.child.Value(elem, doc)
	}
	return out
}

// Match compares positionally through the child. There is no set matching
// here: q$in and q$all provide it.
//
// When either side is absent or nil the two sides must be identical: absent
// matches only absent and nil matches only nil, so Match(nil, nil) is true.
func (t *ArrayType) Match(value, query any, doc any) bool {
	if isEmpty(value) || isEmpty(query) {
		return value == query
	}
	sv, okV := asSlice(value)
	sq, okQ := asSlice(query)
	if !okV || !okQ || len(sv) != len(sq) {
		return false
	}
	for i := range sv {
		if !t.child.Match(sv[i], sq[i], doc) {
			return false
		}
	}
	return true
}

// contains reports whether any element of arr matches v through the child.
func (t *ArrayType) contains(arr []any, v any, doc any) bool {
	for _, elem := range arr {
		if t.child.Match(elem, v, doc) {
			return true
		}
	}
	return false
}

func (t *ArrayType) registerQuery() {
	size := func(v, operand, _ any) bool {
		arr, ok := asSlice(v)
		if !ok {
			return false
		}
		n, err := cast.ToFloat64E(operand)
		if err != nil || n != math.Trunc(n) {
			return false
		}
		return float64(len(arr)) == n
	}
	t.query[OpSize] = size
	t.query[OpLength] = size

	t.query[OpIn] = func(v, operand, doc any) bool {
		arr, _ := asSlice(v)
		for _, member := range operandSet(operand) {
			if t.contains(arr, member, doc) {
				return true
			}
		}
		return false
	}
	t.query[OpNin] = func(v, operand, doc any) bool {
		return !t.query[OpIn](v, operand, doc)
	}
	t.query[OpAll] = func(v, operand, doc any) bool {
		arr, _ := asSlice(v)
		for _, member := range operandSet(operand) {
			if !t.contains(arr, member, doc) {
				return false
			}
		}
		return true
	}
}

func (t *ArrayType) registerUpdate() {
	push := func(v, operand, _ any) any {
		out := t.owned(v)
		if items, ok := asSlice(operand); ok {
			return append(out, cloneValue(items).([]any)...)
		}
		return append(out, cloneValue(operand))
	}
	t.update[OpPush] = push
	t.update[OpAppend] = push

	unshift := func(v, operand, _ any) any {
		var head []any
		if items, ok := asSlice(operand); ok {
			head = cloneValue(items).([]any)
		} else {
			head = []any{cloneValue(operand)}
		}
		return append(head, t.owned(v)...)
	}
	t.update[OpUnshift] = unshift
	t.update[OpPrepend] = unshift

	t.update[OpPull] = func(v, operand, doc any) any {
		targets := operandSet(operand)
		out := make([]any, 0)
		for _, elem := range t.owned(v) {
			if !t.contains(targets, elem, doc) {
				out = append(out, elem)
			}
		}
		return out
	}

	t.update[OpShift] = func(v, operand, _ any) any {
		return trim(t.owned(v), removalCount(operand), true)
	}
	t.update[OpPop] = func(v, operand, _ any) any {
		return trim(t.owned(v), removalCount(operand), false)
	}

	t.update[OpAddToSet] = func(v, operand, doc any) any {
		out := t.owned(v)
		for _, item := range operandSet(operand) {
			if !t.contains(out, item, doc) {
				out = append(out, cloneValue(item))
			}
		}
		return out
	}
}

// owned returns a new slice holding the elements of v. Empty and non-array
// values start a new sequence.
func (t *ArrayType) owned(v any) []any {
	arr, ok := asSlice(v)
	if !ok {
		if isEmpty(v) {
			return []any{}
		}
		return []any{v}
	}
	out := make([]any, len(arr))
	copy(out, arr)
	return out
}

// removalCount reads the operand of u$shift and u$pop: true removes one, a
// number removes that many, a negative number removes from the opposite end.
func removalCount(operand any) int {
	switch x := operand.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case nil:
		return 1
	}
	n, err := cast.ToIntE(operand)
	if err != nil {
		return 0
	}
	return n
}

// trim removes n elements from the front (or the back when fromFront is
// false). A negative n removes from the opposite end.
func trim(arr []any, n int, fromFront bool) []any {
	if n < 0 {
		n, fromFront = -n, !fromFront
	}
	if n >= len(arr) {
		return []any{}
	}
	if fromFront {
		return arr[n:]
	}
	return arr[:len(arr)-n]
}
