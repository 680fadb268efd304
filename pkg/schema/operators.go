package schema

import (
	"sort"
	"strings"
)

// Operator is the public name of a query (q$) or update (u$) operator.
type Operator string

const (
	queryPrefix  = "q"
	updatePrefix = "u"
)

// Query operators.
const (
	OpEq     Operator = "q$eq"
	OpNe     Operator = "q$ne"
	OpGt     Operator = "q$gt"
	OpGte    Operator = "q$gte"
	OpLt     Operator = "q$lt"
	OpLte    Operator = "q$lte"
	OpIn     Operator = "q$in"
	OpNin    Operator = "q$nin"
	OpExists Operator = "q$exists"
	OpRegex  Operator = "q$regex"
	OpSize   Operator = "q$size"
	OpLength Operator = "q$length"
	OpAll    Operator = "q$all"
)

// Update operators.
const (
	OpSet      Operator = "u$set"
	OpUnset    Operator = "u$unset"
	OpInc      Operator = "u$inc"
	OpMul      Operator = "u$mul"
	OpMin      Operator = "u$min"
	OpMax      Operator = "u$max"
	OpPush     Operator = "u$push"
	OpAppend   Operator = "u$append"
	OpUnshift  Operator = "u$unshift"
	OpPrepend  Operator = "u$prepend"
	OpPull     Operator = "u$pull"
	OpShift    Operator = "u$shift"
	OpPop      Operator = "u$pop"
	OpAddToSet Operator = "u$addToSet"
)

// QueryName maps the key used in a filter expression ("$in") to the name of
// the query operator ("q$in").
func QueryName(key string) Operator {
	return Operator(queryPrefix + ensureDollar(key))
}

// UpdateName maps the key used in an update expression ("$push") to the name
// of the update operator ("u$push").
func UpdateName(key string) Operator {
	return Operator(updatePrefix + ensureDollar(key))
}

func ensureDollar(key string) string {
	if strings.HasPrefix(key, "$") {
		return key
	}
	return "$" + key
}

// IsQuery reports whether the operator is a q$ operator.
func (o Operator) IsQuery() bool { return strings.HasPrefix(string(o), queryPrefix+"$") }

// IsUpdate reports whether the operator is a u$ operator.
func (o Operator) IsUpdate() bool { return strings.HasPrefix(string(o), updatePrefix+"$") }

// operators is the per-type operator table.
type operators struct {
	query  map[Operator]QueryFunc
	update map[Operator]UpdateFunc
}

func newOperators() operators {
	return operators{
		query:  make(map[Operator]QueryFunc),
		update: make(map[Operator]UpdateFunc),
	}
}

func (o operators) QueryOperator(name Operator) (QueryFunc, bool) {
	fn, ok := o.query[name]
	return fn, ok
}

func (o operators) UpdateOperator(name Operator) (UpdateFunc, bool) {
	fn, ok := o.update[name]
	return fn, ok
}

func (o operators) Operators() []Operator {
	out := make([]Operator, 0, len(o.query)+len(o.update))
	for name := range o.query {
		out = append(out, name)
	}
	for name := range o.update {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// registerBase installs the operators every type supports, bound to t's own
// Compare and Match.
func (o operators) registerBase(t Type) {
	o.query[OpEq] = func(v, operand, doc any) bool { return t.Match(v, operand, doc) }
	o.query[OpNe] = func(v, operand, doc any) bool { return !t.Match(v, operand, doc) }
	o.query[OpGt] = func(v, operand, _ any) bool { return !isEmpty(v) && t.Compare(v, operand) > 0 }
	o.query[OpGte] = func(v, operand, _ any) bool { return !isEmpty(v) && t.Compare(v, operand) >= 0 }
	o.query[OpLt] = func(v, operand, _ any) bool { return !isEmpty(v) && t.Compare(v, operand) < 0 }
	o.query[OpLte] = func(v, operand, _ any) bool { return !isEmpty(v) && t.Compare(v, operand) <= 0 }
	o.query[OpIn] = func(v, operand, doc any) bool {
		for _, member := range operandSet(operand) {
			if t.Match(v, member, doc) {
				return true
			}
		}
		return false
	}
	o.query[OpNin] = func(v, operand, doc any) bool {
		fn := o.query[OpIn]
		return !fn(v, operand, doc)
	}
	o.query[OpExists] = func(v, operand, _ any) bool {
		want := true
		if b, ok := operand.(bool); ok {
			want = b
		}
		return IsUndefined(v) != want
	}

	o.update[OpSet] = func(_, operand, _ any) any { return cloneValue(operand) }
	o.update[OpUnset] = func(_, _, _ any) any { return Undefined }
}

// operandSet treats a sequence operand as a set and a scalar as a singleton.
func operandSet(operand any) []any {
	if s, ok := asSlice(operand); ok {
		return s
	}
	return []any{operand}
}
