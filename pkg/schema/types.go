package schema

import (
	"context"
	"time"
)

// Kind identifies the semantic type bound to a path. Kind values double as the
// bare type constructors accepted in a Declaration.
type Kind string

const (
	String   Kind = "string"
	Number   Kind = "number"
	Boolean  Kind = "boolean"
	Date     Kind = "date"
	ObjectID Kind = "objectid"
	Mixed    Kind = "mixed"
	Array    Kind = "array"
	Object   Kind = "object"
	Virtual  Kind = "virtual"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks a value absent from a document. It is distinct from an
// explicit nil: Cast fills defaults for Undefined and passes nil through.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// isEmpty reports whether v is nil or Undefined.
func isEmpty(v any) bool {
	return v == nil || IsUndefined(v)
}

// Type is the contract every path type implements.
//
// The doc argument is passed through unchanged to custom validators and
// operators; it is usually the enclosing document.
type Type interface {
	// Path returns the dotted path the type is bound to.
	Path() string
	// Kind returns the semantic type tag.
	Kind() Kind
	// Name returns the human-readable type name (e.g., "string", "[number]").
	Name() string
	// Options returns the configuration the type was compiled with.
	Options() Options

	// Cast coerces raw input into the canonical in-memory value.
	Cast(value any, doc any) any
	// Validate enforces the type and custom constraints, returning the
	// (possibly replaced) value or a *ValidationError.
	Validate(value any, doc any) (any, error)
	// Compare orders two values of this type. Empty values sort first.
	Compare(a, b any) int
	// Parse converts a persisted value into its in-memory form.
	Parse(stored any, doc any) any
	// Value converts an in-memory value into its persisted form.
	Value(value any, doc any) any
	// Match reports whether value equals the query value.
	Match(value, query any, doc any) bool

	// QueryOperator looks up a q$ operator by name.
	QueryOperator(name Operator) (QueryFunc, bool)
	// UpdateOperator looks up a u$ operator by name.
	UpdateOperator(name Operator) (UpdateFunc, bool)
	// Operators lists the operator names the type supports, sorted.
	Operators() []Operator
}

// ValidatorFunc is a custom validator. It may reject the value with an error
// or return a replacement value.
type ValidatorFunc func(value any, doc any) (any, error)

// QueryFunc evaluates a q$ operator against a field value.
type QueryFunc func(value, operand any, doc any) bool

// UpdateFunc applies a u$ operator and returns the new field value.
type UpdateFunc func(value, operand any, doc any) any

// GetterFunc computes a virtual path from its document.
type GetterFunc func(doc any) any

// SetterFunc applies a value written to a virtual path.
type SetterFunc func(doc any, value any) error

// HookFunc runs around a document lifecycle event.
type HookFunc func(ctx context.Context, doc map[string]any) error

// MethodFunc is an instance-level behaviour registered on a schema.
type MethodFunc func(doc map[string]any, args ...any) (any, error)

// StaticFunc is a collection-level behaviour registered on a schema.
type StaticFunc func(args ...any) (any, error)

// Options configures a compiled type. Options that do not apply to a kind are
// ignored by it.
type Options struct {
	Required bool `mapstructure:"required" json:"required,omitempty"`
	// Default is either a literal (deep-copied on every use) or a func() any
	// evaluated on every use.
	Default   any           `mapstructure:"default" json:"-"`
	Validator ValidatorFunc `mapstructure:"-" json:"-"`

	// String
	Trim      bool     `mapstructure:"trim" json:"trim,omitempty"`
	Lowercase bool     `mapstructure:"lowercase" json:"lowercase,omitempty"`
	Uppercase bool     `mapstructure:"uppercase" json:"uppercase,omitempty"`
	Enum      []string `mapstructure:"enum" json:"enum,omitempty"`
	Match     string   `mapstructure:"match" json:"match,omitempty"`
	MinLength *int     `mapstructure:"min_length" json:"min_length,omitempty"`
	MaxLength *int     `mapstructure:"max_length" json:"max_length,omitempty"`

	// Number
	Min *float64 `mapstructure:"min" json:"min,omitempty"`
	Max *float64 `mapstructure:"max" json:"max,omitempty"`

	// Date
	MinDate *time.Time `mapstructure:"min_date" json:"min_date,omitempty"`
	MaxDate *time.Time `mapstructure:"max_date" json:"max_date,omitempty"`

	// ObjectID
	Auto bool `mapstructure:"auto" json:"auto,omitempty"`
}

// Field is the option form of a declaration entry: {type: T, ...options}.
type Field struct {
	Type    any `mapstructure:"type"`
	Options `mapstructure:",squash"`
}

var (
	_ Type = (*StringType)(nil)
	_ Type = (*NumberType)(nil)
	_ Type = (*BooleanType)(nil)
	_ Type = (*DateType)(nil)
	_ Type = (*ObjectIDType)(nil)
	_ Type = (*MixedType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*ObjectType)(nil)
	_ Type = (*VirtualType)(nil)
)
