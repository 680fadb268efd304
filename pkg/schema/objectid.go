package schema

import (
	"bytes"

	"github.com/google/uuid"
)

// ObjectIDType is the document identifier type. Identifiers are UUIDs in
// memory and their canonical string form in storage.
type ObjectIDType struct {
	base
}

// NewObjectID builds an identifier type bound to path. With Options.Auto an
// absent value receives a freshly generated identifier.
func NewObjectID(path string, opts Options) *ObjectIDType {
	t := &ObjectIDType{base: newBase(path, ObjectID, opts)}
	t.registerBase(t)
	return t
}

func (t *ObjectIDType) Name() string { return string(ObjectID) }

func (t *ObjectIDType) Cast(value any, _ any) any {
	v := t.applyDefault(value)
	if IsUndefined(v) && t.opts.Auto {
		return uuid.New()
	}
	if isEmpty(v) {
		return v
	}
	if id, ok := toUUID(v); ok {
		return id
	}
	return v
}

func toUUID(v any) (uuid.UUID, bool) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, true
	case string:
		id, err := uuid.Parse(x)
		return id, err == nil
	case []byte:
		id, err := uuid.FromBytes(x)
		return id, err == nil
	case [16]byte:
		return uuid.UUID(x), true
	default:
		return uuid.Nil, false
	}
}

func (t *ObjectIDType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}
	if _, ok := v.(uuid.UUID); !ok {
		return nil, invalid(t.path, "must be an object id", v)
	}
	return v, nil
}

func (t *ObjectIDType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	ia, okA := toUUID(a)
	ib, okB := toUUID(b)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	return bytes.Compare(ia[:], ib[:])
}

func (t *ObjectIDType) Parse(stored any, _ any) any {
	if id, ok := toUUID(stored); ok {
		return id
	}
	return stored
}

func (t *ObjectIDType) Value(value any, _ any) any {
	if id, ok := value.(uuid.UUID); ok {
		return id.String()
	}
	return value
}

func (t *ObjectIDType) Match(value, query any, _ any) bool {
	iv, okV := toUUID(value)
	iq, okQ := toUUID(query)
	if !okV || !okQ {
		return EqualValues(value, query)
	}
	return iv == iq
}
