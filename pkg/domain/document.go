package domain

// IDField is the path holding a document's identifier.
const IDField = "_id"

// Document is the persisted form of a document: the output of the schema's
// Value conversion, keyed by top-level path.
type Document map[string]any

// ID returns the identifier stored in the document, or "" when it has none.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Clone deep-copies the maps and slices of the document so stores never
// share state with callers.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
