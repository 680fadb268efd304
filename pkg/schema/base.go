package schema

import "errors"

// base carries the configuration and the behaviour shared by every concrete
// type. Concrete types embed it and call its helpers from their own methods.
type base struct {
	operators
	path string
	kind Kind
	opts Options
}

func newBase(path string, kind Kind, opts Options) base {
	return base{
		operators: newOperators(),
		path:      path,
		kind:      kind,
		opts:      opts,
	}
}

func (b *base) Path() string     { return b.path }
func (b *base) Kind() Kind       { return b.kind }
func (b *base) Options() Options { return b.opts }

// applyDefault replaces Undefined with the configured default. Literal
// defaults are deep-copied and default funcs are invoked on every call.
func (b *base) applyDefault(value any) any {
	if !IsUndefined(value) {
		return value
	}
	switch d := b.opts.Default.(type) {
	case nil:
		return Undefined
	case func() any:
		return d()
	default:
		return cloneValue(d)
	}
}

// validateBase enforces Required and runs the custom validator.
func (b *base) validateBase(value any, doc any) (any, error) {
	if isEmpty(value) && b.opts.Required {
		return nil, invalid(b.path, "required", value)
	}
	if b.opts.Validator == nil {
		return value, nil
	}

	out, err := b.opts.Validator(value, doc)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		return nil, invalid(b.path, err.Error(), value)
	}
	return out, nil
}

// compareEmpty orders empty values before present ones. ok is false when
// both values are present.
func compareEmpty(a, b any) (result int, ok bool) {
	ea, eb := isEmpty(a), isEmpty(b)
	switch {
	case ea && eb:
		return 0, true
	case ea:
		return -1, true
	case eb:
		return 1, true
	default:
		return 0, false
	}
}
