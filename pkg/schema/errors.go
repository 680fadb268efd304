package schema

import (
	"errors"
	"fmt"
)

// ValidationError represents a value that failed a type or custom constraint.
type ValidationError struct {
	Path   string // Dotted path of the offending field
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil || IsUndefined(e.Value) {
		return fmt.Sprintf("path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("path %q: %s (got %T %v)", e.Path, e.Reason, e.Value, e.Value)
}

// TypeError represents a malformed schema construction call.
type TypeError struct {
	Op     string // Schema operation that was called (add, pre, method, ...)
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Op, e.Reason)
}

func invalid(path, reason string, value any) *ValidationError {
	return &ValidationError{Path: path, Reason: reason, Value: value}
}

func typeErrorf(op, format string, args ...any) *TypeError {
	return &TypeError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTypeError reports whether err is, or wraps, a *TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}
