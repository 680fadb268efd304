package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// StringType is the canonical text type.
type StringType struct {
	base
	pattern *regexp.Regexp
}

// NewString builds a string type bound to path.
func NewString(path string, opts Options) (*StringType, error) {
	t := &StringType{base: newBase(path, String, opts)}
	if opts.Match != "" {
		re, err := regexp.Compile(opts.Match)
		if err != nil {
			return nil, typeErrorf("add", "path %q: invalid match pattern: %v", path, err)
		}
		t.pattern = re
	}

	t.registerBase(t)
	t.query[OpRegex] = func(v, operand, _ any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		switch p := operand.(type) {
		case *regexp.Regexp:
			return p.MatchString(s)
		case string:
			re, err := regexp.Compile(p)
			return err == nil && re.MatchString(s)
		default:
			return false
		}
	}
	return t, nil
}

func (t *StringType) Name() string { return string(String) }

func (t *StringType) Cast(value any, _ any) any {
	v := t.applyDefault(value)
	if isEmpty(v) {
		return v
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case fmt.Stringer:
		s = x.String()
	default:
		converted, err := cast.ToStringE(v)
		if err != nil {
			return v
		}
		s = converted
	}

	if t.opts.Trim {
		s = strings.TrimSpace(s)
	}
	if t.opts.Lowercase {
		s = strings.ToLower(s)
	}
	if t.opts.Uppercase {
		s = strings.ToUpper(s)
	}
	return s
}

func (t *StringType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}

	s, ok := v.(string)
	if !ok {
		return nil, invalid(t.path, "must be a string", v)
	}
	if len(t.opts.Enum) > 0 && !slices.Contains(t.opts.Enum, s) {
		return nil, invalid(t.path, fmt.Sprintf("must be one of %v", t.opts.Enum), v)
	}
	if t.pattern != nil && !t.pattern.MatchString(s) {
		return nil, invalid(t.path, fmt.Sprintf("must match %s", t.pattern), v)
	}
	n := utf8.RuneCountInString(s)
	if t.opts.MinLength != nil && n < *t.opts.MinLength {
		return nil, invalid(t.path, fmt.Sprintf("must be at least %d characters", *t.opts.MinLength), v)
	}
	if t.opts.MaxLength != nil && n > *t.opts.MaxLength {
		return nil, invalid(t.path, fmt.Sprintf("must be at most %d characters", *t.opts.MaxLength), v)
	}
	return s, nil
}

func (t *StringType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	return strings.Compare(sa, sb)
}

func (t *StringType) Parse(stored any, _ any) any { return stored }

func (t *StringType) Value(value any, _ any) any { return value }

func (t *StringType) Match(value, query any, _ any) bool {
	if re, ok := query.(*regexp.Regexp); ok {
		s, ok := value.(string)
		return ok && re.MatchString(s)
	}
	return EqualValues(value, query)
}
