package schema

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// DateType stores instants as time.Time.
type DateType struct {
	base
}

// NewDate builds a date type bound to path.
func NewDate(path string, opts Options) *DateType {
	t := &DateType{base: newBase(path, Date, opts)}
	t.registerBase(t)
	return t
}

func (t *DateType) Name() string { return string(Date) }

// Cast accepts time.Time, strings in any layout spf13/cast understands, and
// numbers as unix milliseconds.
func (t *DateType) Cast(value any, _ any) any {
	v := t.applyDefault(value)
	if isEmpty(v) {
		return v
	}
	if tm, ok := toTime(v); ok {
		return tm
	}
	return v
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	case string:
		tm, err := cast.ToTimeE(x)
		return tm, err == nil
	}
	if ms, ok := toNumber(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func (t *DateType) Validate(value any, doc any) (any, error) {
	v, err := t.validateBase(value, doc)
	if err != nil || isEmpty(v) {
		return v, err
	}

	tm, ok := v.(time.Time)
	if !ok {
		return nil, invalid(t.path, "must be a date", v)
	}
	if t.opts.MinDate != nil && tm.Before(*t.opts.MinDate) {
		return nil, invalid(t.path, fmt.Sprintf("must not be before %s", t.opts.MinDate.Format(time.RFC3339)), v)
	}
	if t.opts.MaxDate != nil && tm.After(*t.opts.MaxDate) {
		return nil, invalid(t.path, fmt.Sprintf("must not be after %s", t.opts.MaxDate.Format(time.RFC3339)), v)
	}
	return tm, nil
}

func (t *DateType) Compare(a, b any) int {
	if c, ok := compareEmpty(a, b); ok {
		return c
	}
	ta, okA := toTime(a)
	tb, okB := toTime(b)
	if !okA || !okB {
		return CompareValues(a, b)
	}
	return ta.Compare(tb)
}

// Parse accepts the string form JSON-backed stores hand back.
func (t *DateType) Parse(stored any, _ any) any {
	if s, ok := stored.(string); ok {
		if tm, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return tm
		}
	}
	return stored
}

func (t *DateType) Value(value any, _ any) any { return value }

// Match is exact instant equality. Location and monotonic readings are
// ignored.
func (t *DateType) Match(value, query any, _ any) bool {
	tv, okV := value.(time.Time)
	tq, okQ := toTime(query)
	if !okV || !okQ {
		return EqualValues(value, query)
	}
	return tv.Equal(tq)
}
