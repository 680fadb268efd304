package schema

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cross-type ordering ranks: null < numbers < strings < objects < arrays <
// ObjectIDs < booleans < dates < anything else.
const (
	rankEmpty = iota
	rankNumber
	rankString
	rankObject
	rankArray
	rankObjectID
	rankBoolean
	rankDate
	rankOther
)

func rank(v any) int {
	if isEmpty(v) {
		return rankEmpty
	}
	if _, ok := toNumber(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case string:
		return rankString
	case uuid.UUID:
		return rankObjectID
	case bool:
		return rankBoolean
	case time.Time:
		return rankDate
	}
	if _, ok := asMap(v); ok {
		return rankObject
	}
	if _, ok := asSlice(v); ok {
		return rankArray
	}
	return rankOther
}

// CompareValues orders two arbitrary values using the cross-type order.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankEmpty:
		return 0
	case rankNumber:
		fa, _ := toNumber(a)
		fb, _ := toNumber(b)
		return cmp.Compare(fa, fb)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankObject:
		ma, _ := asMap(a)
		mb, _ := asMap(b)
		return compareMaps(ma, mb)
	case rankArray:
		sa, _ := asSlice(a)
		sb, _ := asSlice(b)
		for i := 0; i < len(sa) && i < len(sb); i++ {
			if c := CompareValues(sa[i], sb[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(sa), len(sb))
	case rankObjectID:
		ia, ib := a.(uuid.UUID), b.(uuid.UUID)
		return bytes.Compare(ia[:], ib[:])
	case rankBoolean:
		return compareBools(a.(bool), b.(bool))
	case rankDate:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareMaps(a, b map[string]any) int {
	ka, kb := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := CompareValues(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ka), len(kb))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// EqualValues reports deep equality with numeric normalisation. nil and
// Undefined are considered equal to each other.
func EqualValues(a, b any) bool {
	if isEmpty(a) || isEmpty(b) {
		return isEmpty(a) && isEmpty(b)
	}
	if fa, ok := toNumber(a); ok {
		fb, ok := toNumber(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case string, bool, uuid.UUID:
		return a == b
	}
	if ma, ok := asMap(a); ok {
		mb, ok := asMap(b)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, v := range ma {
			w, ok := mb[k]
			if !ok || !EqualValues(v, w) {
				return false
			}
		}
		return true
	}
	if sa, ok := asSlice(a); ok {
		sb, ok := asSlice(b)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !EqualValues(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asSlice returns v as []any. A []any is returned as is; other slice and
// array kinds are converted into a new []any.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, ok := v.(uuid.UUID); ok {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap returns v as map[string]any. Other string-keyed maps are converted
// into a new map.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// cloneValue deep-copies maps and slices so defaults are never shared between
// documents.
func cloneValue(v any) any {
	if m, ok := asMap(v); ok {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = cloneValue(val)
		}
		return out
	}
	if s, ok := asSlice(v); ok {
		out := make([]any, len(s))
		for i, val := range s {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
