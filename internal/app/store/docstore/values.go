package docstore

import (
	"math"
	"reflect"
	"strings"
	"time"
)

// String returns the field as a string, or "" if absent or not a string.
func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the field as a bool. Absent or non-bool values are false.
func (d Doc) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Float returns a numeric field as float64.
func (d Doc) Float(key string) float64 {
	f, _ := toFloat(d[key])
	return f
}

// Time returns a timestamp field. RFC 3339 strings are accepted.
func (d Doc) Time(key string) time.Time {
	switch v := d[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Strings returns an array field as strings, skipping non-string elements.
func (d Doc) Strings(key string) []string {
	items := toSlice(d[key])
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Ints returns an array field as ints, skipping non-integral elements.
func (d Doc) Ints(key string) []int {
	items := toSlice(d[key])
	out := make([]int, 0, len(items))
	for _, it := range items {
		f, ok := toFloat(it)
		if !ok || f != math.Trunc(f) {
			continue
		}
		out = append(out, int(f))
	}
	return out
}

// Clone returns a deep copy of the document.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Doc:
		return Doc(cloneValue(map[string]any(t)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	default:
		return v
	}
}

// toSlice flattens any slice value into []any.
func toSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders two scalar values of compatible type.
// ok is false when the values cannot be compared.
func compareValues(a, b any) (cmp int, ok bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// resolveTimestamps returns a copy of d with ServerTimestamp values replaced
// by conv(now). Nested maps are resolved too.
func resolveTimestamps(d Doc, now time.Time, conv func(time.Time) any) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = resolveValue(v, now, conv)
	}
	return out
}

func resolveValue(v any, now time.Time, conv func(time.Time) any) any {
	switch t := v.(type) {
	case serverTimestamp:
		return conv(now)
	case Doc:
		return resolveTimestamps(t, now, conv)
	case map[string]any:
		return map[string]any(resolveTimestamps(Doc(t), now, conv))
	default:
		return cloneValue(v)
	}
}

func matches(d Doc, f Filter) bool {
	v, present := d[f.Field]
	if !present {
		return false
	}
	switch f.Op {
	case OpEq:
		return valuesEqual(v, f.Value)
	case OpArrayContains:
		for _, it := range toSlice(v) {
			if valuesEqual(it, f.Value) {
				return true
			}
		}
		return false
	case OpGTE:
		c, ok := compareValues(v, f.Value)
		return ok && c >= 0
	case OpLTE:
		c, ok := compareValues(v, f.Value)
		return ok && c <= 0
	}
	return false
}
