package vectorstore

import (
	"fmt"
	"sort"
)

// Op is a filter comparison operator (spec.md §4.B filter grammar).
type Op string

const (
	OpEq    Op = "eq"
	OpIn    Op = "in"
	OpGte   Op = "gte"
	OpLte   Op = "lte"
	OpRange Op = "range"
	// OpAny matches when actual (itself an array payload field, e.g. tags)
	// shares at least one element with f.Value's candidate list — the
	// "tags-any" filter spec.md §4.H's search_memories needs.
	OpAny Op = "any"
)

// Filter is one conjunct in a payload filter: (field, op, value). A search
// or scroll call's Filter slice is an implicit AND across all elements.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Range is the Value shape expected for OpRange ({Min, Max}, both inclusive).
type Range struct {
	Min any
	Max any
}

// Matches reports whether payload satisfies every filter (conjunction).
func Matches(payload Payload, filters []Filter) bool {
	for _, f := range filters {
		if !matchOne(payload, f) {
			return false
		}
	}
	return true
}

func matchOne(payload Payload, f Filter) bool {
	actual, ok := payload[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return fmt.Sprint(actual) == fmt.Sprint(f.Value)
	case OpIn:
		values, ok := asSlice(f.Value)
		if !ok {
			return false
		}
		for _, v := range values {
			if fmt.Sprint(v) == fmt.Sprint(actual) {
				return true
			}
		}
		return false
	case OpGte:
		a, b, ok := asComparable(actual, f.Value)
		return ok && a >= b
	case OpLte:
		a, b, ok := asComparable(actual, f.Value)
		return ok && a <= b
	case OpRange:
		r, ok := f.Value.(Range)
		if !ok {
			return false
		}
		a, min, ok1 := asComparable(actual, r.Min)
		a2, max, ok2 := asComparable(actual, r.Max)
		return ok1 && ok2 && a >= min && a2 <= max
	case OpAny:
		haystack, ok := asSlice(actual)
		if !ok {
			return false
		}
		candidates, ok := asSlice(f.Value)
		if !ok {
			return false
		}
		for _, c := range candidates {
			for _, h := range haystack {
				if fmt.Sprint(c) == fmt.Sprint(h) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

func asComparable(actual, target any) (float64, float64, bool) {
	a, ok1 := toFloat(actual)
	b, ok2 := toFloat(target)
	return a, b, ok1 && ok2
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// SortPointsByID provides the "stable ordering by id" guarantee Scroll
// requires (spec.md §4.B).
func SortPointsByID(points []Point) {
	sort.Slice(points, func(i, j int) bool { return points[i].ID < points[j].ID })
}
