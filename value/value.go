// Package value defines the two container shapes the caller's data model
// needs beyond what Go's built-ins give for free: an order-preserving map
// (spec.md §3 requires the TOC builder to pack map entries in the caller's
// own order, which a plain Go map cannot remember) and a set that is sorted
// before writing so its on-disk encoding is deterministic.
package value

import (
	"fmt"
	"sort"
)

// Map is an insertion-ordered string-keyed map. The zero value is not usable;
// construct with NewMap.
type Map struct {
	keys []string
	m    map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{m: make(map[string]any)}
}

// Set assigns key to v, appending key to the iteration order on first use and
// leaving the existing position untouched on overwrite.
func (mp *Map) Set(key string, v any) *Map {
	if _, ok := mp.m[key]; !ok {
		mp.keys = append(mp.keys, key)
	}
	mp.m[key] = v

	return mp
}

// Get looks up key.
func (mp *Map) Get(key string) (any, bool) {
	v, ok := mp.m[key]
	return v, ok
}

// Len returns the number of entries.
func (mp *Map) Len() int {
	if mp == nil {
		return 0
	}

	return len(mp.keys)
}

// Keys returns the entries in insertion order. The returned slice is owned by
// the caller.
func (mp *Map) Keys() []string {
	out := make([]string, len(mp.keys))
	copy(out, mp.keys)

	return out
}

// Range calls fn for every entry in insertion order, stopping early if fn
// returns false.
func (mp *Map) Range(fn func(key string, v any) bool) {
	for _, k := range mp.keys {
		if !fn(k, mp.m[k]) {
			return
		}
	}
}

// Set is an unordered collection of comparable values. Sorted() produces the
// deterministic ordering the TOC builder packs (spec.md §3: "sets are sorted
// before writing to make output deterministic").
type Set struct {
	items []any
}

// NewSet collects items into a Set.
func NewSet(items ...any) *Set {
	return &Set{items: append([]any(nil), items...)}
}

// Add appends v to the set.
func (s *Set) Add(v any) *Set {
	s.items = append(s.items, v)
	return s
}

// Len returns the number of items.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.items)
}

// Sorted returns the items in a deterministic order: grouped by a coarse
// type rank (bool, number, string, other) and then compared within a rank.
// The number rank covers int, int32, int64, float32 and float64 only; every
// other type, unsigned integers included, is ranked "other" and compared by
// its fmt.Sprint form.
func (s *Set) Sorted() []any {
	out := append([]any(nil), s.items...)
	sort.Slice(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	return out
}

func less(a, b any) bool {
	ra, fa, sa := rank(a)
	rb, fb, sb := rank(b)
	if ra != rb {
		return ra < rb
	}
	if ra == rankNumber {
		return fa < fb
	}

	return sa < sb
}

const (
	rankBool = iota
	rankNumber
	rankString
	rankOther
)

func rank(v any) (kind int, num float64, str string) {
	switch x := v.(type) {
	case bool:
		if x {
			return rankBool, 1, ""
		}

		return rankBool, 0, ""
	case int:
		return rankNumber, float64(x), ""
	case int64:
		return rankNumber, float64(x), ""
	case int32:
		return rankNumber, float64(x), ""
	case float64:
		return rankNumber, x, ""
	case float32:
		return rankNumber, float64(x), ""
	case string:
		return rankString, 0, x
	default:
		return rankOther, 0, fmt.Sprint(x)
	}
}
