// Package pathkey implements the "/"-separated navigation path syntax
// spec.md §9 defines for Reader.Read/Visit: plain string keys for dict
// lookup, bare (possibly negative, wrap-around) integers for list indexing,
// and start:stop / start:step:stop slice expressions.
//
// Segments can only be classified once the size of the container being
// navigated into is known (wrap-around needs it), so Resolve takes the
// current container length as a parameter — mirroring the original's
// to_index(key, len(target)) called once per navigation step, not
// precomputed for the whole path up front.
package pathkey

import (
	"strconv"
	"strings"
)

// Kind discriminates the three Segment shapes.
type Kind int

const (
	// KindKey is a literal dict key.
	KindKey Kind = iota
	// KindIndex is a normalized, non-negative list index.
	KindIndex
	// KindSlice is a normalized [Start, Stop) range with a Step.
	KindSlice
)

// Bounds is a normalized half-open slice range with a step, equivalent to a
// Python slice(start, stop, step).
type Bounds struct {
	Start int
	Stop  int
	Step  int
}

// Segment is one resolved step of a navigation path.
type Segment struct {
	Kind   Kind
	Key    string
	Index  int
	Bounds Bounds
}

// Split breaks path on "/" and drops empty segments, matching the original's
// `path.split("/")` followed by filtering out "" entries (so "a//b" and
// "/a/b/" both yield ["a", "b"]).
func Split(path string) []string {
	if path == "" {
		return nil
	}

	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r != "" {
			out = append(out, r)
		}
	}

	return out
}

// Resolve classifies token against a container of totalSize elements: a bare
// integer becomes a wrap-around-normalized KindIndex, a recognized slice
// expression becomes a KindSlice, and anything else is treated as a literal
// KindKey for dict lookup.
func Resolve(token string, totalSize int) Segment {
	if n, ok := parseInt(token); ok {
		return Segment{Kind: KindIndex, Index: NormalizeIndex(n, totalSize)}
	}

	if b, ok := parseSlice(token, totalSize); ok {
		return Segment{Kind: KindSlice, Bounds: b}
	}

	return Segment{Kind: KindKey, Key: token}
}

// NormalizeIndex wraps index into [0, totalSize) by repeatedly adding or
// subtracting totalSize, the same rule the original applies to every list
// index before use — a negative index counts back from the end, and an
// out-of-range index (either direction) wraps around repeatedly rather than
// just once. For an empty container (totalSize <= 0) it returns 0.
func NormalizeIndex(index, totalSize int) int {
	if totalSize <= 0 {
		return 0
	}
	for index < 0 {
		index += totalSize
	}
	for index >= totalSize {
		index -= totalSize
	}

	return index
}

// normalizeBound is NormalizeIndex's counterpart for a slice stop bound,
// which is allowed to equal totalSize (one past the last element) instead of
// being capped at totalSize-1. For an empty container it returns 0.
func normalizeBound(index, totalSize int) int {
	if totalSize <= 0 {
		return 0
	}
	for index < 0 {
		index += totalSize
	}
	for index > totalSize {
		index -= totalSize
	}

	return index
}

func parseInt(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}

	return n, true
}

// parseSlice recognizes "start:stop" and "start:step:stop" — note the step
// sits in the MIDDLE for the three-field form, not at the end as Python
// slice notation would suggest; this is an intentional, preserved quirk of
// the path syntax (spec.md §9).
func parseSlice(token string, totalSize int) (Bounds, bool) {
	parts := strings.Split(token, ":")

	switch len(parts) {
	case 2:
		start, ok := parseIntOrDefault(parts[0], 0)
		if !ok {
			return Bounds{}, false
		}
		stop, ok := parseIntOrDefault(parts[1], totalSize)
		if !ok {
			return Bounds{}, false
		}

		return Bounds{
			Start: NormalizeIndex(start, totalSize),
			Stop:  normalizeBound(stop, totalSize),
			Step:  1,
		}, true

	case 3:
		start, ok := parseIntOrDefault(parts[0], 0)
		if !ok {
			return Bounds{}, false
		}
		step, ok := parseIntOrDefault(parts[1], 1)
		if !ok {
			return Bounds{}, false
		}
		stop, ok := parseIntOrDefault(parts[2], totalSize)
		if !ok {
			return Bounds{}, false
		}

		return Bounds{
			Start: NormalizeIndex(start, totalSize),
			Stop:  normalizeBound(stop, totalSize),
			Step:  step,
		}, true

	default:
		return Bounds{}, false
	}
}

func parseIntOrDefault(field string, def int) (int, bool) {
	if field == "" {
		return def, true
	}

	return parseInt(field)
}
