package toc

import "fmt"

// Block is one contiguous run of count array elements packed back-to-back
// within [Start, End) (spec.md §3's block-list position form).
type Block struct {
	Count int
	Start int
	End   int
}

// Node is one entry of the table of contents: either a leaf position, an
// array-of-blocks position, or a container with indexed children plus a
// position. Exactly one of (plain position, Blocks, ChildrenKind !=
// ChildrenNone) combination applies per the shape rules in spec.md §3.
//
// On the write side ChildMap/ChildList values are concrete *Node children
// produced by Builder; on the read side (toc.Parse, used by the reader
// package) they are left as the raw decoded values so a combined archive's
// plain-integer children can be told apart from ordinary sub-nodes without
// eagerly descending the whole tree.
type Node struct {
	ChildrenKind ChildrenKind
	ChildMap     map[string]any
	ChildList    []any

	HasPos bool
	Start  int
	End    int

	Blocks []Block

	// small is write-time-only bookkeeping (spec.md §4.4) and is never
	// serialized.
	small bool
}

// Len reports how many logical children this node has: map entries, list
// entries, or the sum of block counts for a block-grouped array.
func (n *Node) Len() int {
	switch n.ChildrenKind {
	case ChildrenMap:
		return len(n.ChildMap)
	case ChildrenList:
		return len(n.ChildList)
	default:
		total := 0
		for _, b := range n.Blocks {
			total += b.Count
		}

		return total
	}
}

// Flatten converts the node into the plain map[string]any/[]any shape the
// codec packs, dropping any field that is absent (spec.md §4.4: "any node
// field that is falsy is dropped").
func (n *Node) Flatten() any {
	out := make(map[string]any, 2)

	switch n.ChildrenKind {
	case ChildrenMap:
		if len(n.ChildMap) > 0 {
			m := make(map[string]any, len(n.ChildMap))
			for k, v := range n.ChildMap {
				m[k] = flattenChild(v)
			}
			out["t"] = m
		}
	case ChildrenList:
		if len(n.ChildList) > 0 {
			l := make([]any, len(n.ChildList))
			for i, v := range n.ChildList {
				l[i] = flattenChild(v)
			}
			out["t"] = l
		}
	}

	switch {
	case len(n.Blocks) > 0:
		blocks := make([]any, len(n.Blocks))
		for i, b := range n.Blocks {
			blocks[i] = []any{b.Count, b.Start, b.End}
		}
		out["p"] = blocks
	case n.HasPos:
		out["p"] = []any{n.Start, n.End}
	}

	return out
}

func flattenChild(v any) any {
	if child, ok := v.(*Node); ok {
		return child.Flatten()
	}

	return v
}

// Parse reconstructs a Node from one level of a decoded TOC value (as
// produced by codec.Unpacker.Unpack). It does not recurse: ChildMap/
// ChildList entries are left as raw decoded values, so the reader package can
// distinguish a combined-archive offset (a bare integer) from an ordinary
// sub-node (a map) before deciding whether to call Parse again.
func Parse(raw any) (*Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("toc: expected a TOC node, got %T", raw)
	}

	n := &Node{}

	if tRaw, ok := m["t"]; ok {
		switch t := tRaw.(type) {
		case map[string]any:
			n.ChildrenKind = ChildrenMap
			n.ChildMap = t
		case []any:
			n.ChildrenKind = ChildrenList
			n.ChildList = t
		default:
			return nil, fmt.Errorf("toc: unrecognized children shape %T", tRaw)
		}
	}

	if pRaw, ok := m["p"]; ok {
		if err := n.parsePos(pRaw); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func (n *Node) parsePos(pRaw any) error {
	posList, ok := pRaw.([]any)
	if !ok || len(posList) == 0 {
		return fmt.Errorf("toc: malformed position field %#v", pRaw)
	}

	if _, isBlockList := posList[0].([]any); isBlockList {
		blocks := make([]Block, len(posList))
		for i, entry := range posList {
			triple, ok := entry.([]any)
			if !ok || len(triple) != 3 {
				return fmt.Errorf("toc: malformed block entry %#v", entry)
			}
			count, ok1 := toInt(triple[0])
			start, ok2 := toInt(triple[1])
			end, ok3 := toInt(triple[2])
			if !ok1 || !ok2 || !ok3 {
				return fmt.Errorf("toc: non-integer block entry %#v", entry)
			}
			blocks[i] = Block{Count: count, Start: start, End: end}
		}
		n.Blocks = blocks

		return nil
	}

	if len(posList) != 2 {
		return fmt.Errorf("toc: malformed position range %#v", posList)
	}
	start, ok1 := toInt(posList[0])
	end, ok2 := toInt(posList[1])
	if !ok1 || !ok2 {
		return fmt.Errorf("toc: non-integer position range %#v", posList)
	}
	n.Start, n.End, n.HasPos = start, end, true

	return nil
}

// AsOffset reports whether raw is a bare integer rather than a TOC node map —
// the discriminator a combined archive's children use in place of an ordinary
// sub-node (spec.md §3, §9).
func AsOffset(raw any) (int64, bool) {
	switch x := raw.(type) {
	case map[string]any:
		return 0, false
	default:
		n, ok := toInt64(x)
		return n, ok
	}
}

func toInt(v any) (int, bool) {
	n, ok := toInt64(v)
	return int(n), ok
}

// ToInt64 converts any of the integer kinds a codec may decode into into an
// int64. Used by the reader package to decode the 10-byte header fields.
func ToInt64(v any) (int64, bool) {
	return toInt64(v)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}
