package toc

import (
	"io"

	"github.com/TLCFEM/msglc-go/codec"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/value"
)

// Builder streams a value through a codec.Packer while recording the byte
// range (and, recursively, the byte ranges of its indexable children) that
// the Writer later packs as the file's table of contents (spec.md §4.4).
//
// A Builder is single-use: construct one per write, call Pack once on the
// root value, and discard it.
type Builder struct {
	packer  codec.Packer
	cw      *countingWriter
	small   int
	trivial int
}

// countingWriter tracks bytes written so Builder.pos can report positions
// relative to wherever the Writer started the TOC-builder phase, without the
// Builder needing a Seek/Tell-capable destination.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n

	return n, err
}

// NewBuilder returns a Builder that packs into w using cdc, honoring cfg's
// SMALL/TRIVIAL thresholds.
func NewBuilder(cdc codec.Codec, w io.Writer, cfg config.Config) *Builder {
	cw := &countingWriter{w: w}

	return &Builder{
		packer:  cdc.NewPacker(cw),
		cw:      cw,
		small:   cfg.SmallObjOptimizationThreshold,
		trivial: cfg.TrivialSize,
	}
}

func (b *Builder) pos() int { return b.cw.n }

// Pack packs v and returns the TOC node describing it, applying the shape
// rules of spec.md §3/§4.4: scalars are packed directly, *value.Set is
// sorted into a list first, *value.Map packs in its recorded key order, and
// plain []any/map[string]any are accepted as convenience input (their
// iteration/packing order for map[string]any follows whatever order Go's
// range gives, since a native map remembers none).
func (b *Builder) Pack(v any) (*Node, error) {
	switch vv := v.(type) {
	case *value.Set:
		return b.packList(vv.Sorted())
	case *value.Map:
		return b.packMap(vv)
	case map[string]any:
		m := value.NewMap()
		for k, elem := range vv {
			m.Set(k, elem)
		}

		return b.packMap(m)
	case []any:
		return b.packList(vv)
	default:
		s := b.pos()
		if err := b.packer.PackValue(v); err != nil {
			return nil, err
		}
		e := b.pos()

		return &Node{Start: s, End: e, HasPos: true, small: e-s <= b.trivial}, nil
	}
}

// packMap implements spec.md §4.4 steps 4, 7, 9, 10 for a map value.
func (b *Builder) packMap(m *value.Map) (*Node, error) {
	s := b.pos()
	n := m.Len()
	if err := b.packer.PackMapHeader(n); err != nil {
		return nil, err
	}

	children := make(map[string]any, n)
	allSmall := true

	var rangeErr error
	m.Range(func(k string, v any) bool {
		if err := b.packer.PackValue(k); err != nil {
			rangeErr = err
			return false
		}
		child, err := b.Pack(v)
		if err != nil {
			rangeErr = err
			return false
		}
		children[k] = child
		if !child.small {
			allSmall = false
		}

		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}

	e := b.pos()

	// rule 2: inline when the whole map is small, or every child is small
	// (maps are never block-grouped — rule 9 always falls back to rule 7).
	if e-s < b.small || allSmall {
		return &Node{Start: s, End: e, HasPos: true, small: e-s <= b.trivial}, nil
	}

	return &Node{ChildrenKind: ChildrenMap, ChildMap: children, Start: s, End: e, HasPos: true}, nil
}

// packList implements spec.md §4.4 steps 6, 7, 8, 10 for a list value. The
// homogeneous-numeric fast path of step 5 is a performance-only shortcut that
// produces the identical block-grouped structure this generic path already
// computes via groupBlocks, so it is intentionally not special-cased.
func (b *Builder) packList(list []any) (*Node, error) {
	s := b.pos()
	n := len(list)
	if err := b.packer.PackArrayHeader(n); err != nil {
		return nil, err
	}

	children := make([]any, n)
	childNodes := make([]*Node, n)
	allSmall := true
	for i, elem := range list {
		child, err := b.Pack(elem)
		if err != nil {
			return nil, err
		}
		children[i] = child
		childNodes[i] = child
		if !child.small {
			allSmall = false
		}
	}

	e := b.pos()

	if e-s < b.small {
		return &Node{Start: s, End: e, HasPos: true, small: e-s <= b.trivial}, nil
	}

	if n > 0 && allSmall {
		blocks := groupBlocks(childNodes, b.small)
		if len(blocks) == 1 {
			return &Node{Start: s, End: e, HasPos: true, small: e-s <= b.trivial}, nil
		}

		return &Node{Blocks: blocks, Start: s, End: e, small: e-s <= b.trivial}, nil
	}

	return &Node{ChildrenKind: ChildrenList, ChildList: children, Start: s, End: e, HasPos: true}, nil
}

// groupBlocks implements the block grouping invariant of spec.md §3:
// greedily accumulate consecutive children, each one added before its
// cumulative packed span is checked, until that sum exceeds small; the
// element that tips the sum over is still part of the group. The last
// partial group is emitted as-is.
func groupBlocks(nodes []*Node, small int) []Block {
	var blocks []Block

	i := 0
	for i < len(nodes) {
		start := nodes[i].Start
		end := start
		sum := 0
		count := 0

		for i < len(nodes) {
			span := nodes[i].End - nodes[i].Start
			sum += span
			end = nodes[i].End
			count++
			i++

			if sum > small {
				break
			}
		}

		blocks = append(blocks, Block{Count: count, Start: start, End: end})
	}

	return blocks
}
