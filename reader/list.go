package reader

import (
	"fmt"
	"sort"

	"github.com/TLCFEM/msglc-go/errs"
	"github.com/TLCFEM/msglc-go/pathkey"
	"github.com/TLCFEM/msglc-go/toc"
)

// LazyList backs a TOC node whose children are a list (per-element mode) or
// a block list (block mode), per spec.md §4.6.
type LazyList struct {
	r    *Reader
	node *toc.Node

	cached bool
	values []any
	loaded []bool

	// prefix[i] is the first logical index of block i; only set in block
	// mode. len(prefix) == len(node.Blocks)+1.
	prefix []int
}

var _ Value = (*LazyList)(nil)

func newLazyList(r *Reader, node *toc.Node) *LazyList {
	ll := &LazyList{r: r, node: node, cached: r.cache}

	n := node.Len()
	if n > 0 {
		ll.values = make([]any, n)
		ll.loaded = make([]bool, n)
	}

	if len(node.Blocks) > 0 {
		ll.prefix = make([]int, len(node.Blocks)+1)
		for i, b := range node.Blocks {
			ll.prefix[i+1] = ll.prefix[i] + b.Count
		}
	}

	return ll
}

// Len returns the number of elements: len(t) in per-element mode, sum(count)
// in block mode.
func (l *LazyList) Len() int { return l.node.Len() }

// Get returns element i, normalizing i by wrap-around first.
func (l *LazyList) Get(i int) (any, error) {
	n := l.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w", errs.ErrEmptyList)
	}
	idx := pathkey.NormalizeIndex(i, n)

	if l.cached && l.loaded[idx] {
		return l.values[idx], nil
	}

	var (
		v   any
		err error
	)
	if len(l.node.Blocks) > 0 {
		v, err = l.getBlock(idx)
	} else {
		v, err = l.r.materialize(l.node.ChildList[idx])
	}
	if err != nil {
		return nil, err
	}

	if l.cached {
		l.values[idx] = v
		l.loaded[idx] = true
	}

	return v, nil
}

// getBlock decodes the block covering logical index idx, filling every
// element of that block into the cache (when cached) before returning idx's
// element — "subsequent hits in the same block are free" (spec.md §4.6).
func (l *LazyList) getBlock(idx int) (any, error) {
	k := sort.Search(len(l.node.Blocks), func(i int) bool { return l.prefix[i+1] > idx })
	blk := l.node.Blocks[k]

	if err := l.r.store.Seek(l.r.base + int64(blk.Start)); err != nil {
		return nil, err
	}
	data, err := l.r.store.Read(blk.End - blk.Start)
	if err != nil {
		return nil, err
	}
	l.r.stats.add(len(data))

	values, err := l.r.codec.UnpackAll(data)
	if err != nil {
		return nil, err
	}
	if len(values) != blk.Count {
		return nil, fmt.Errorf("%w: block %d expected %d elements, decoded %d", errs.ErrMalformedTOC, k, blk.Count, len(values))
	}

	if l.cached {
		for j, v := range values {
			pos := l.prefix[k] + j
			l.values[pos] = v
			l.loaded[pos] = true
		}
	}

	return values[idx-l.prefix[k]], nil
}

// GetSlice materializes every element in the normalized range described by
// b, honoring Step (including negative steps).
func (l *LazyList) GetSlice(b pathkey.Bounds) ([]any, error) {
	var out []any

	step := b.Step
	if step == 0 {
		return nil, fmt.Errorf("%w: slice step must not be zero", errs.ErrInvalidPath)
	}

	if step > 0 {
		for i := b.Start; i < b.Stop; i += step {
			v, err := l.Get(i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	} else {
		for i := b.Start; i > b.Stop; i += step {
			v, err := l.Get(i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}

	if out == nil {
		out = []any{}
	}

	return out, nil
}

// ToPlainObject materializes the entire list. In block mode it reads and
// decodes the list block by block. Otherwise it bulk-decodes the node's
// whole byte range in one codec call when cached mode is off or when the
// fast-loading heuristic fires (few elements individually accessed so far),
// and materializes each element recursively in the remaining cases.
func (l *LazyList) ToPlainObject() (any, error) {
	n := l.Len()
	if n == 0 {
		return []any{}, nil
	}

	if len(l.node.Blocks) > 0 {
		return l.decodeAllBlocks()
	}

	if l.shouldFastLoad(n) && l.node.HasPos {
		return l.bulkDecode()
	}

	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		flat, err := flatten(v)
		if err != nil {
			return nil, err
		}
		out[i] = flat
	}

	return out, nil
}

func (l *LazyList) shouldFastLoad(n int) bool {
	if !l.cached {
		return true
	}
	if !l.r.cfg.FastLoading {
		return false
	}

	accessed := 0
	for _, ok := range l.loaded {
		if ok {
			accessed++
		}
	}

	return float64(accessed) < l.r.cfg.FastLoadingThreshold*float64(n)
}

func (l *LazyList) decodeAllBlocks() (any, error) {
	n := l.Len()
	out := make([]any, n)

	for k, blk := range l.node.Blocks {
		if err := l.r.store.Seek(l.r.base + int64(blk.Start)); err != nil {
			return nil, err
		}
		data, err := l.r.store.Read(blk.End - blk.Start)
		if err != nil {
			return nil, err
		}
		l.r.stats.add(len(data))

		values, err := l.r.codec.UnpackAll(data)
		if err != nil {
			return nil, err
		}
		copy(out[l.prefix[k]:l.prefix[k+1]], values)
	}

	if l.cached {
		copy(l.values, out)
		for i := range l.loaded {
			l.loaded[i] = true
		}
	}

	return out, nil
}

func (l *LazyList) bulkDecode() (any, error) {
	if err := l.r.store.Seek(l.r.base + int64(l.node.Start)); err != nil {
		return nil, err
	}
	data, err := l.r.store.Read(l.node.End - l.node.Start)
	if err != nil {
		return nil, err
	}
	l.r.stats.add(len(data))

	decoded, err := l.r.codec.Unpack(data)
	if err != nil {
		return nil, err
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("msglc: expected an array while fast-loading, got %T", decoded)
	}

	if l.cached {
		copy(l.values, list)
		for i := range l.loaded {
			l.loaded[i] = true
		}
	}

	return list, nil
}
