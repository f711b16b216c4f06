package reader

import (
	"fmt"

	"github.com/TLCFEM/msglc-go/errs"
	"github.com/TLCFEM/msglc-go/toc"
)

// LazyDict backs a TOC node whose children are a map, per spec.md §4.6.
type LazyDict struct {
	r    *Reader
	node *toc.Node

	cached bool
	values map[string]any
	loaded map[string]bool
}

var _ Value = (*LazyDict)(nil)

func newLazyDict(r *Reader, node *toc.Node) *LazyDict {
	return &LazyDict{
		r:      r,
		node:   node,
		cached: r.cache,
		values: make(map[string]any, len(node.ChildMap)),
		loaded: make(map[string]bool, len(node.ChildMap)),
	}
}

// Len returns the number of keys.
func (d *LazyDict) Len() int { return len(d.node.ChildMap) }

// Get materializes the child at key, failing if it is absent.
func (d *LazyDict) Get(key string) (any, error) {
	if d.cached {
		if v, ok := d.values[key]; ok {
			return v, nil
		}
	}

	raw, ok := d.node.ChildMap[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrKeyNotFound, key)
	}

	v, err := d.r.materialize(raw)
	if err != nil {
		return nil, err
	}

	if d.cached {
		d.values[key] = v
		d.loaded[key] = true
	}

	return v, nil
}

// GetDefault is the non-failing counterpart of Get.
func (d *LazyDict) GetDefault(key string, def any) any {
	v, err := d.Get(key)
	if err != nil {
		return def
	}

	return v
}

// Keys returns the map's keys in no particular order (the underlying Go map
// does not remember insertion order; callers needing a stable order should
// sort the result).
func (d *LazyDict) Keys() []string {
	keys := make([]string, 0, len(d.node.ChildMap))
	for k := range d.node.ChildMap {
		keys = append(keys, k)
	}

	return keys
}

// ToPlainObject materializes every key. It bulk-decodes the node's whole
// byte range in one codec call when cached mode is off or the fast-loading
// heuristic fires; otherwise it materializes each key recursively.
func (d *LazyDict) ToPlainObject() (any, error) {
	n := d.Len()
	if n == 0 {
		return map[string]any{}, nil
	}

	if d.shouldFastLoad(n) && d.node.HasPos {
		return d.bulkDecode()
	}

	out := make(map[string]any, n)
	for k := range d.node.ChildMap {
		v, err := d.Get(k)
		if err != nil {
			return nil, err
		}
		flat, err := flatten(v)
		if err != nil {
			return nil, err
		}
		out[k] = flat
	}

	return out, nil
}

func (d *LazyDict) shouldFastLoad(n int) bool {
	if !d.cached {
		return true
	}
	if !d.r.cfg.FastLoading {
		return false
	}

	return float64(len(d.loaded)) < d.r.cfg.FastLoadingThreshold*float64(n)
}

func (d *LazyDict) bulkDecode() (any, error) {
	if err := d.r.store.Seek(d.r.base + int64(d.node.Start)); err != nil {
		return nil, err
	}
	data, err := d.r.store.Read(d.node.End - d.node.Start)
	if err != nil {
		return nil, err
	}
	d.r.stats.add(len(data))

	decoded, err := d.r.codec.Unpack(data)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("msglc: expected a map while fast-loading, got %T", decoded)
	}

	if d.cached {
		for k, v := range m {
			d.values[k] = v
			d.loaded[k] = true
		}
	}

	return m, nil
}
