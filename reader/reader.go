// Package reader implements the open sequence, header validation, and
// LazyItem materialization tree of spec.md §4.6: a Reader decodes just the
// root TOC on Open, then lazily instantiates LazyList/LazyDict/nested
// Reader children as a path is walked, reading only the payload bytes a
// given access actually needs.
package reader

import (
	"context"
	"fmt"

	"github.com/TLCFEM/msglc-go/codec"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/errs"
	"github.com/TLCFEM/msglc-go/internal/gcguard"
	"github.com/TLCFEM/msglc-go/internal/options"
	"github.com/TLCFEM/msglc-go/pathkey"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/toc"
)

// headerReserve mirrors writer.headerReserve: two 10-byte packed integers.
const headerReserve = 20

// Value is implemented by LazyList and LazyDict, the two non-leaf shapes a
// TOC node can materialize into.
type Value interface {
	// Len reports the number of logical children.
	Len() int
	// ToPlainObject recursively materializes this value and everything it
	// reaches into native Go values (map[string]any / []any / scalars).
	ToPlainObject() (any, error)
}

// Reader opens one file (or one embedded entry of a combined archive,
// sharing the outer's storage.Store) and navigates it lazily.
type Reader struct {
	store storage.Store
	codec codec.Codec
	cfg   config.Config
	cache bool

	base     int64
	rootNode *toc.Node
	rootVal  any

	stats    *Stats
	release  func()
	embedded bool
}

// Option configures a Reader at construction time.
type Option = options.Option[*Reader]

// WithCodec overrides the codec used to decode the payload and TOC.
func WithCodec(c codec.Codec) Option {
	return options.NoError[*Reader](func(r *Reader) { r.codec = c })
}

// WithConfig overrides the process-wide config.Config for this Reader only.
func WithConfig(cfg config.Config) Option {
	return options.NoError[*Reader](func(r *Reader) { r.cfg = cfg })
}

// WithCache toggles whether LazyList/LazyDict children retain materialized
// values between accesses (spec.md §4.6's "cached" flag). Defaults to true;
// set false for large streaming scans where memory matters more than CPU.
func WithCache(enabled bool) Option {
	return options.NoError[*Reader](func(r *Reader) { r.cache = enabled })
}

// Open opens store at its current position as the start of a file.
func Open(store storage.Store, opts ...Option) (*Reader, error) {
	r := &Reader{store: store, codec: codec.NewMsgpack(), cfg: config.Global(), cache: true, stats: &Stats{}}
	if err := options.Apply[*Reader](r, opts...); err != nil {
		return nil, err
	}

	r.release = gcguard.Acquire(r.cfg.DisableGC)

	if err := r.openAt(-1); err != nil {
		r.release()
		return nil, err
	}

	return r, nil
}

// OpenFile is a convenience constructor that opens path on the local
// filesystem for reading.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	cfg := config.Global()
	fs := storage.NewLocalFileSystem(cfg.ReadBufferSize, cfg.WriteBufferSize)
	store, err := fs.Open(path, storage.ModeRead)
	if err != nil {
		return nil, err
	}

	return Open(store, opts...)
}

// openAt implements spec.md §4.6's open sequence. pos < 0 means "begin at
// the store's current position" (a fresh top-level open); pos >= 0 seeks
// there first (an embedded reader sharing the outer's store).
func (r *Reader) openAt(pos int64) error {
	headerPos := pos
	if pos >= 0 {
		if err := r.store.Seek(pos); err != nil {
			return err
		}
	} else {
		var err error
		headerPos, err = r.store.Tell()
		if err != nil {
			return err
		}
	}

	magicLen := len(r.cfg.PaddedMagic())
	header, err := r.store.Read(magicLen + headerReserve)
	if err != nil {
		return err
	}
	if len(header) != magicLen+headerReserve {
		return fmt.Errorf("%w: truncated header", errs.ErrInvalidMagic)
	}

	if !r.cfg.CheckCompatibility(header[:magicLen]) {
		return fmt.Errorf("%w: header does not match the configured magic", errs.ErrInvalidMagic)
	}

	tocOffset, err := r.decodePadded(header[magicLen : magicLen+10])
	if err != nil {
		return err
	}
	tocSize, err := r.decodePadded(header[magicLen+10 : magicLen+20])
	if err != nil {
		return err
	}

	r.base = headerPos + int64(magicLen) + headerReserve

	if err := r.store.Seek(r.base + tocOffset); err != nil {
		return err
	}
	tocBytes, err := r.store.Read(int(tocSize))
	if err != nil {
		return err
	}

	rawTOC, err := r.codec.Unpack(tocBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedTOC, err)
	}
	node, err := toc.Parse(rawTOC)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedTOC, err)
	}

	r.rootNode = node

	return nil
}

func (r *Reader) decodePadded(field []byte) (int64, error) {
	stripped := stripLeadingZeros(field)
	if len(stripped) == 0 {
		return 0, nil
	}

	v, err := r.codec.Unpack(stripped)
	if err != nil {
		return 0, err
	}
	n, ok := toc.ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("%w: header field did not decode to an integer", errs.ErrInvalidMagic)
	}

	return n, nil
}

func stripLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}

	return b[i:]
}

// rootValue lazily materializes and caches the file's root value.
func (r *Reader) rootValue() (any, error) {
	if r.rootVal == nil {
		v, err := r.materializeNode(r.rootNode)
		if err != nil {
			return nil, err
		}
		r.rootVal = v
	}

	return r.rootVal, nil
}

// materialize turns one raw child entry (as stored in a parent's ChildMap/
// ChildList) into a scalar, a Value (LazyList/LazyDict), or a nested *Reader
// for a combined-archive entry — the four LazyItem variants of spec.md §4.6.
func (r *Reader) materialize(raw any) (any, error) {
	if offset, ok := toc.AsOffset(raw); ok {
		return r.embeddedReader(offset)
	}

	node, err := toc.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedTOC, err)
	}

	return r.materializeNode(node)
}

func (r *Reader) materializeNode(node *toc.Node) (any, error) {
	switch {
	case len(node.Blocks) > 0:
		return newLazyList(r, node), nil
	case node.ChildrenKind == toc.ChildrenList:
		return newLazyList(r, node), nil
	case node.ChildrenKind == toc.ChildrenMap:
		return newLazyDict(r, node), nil
	default:
		return r.decodeRange(node.Start, node.End)
	}
}

func (r *Reader) decodeRange(start, end int) (any, error) {
	if err := r.store.Seek(r.base + int64(start)); err != nil {
		return nil, err
	}
	data, err := r.store.Read(end - start)
	if err != nil {
		return nil, err
	}
	r.stats.add(len(data))

	return r.codec.Unpack(data)
}

// embeddedReader instantiates a new Reader at offset (relative to r's
// payload base), sharing r's underlying store — spec.md §4.6's "embedded
// Reader" LazyItem variant used for combined archives.
func (r *Reader) embeddedReader(offset int64) (*Reader, error) {
	nr := &Reader{store: r.store, codec: r.codec, cfg: r.cfg, cache: r.cache, stats: r.stats, embedded: true}
	if err := nr.openAt(r.base + offset); err != nil {
		return nil, err
	}

	return nr, nil
}

// Read walks path from the root and returns the value at its end: a scalar,
// a []any for a slice segment or an inlined small array, a map[string]any
// for an inlined small map, or a Value (LazyList/LazyDict) that stays lazy.
// Call ToPlainObject on a returned Value for a fully materialized result.
func (r *Reader) Read(path string) (any, error) {
	return r.ReadContext(context.Background(), path)
}

// Visit is Read restricted, by convention, to full path-string navigation
// (spec.md §4.6); it behaves identically to Read.
func (r *Reader) Visit(path string) (any, error) {
	return r.Read(path)
}

// ReadContext is Read with cancellation checked before each navigation step.
// Storage reads inside a step are not interrupted by ctx.
func (r *Reader) ReadContext(ctx context.Context, path string) (any, error) {
	root, err := r.rootValue()
	if err != nil {
		return nil, err
	}

	target := root
	for _, token := range pathkey.Split(path) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if nested, ok := target.(*Reader); ok {
			target, err = nested.rootValue()
			if err != nil {
				return nil, err
			}
		}

		target, err = r.step(target, token)
		if err != nil {
			return nil, err
		}
	}

	if nested, ok := target.(*Reader); ok {
		return nested.rootValue()
	}

	return target, nil
}

// VisitContext is the context-aware counterpart of Visit.
func (r *Reader) VisitContext(ctx context.Context, path string) (any, error) {
	return r.ReadContext(ctx, path)
}

// step resolves one path segment against target, following spec.md §4.3: a
// dict uses the segment literally as a key, a list runs it through the path
// parser (integer, negative integer, or slice).
//
// A small map/array that the TOC builder inlined (spec.md §4.4 rules 6/9)
// carries no indexed children, so it surfaces here as a plain
// map[string]any/[]any straight out of decodeRange rather than as a
// LazyDict/LazyList — it was already materialized whole, but the segment
// still has to be applied against it the same way.
func (r *Reader) step(target any, token string) (any, error) {
	switch t := target.(type) {
	case *LazyDict:
		return t.Get(token)
	case *LazyList:
		seg := pathkey.Resolve(token, t.Len())
		switch seg.Kind {
		case pathkey.KindIndex:
			return t.Get(seg.Index)
		case pathkey.KindSlice:
			return t.GetSlice(seg.Bounds)
		default:
			return nil, fmt.Errorf("%w: %q is not a valid list index or slice", errs.ErrInvalidPath, token)
		}
	case map[string]any:
		v, ok := t[token]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrKeyNotFound, token)
		}

		return v, nil
	case []any:
		seg := pathkey.Resolve(token, len(t))
		switch seg.Kind {
		case pathkey.KindIndex:
			if seg.Index < 0 || seg.Index >= len(t) {
				return nil, fmt.Errorf("%w: %q", errs.ErrEmptyList, token)
			}

			return t[seg.Index], nil
		case pathkey.KindSlice:
			return sliceAny(t, seg.Bounds)
		default:
			return nil, fmt.Errorf("%w: %q is not a valid list index or slice", errs.ErrInvalidPath, token)
		}
	default:
		return nil, fmt.Errorf("%w: cannot navigate into a scalar with segment %q", errs.ErrInvalidPath, token)
	}
}

// sliceAny applies b to an already fully-materialized []any, mirroring
// LazyList.GetSlice for the inlined-small-array case.
func sliceAny(list []any, b pathkey.Bounds) ([]any, error) {
	step := b.Step
	if step == 0 {
		return nil, fmt.Errorf("%w: slice step must not be zero", errs.ErrInvalidPath)
	}

	out := []any{}
	if step > 0 {
		for i := b.Start; i < b.Stop; i += step {
			out = append(out, list[i])
		}
	} else {
		for i := b.Start; i > b.Stop; i += step {
			out = append(out, list[i])
		}
	}

	return out, nil
}

// ToPlainObject fully materializes the file's entire content into native Go
// values.
func (r *Reader) ToPlainObject() (any, error) {
	root, err := r.rootValue()
	if err != nil {
		return nil, err
	}

	return flatten(root)
}

// flatten recursively resolves Value/*Reader results from a lazy access into
// plain Go values.
func flatten(v any) (any, error) {
	switch x := v.(type) {
	case Value:
		return x.ToPlainObject()
	case *Reader:
		return x.ToPlainObject()
	default:
		return v, nil
	}
}

// Stats returns a snapshot of the bytes/read-call counters accumulated by
// this Reader (and every embedded Reader it produced, since they share one
// *Stats instance).
func (r *Reader) Stats() Stats {
	return *r.stats
}

// Close releases the underlying storage and the cooperative GC guard. An
// embedded Reader (produced by navigating into a combined-archive entry)
// shares its outer Reader's store, so Close on it is a no-op — only the
// outermost Reader owns the handle.
func (r *Reader) Close() error {
	if r.embedded {
		return nil
	}
	if r.release != nil {
		defer r.release()
	}

	return r.store.Close()
}
