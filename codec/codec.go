// Package codec adapts an external MessagePack-compatible library behind the
// minimal interface the toc/writer/reader packages need: a packer that can
// write a value and, for arrays/maps, emit the container header separately
// from the elements; and an unpacker that decodes one value from a byte
// slice.
//
// The split mirrors the teacher's Compressor/Decompressor/Codec layering in
// compress/codec.go, generalized from (de)compression to (un)packing.
package codec

import "io"

// Packer writes self-describing values to the io.Writer it was bound to at
// construction time.
//
// PackArrayHeader/PackMapHeader followed by n calls to PackValue must
// produce exactly the bytes PackValue([n values]) / PackValue({n pairs})
// would have produced — the toc.Builder interleaves header emission with
// recursive sub-packing and relies on this (spec.md §4.1).
type Packer interface {
	// PackValue encodes v.
	PackValue(v any) error
	// PackArrayHeader writes just the array-of-n-elements header.
	PackArrayHeader(n int) error
	// PackMapHeader writes just the map-of-n-entries header.
	PackMapHeader(n int) error
}

// Unpacker decodes MessagePack-compatible byte slices into Go values.
type Unpacker interface {
	// Unpack decodes exactly one value from data.
	Unpack(data []byte) (any, error)
	// UnpackAll decodes every value present in data, in order. It is used by
	// the reader's block-mode fast path to decode a run of back-to-back
	// elements in one call (spec.md §4.6 LazyList _all).
	UnpackAll(data []byte) ([]any, error)
}

// Codec is a Packer factory plus an Unpacker. A fresh Packer is requested
// per destination (a Writer, a combiner's TOC tail, ...); the Unpacker is
// stateless and shared.
type Codec interface {
	Unpacker
	// NewPacker returns a Packer that writes to w.
	NewPacker(w io.Writer) Packer
}
