// Package msglc provides a lazy, random-access container format built on a
// MessagePack-compatible binary encoding: write a value once, then read any
// path into it — a single scalar, a dict key, a list index or slice — without
// ever decoding the whole file.
//
// # Core features
//
//   - Table-of-contents random access: Open decodes only the TOC; Read/Visit
//     decode just the payload bytes a path actually touches.
//   - Small-object optimization and block-grouping keep tiny maps/arrays from
//     paying per-child TOC overhead, while still allowing random access.
//   - Path navigation with "/"-separated segments, wrap-around list indices,
//     and start:stop / start:step:stop slices.
//   - A combiner that concatenates whole files into one archive, named or
//     positional, and can append more files to an existing one later.
//   - Local, in-memory, and remote (Google Cloud Storage) storage backends
//     behind one Store interface.
//
// # Package structure
//
// This package provides convenient top-level wrappers around writer, reader,
// and combiner. For per-call tuning (custom Option values, a non-default
// codec, streaming without caching) use those packages directly.
//
// # Basic usage
//
//	data := map[string]any{"x": []any{0, 1, 2, 3}, "y": "hi"}
//	if err := msglc.Dump("out.bin", data); err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := msglc.Load("out.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	last, err := r.Read("x/-1") // 3
package msglc

import (
	"github.com/TLCFEM/msglc-go/combiner"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/reader"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/writer"
)

// Reader re-exports reader.Reader, the handle returned by Load/Open.
type Reader = reader.Reader

// Value re-exports reader.Value, the interface LazyList/LazyDict satisfy.
type Value = reader.Value

// LazyList re-exports reader.LazyList.
type LazyList = reader.LazyList

// LazyDict re-exports reader.LazyDict.
type LazyDict = reader.LazyDict

// ReaderOption re-exports reader.Option for callers customizing Load/Open.
type ReaderOption = reader.Option

// WriterOption re-exports writer.Option for callers customizing Dump.
type WriterOption = writer.Option

// FileInfo re-exports combiner.FileInfo, one input to Combine/Append.
type FileInfo = combiner.FileInfo

// NewFileInfo names a local-filesystem input for Combine/Append.
func NewFileInfo(path string, name string) FileInfo {
	return combiner.NewFileInfo(path, name)
}

// Dump packs v and writes it to path on the local filesystem, truncating any
// existing content.
func Dump(path string, v any, opts ...WriterOption) error {
	w, err := writer.Open(path, opts...)
	if err != nil {
		return err
	}

	if err := w.Write(v); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// DumpTo packs v and writes it to an already-open storage.Store, which it
// closes before returning.
func DumpTo(store storage.Store, v any, opts ...WriterOption) error {
	w, err := writer.New(store, opts...)
	if err != nil {
		return err
	}

	if err := w.Write(v); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// Load opens path on the local filesystem for lazy, random-access reading.
// The caller must Close the returned Reader.
func Load(path string, opts ...ReaderOption) (*Reader, error) {
	return reader.OpenFile(path, opts...)
}

// Open opens an already-positioned storage.Store for lazy reading. The
// caller must Close the returned Reader.
func Open(store storage.Store, opts ...ReaderOption) (*Reader, error) {
	return reader.Open(store, opts...)
}

// Combine writes a fresh combined archive to path containing inputs, in
// order. Inputs must be all named or all unnamed.
func Combine(path string, inputs []FileInfo) error {
	cfg := config.Global()
	fs := storage.NewLocalFileSystem(cfg.ReadBufferSize, cfg.WriteBufferSize)
	store, err := fs.Open(path, storage.ModeWrite)
	if err != nil {
		return err
	}

	return combiner.New().Combine(store, inputs)
}

// Append extends an existing combined archive at path with newInputs,
// overwriting only its prior TOC bytes — every previously combined payload
// byte is preserved.
func Append(path string, newInputs []FileInfo) error {
	cfg := config.Global()
	fs := storage.NewLocalFileSystem(cfg.ReadBufferSize, cfg.WriteBufferSize)
	store, err := fs.Open(path, storage.ModeReadWrite)
	if err != nil {
		return err
	}

	return combiner.New().Append(store, newInputs)
}
