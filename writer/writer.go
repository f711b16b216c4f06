// Package writer emits the on-disk file layout spec.md §3/§4.5 defines:
// magic, reserved TOC header slots, the packed payload (driven by the toc
// package), the packed TOC itself, and finally the header patch-back.
//
// The functional-options pattern and the "acquire config, apply opts"
// constructor shape are taken from the teacher's blob.NewNumericEncoder /
// internal/options; New has no separate validation step.
package writer

import (
	"bytes"
	"fmt"

	"github.com/TLCFEM/msglc-go/codec"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/errs"
	"github.com/TLCFEM/msglc-go/internal/gcguard"
	"github.com/TLCFEM/msglc-go/internal/options"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/toc"
)

// ErrAlreadyWritten is returned by a second call to Write on the same Writer
// (spec.md §7's at-most-one-write InputError). It is errs.ErrAlreadyWritten,
// aliased here so callers can keep writing errors.Is(err, writer.ErrAlreadyWritten).
var ErrAlreadyWritten = errs.ErrAlreadyWritten

// headerReserve is the number of reserved bytes after the magic: two 10-byte
// left-padded packed integers (TOC_OFFSET, TOC_SIZE).
const headerReserve = 20

// Writer emits one complete file to a storage.Store. A Writer is single-use:
// call Write at most once, then Close.
type Writer struct {
	store   storage.Store
	codec   codec.Codec
	cfg     config.Config
	written bool
	release func()
}

// Option configures a Writer at construction time.
type Option = options.Option[*Writer]

// WithCodec overrides the codec used to pack the payload and TOC. Defaults
// to codec.NewMsgpack().
func WithCodec(c codec.Codec) Option {
	return options.NoError[*Writer](func(w *Writer) { w.codec = c })
}

// WithConfig overrides the process-wide config.Config for this Writer only.
func WithConfig(cfg config.Config) Option {
	return options.NoError[*Writer](func(w *Writer) { w.cfg = cfg })
}

// New wraps an already-open storage.Store. The Writer takes ownership of
// store and closes it from Close.
func New(store storage.Store, opts ...Option) (*Writer, error) {
	w := &Writer{store: store, codec: codec.NewMsgpack(), cfg: config.Global()}
	if err := options.Apply[*Writer](w, opts...); err != nil {
		return nil, err
	}

	w.release = gcguard.Acquire(w.cfg.DisableGC)

	return w, nil
}

// Open is a convenience constructor that opens path on the local filesystem
// for writing (truncating any existing content).
func Open(path string, opts ...Option) (*Writer, error) {
	cfg := config.Global()
	fs := storage.NewLocalFileSystem(cfg.ReadBufferSize, cfg.WriteBufferSize)
	store, err := fs.Open(path, storage.ModeWrite)
	if err != nil {
		return nil, err
	}

	return New(store, opts...)
}

// Write packs v as the file's root value and patches the TOC header. It
// implements the write sequence of spec.md §4.5 exactly:
//  1. magic, reserve 20 header bytes, remember file_start;
//  2. run the TOC builder over v;
//  3. pack and write the TOC, recording its offset (relative to file_start)
//     and size;
//  4. seek back and patch the two 10-byte header slots.
//
// A second call on the same Writer returns ErrAlreadyWritten, even if the
// first call failed partway through: at most one write attempt is ever
// allowed to touch the store, matching writer.py's _no_more_writes flag,
// which is set before a single byte of the TOC is packed.
func (w *Writer) Write(v any) error {
	if w.written {
		return ErrAlreadyWritten
	}
	w.written = true

	if _, err := w.store.Write(w.cfg.PaddedMagic()); err != nil {
		return err
	}

	headerPos, err := w.store.Tell()
	if err != nil {
		return err
	}
	if _, err := w.store.Write(make([]byte, headerReserve)); err != nil {
		return err
	}
	fileStart, err := w.store.Tell()
	if err != nil {
		return err
	}

	builder := toc.NewBuilder(w.codec, w.store, w.cfg)
	root, err := builder.Pack(v)
	if err != nil {
		return err
	}

	tocStart, err := w.store.Tell()
	if err != nil {
		return err
	}
	tocOffset := tocStart - fileStart

	var tocBuf bytes.Buffer
	p := w.codec.NewPacker(&tocBuf)
	if err := p.PackValue(root.Flatten()); err != nil {
		return err
	}
	tocSize := int64(tocBuf.Len())
	if _, err := w.store.Write(tocBuf.Bytes()); err != nil {
		return err
	}

	offsetField, err := w.packPadded10(tocOffset)
	if err != nil {
		return err
	}
	sizeField, err := w.packPadded10(tocSize)
	if err != nil {
		return err
	}

	if err := w.store.Seek(headerPos); err != nil {
		return err
	}
	if _, err := w.store.Write(offsetField); err != nil {
		return err
	}
	if _, err := w.store.Write(sizeField); err != nil {
		return err
	}

	return nil
}

// packPadded10 packs n and left-pads it with 0x00 to exactly 10 bytes
// (spec.md §6's TOC_OFFSET/TOC_SIZE encoding).
func (w *Writer) packPadded10(n int64) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.codec.NewPacker(&buf).PackValue(n); err != nil {
		return nil, err
	}
	if buf.Len() > 10 {
		return nil, fmt.Errorf("writer: packed integer %d needs %d bytes, exceeds the 10-byte header slot", n, buf.Len())
	}

	out := make([]byte, 10)
	copy(out[10-buf.Len():], buf.Bytes())

	return out, nil
}

// Close releases the underlying storage, uploading any buffered remote
// scratch data. It never fails to release the cooperative GC guard, even if
// the store close itself errors.
func (w *Writer) Close() error {
	defer w.release()
	return w.store.Close()
}
