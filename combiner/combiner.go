// Package combiner implements the multi-file archive format of spec.md
// §3/§4.7: a container whose payload is a sequence of complete, otherwise
// untouched inner files, preceded by a header identical in shape to a
// Writer's, and followed by a TOC that is just {t: offsets} — no position
// range, since the combined archive's own content ends at EOF.
package combiner

import (
	"bytes"
	"fmt"

	"github.com/TLCFEM/msglc-go/codec"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/errs"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/toc"
)

// headerReserve mirrors writer.headerReserve.
const headerReserve = 20

// FileInfo names one input to Combine/Append: a source opened through fs at
// path, optionally given a name. All inputs passed to one call must agree on
// naming discipline — all named or all unnamed (spec.md §4.7).
type FileInfo struct {
	Name string
	fs   storage.FileSystem
	path string
}

// NewFileInfo describes a local-filesystem input.
func NewFileInfo(path string, name string) FileInfo {
	cfg := config.Global()
	return FileInfo{Name: name, fs: storage.NewLocalFileSystem(cfg.ReadBufferSize, cfg.WriteBufferSize), path: path}
}

// NewFileInfoFS describes an input opened through an arbitrary FileSystem
// (e.g. storage.RemoteFileSystem).
func NewFileInfoFS(fs storage.FileSystem, path string, name string) FileInfo {
	return FileInfo{Name: name, fs: fs, path: path}
}

func (fi FileInfo) exists() (bool, error) { return fi.fs.Exists(fi.path) }
func (fi FileInfo) open() (storage.Store, error) { return fi.fs.Open(fi.path, storage.ModeRead) }

// Combiner builds or extends a combined archive.
type Combiner struct {
	codec codec.Codec
	cfg   config.Config
}

// New returns a Combiner using the process-wide default codec and config.
func New(opts ...func(*Combiner)) *Combiner {
	c := &Combiner{codec: codec.NewMsgpack(), cfg: config.Global()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithCodec overrides the codec.
func WithCodec(cdc codec.Codec) func(*Combiner) {
	return func(c *Combiner) { c.codec = cdc }
}

// WithConfig overrides the config.
func WithConfig(cfg config.Config) func(*Combiner) {
	return func(c *Combiner) { c.cfg = cfg }
}

// Combine writes a fresh combined archive to dst containing inputs, in
// order, and closes dst. Validation (naming discipline, uniqueness, source
// existence, magic compatibility) happens before any byte is written to dst,
// per spec.md §4.7/§7.
func (c *Combiner) Combine(dst storage.Store, inputs []FileInfo) (err error) {
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	named, err := c.validate(inputs)
	if err != nil {
		return err
	}

	if _, err := dst.Write(c.cfg.PaddedMagic()); err != nil {
		return err
	}
	headerPos, err := dst.Tell()
	if err != nil {
		return err
	}
	if _, err := dst.Write(make([]byte, headerReserve)); err != nil {
		return err
	}
	fileStart, err := dst.Tell()
	if err != nil {
		return err
	}

	offsets, err := c.copyAll(dst, fileStart, inputs)
	if err != nil {
		return err
	}

	return c.writeTOCValue(dst, headerPos, fileStart, named, offsets)
}

// Append extends an existing combined archive in dst with newInputs. dst
// must already contain a valid combined archive (spec.md §7's ErrNotCombined
// otherwise). The prior TOC bytes are overwritten, but every byte of
// previously combined payload is preserved — append is destructive only to
// the old TOC's bytes, never to payload (spec.md §4.7).
func (c *Combiner) Append(dst storage.Store, newInputs []FileInfo) (err error) {
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	newNamed, err := c.validate(newInputs)
	if err != nil {
		return err
	}

	magicLen := len(c.cfg.PaddedMagic())
	if err := dst.Seek(0); err != nil {
		return err
	}
	header, err := dst.Read(magicLen + headerReserve)
	if err != nil {
		return err
	}
	if len(header) != magicLen+headerReserve || !c.cfg.CheckCompatibility(header[:magicLen]) {
		return fmt.Errorf("%w: destination header is invalid", errs.ErrInvalidMagic)
	}

	tocOffset, err := c.decodePadded(header[magicLen : magicLen+10])
	if err != nil {
		return err
	}
	tocSize, err := c.decodePadded(header[magicLen+10 : magicLen+20])
	if err != nil {
		return err
	}

	headerPos := int64(0)
	fileStart := int64(magicLen + headerReserve)

	if err := dst.Seek(fileStart + tocOffset); err != nil {
		return err
	}
	tocBytes, err := dst.Read(int(tocSize))
	if err != nil {
		return err
	}

	existingNamed, existingOffsets, err := c.decodeCombinedTOC(tocBytes)
	if err != nil {
		return err
	}

	if len(newInputs) > 0 && len(existingOffsets) > 0 && existingNamed != newNamed {
		return fmt.Errorf("%w: existing archive naming does not match new inputs", errs.ErrNamingMismatch)
	}
	if existingNamed {
		for name := range existingOffsets {
			for _, fi := range newInputs {
				if fi.Name == name {
					return fmt.Errorf("%w: %q", errs.ErrDuplicateName, name)
				}
			}
		}
	}

	// Resume writing exactly where the old TOC began — this is what makes
	// append destructive to the old TOC bytes only.
	if err := dst.Seek(fileStart + tocOffset); err != nil {
		return err
	}

	newOffsets, err := c.copyAll(dst, fileStart, newInputs)
	if err != nil {
		return err
	}

	merged := mergeOffsets(existingOffsets, newOffsets)

	return c.writeTOCValue(dst, headerPos, fileStart, existingNamed || newNamed, merged)
}

// validate checks naming discipline, name uniqueness, source existence, and
// magic compatibility for inputs, returning whether they are named.
func (c *Combiner) validate(inputs []FileInfo) (named bool, err error) {
	if len(inputs) == 0 {
		return false, nil
	}

	named = inputs[0].Name != ""
	seen := make(map[string]bool, len(inputs))
	for _, fi := range inputs {
		if (fi.Name != "") != named {
			return false, fmt.Errorf("%w", errs.ErrNamingMismatch)
		}
		if named {
			if seen[fi.Name] {
				return false, fmt.Errorf("%w: %q", errs.ErrDuplicateName, fi.Name)
			}
			seen[fi.Name] = true
		}

		exists, err := fi.exists()
		if err != nil {
			return false, err
		}
		if !exists {
			return false, fmt.Errorf("%w: %s", errs.ErrSourceMissing, fi.path)
		}

		if err := c.probeMagic(fi); err != nil {
			return false, err
		}
	}

	return named, nil
}

func (c *Combiner) probeMagic(fi FileInfo) error {
	store, err := fi.open()
	if err != nil {
		return err
	}
	defer store.Close()

	magicLen := len(c.cfg.PaddedMagic())
	header, err := store.Read(magicLen)
	if err != nil {
		return err
	}
	if len(header) != magicLen || !c.cfg.CheckCompatibility(header) {
		return fmt.Errorf("%w: %s", errs.ErrInvalidMagic, fi.path)
	}

	return nil
}

// copyAll copies every input's raw bytes (including its own magic/header)
// verbatim into dst at its current position, in cfg.CopyChunkSize chunks,
// recording each input's payload-relative start offset.
func (c *Combiner) copyAll(dst storage.Store, fileStart int64, inputs []FileInfo) ([]indexedOffset, error) {
	offsets := make([]indexedOffset, 0, len(inputs))

	for _, fi := range inputs {
		pos, err := dst.Tell()
		if err != nil {
			return nil, err
		}

		src, err := fi.open()
		if err != nil {
			return nil, err
		}
		if err := copyChunked(dst, src, c.cfg.CopyChunkSize); err != nil {
			_ = src.Close()
			return nil, err
		}
		if err := src.Close(); err != nil {
			return nil, err
		}

		offsets = append(offsets, indexedOffset{name: fi.Name, offset: pos - fileStart})
	}

	return offsets, nil
}

func copyChunked(dst storage.Store, src storage.Store, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 1 << 24
	}

	for {
		chunk, err := src.Read(chunkSize)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if _, err := dst.Write(chunk); err != nil {
			return err
		}
		if len(chunk) < chunkSize {
			return nil
		}
	}
}

type indexedOffset struct {
	name   string
	offset int64
}

func (c *Combiner) writeTOCValue(dst storage.Store, headerPos, fileStart int64, named bool, offsets []indexedOffset) error {
	var x any
	if named {
		m := make(map[string]any, len(offsets))
		for _, o := range offsets {
			m[o.name] = o.offset
		}
		x = m
	} else {
		l := make([]any, len(offsets))
		for i, o := range offsets {
			l[i] = o.offset
		}
		x = l
	}

	tocStart, err := dst.Tell()
	if err != nil {
		return err
	}
	tocOffset := tocStart - fileStart

	var buf bytes.Buffer
	if err := c.codec.NewPacker(&buf).PackValue(map[string]any{"t": x}); err != nil {
		return err
	}
	tocSize := int64(buf.Len())
	if _, err := dst.Write(buf.Bytes()); err != nil {
		return err
	}

	offsetField, err := c.packPadded10(tocOffset)
	if err != nil {
		return err
	}
	sizeField, err := c.packPadded10(tocSize)
	if err != nil {
		return err
	}

	if err := dst.Seek(headerPos); err != nil {
		return err
	}
	if _, err := dst.Write(offsetField); err != nil {
		return err
	}
	if _, err := dst.Write(sizeField); err != nil {
		return err
	}

	return nil
}

func (c *Combiner) packPadded10(n int64) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.codec.NewPacker(&buf).PackValue(n); err != nil {
		return nil, err
	}
	if buf.Len() > 10 {
		return nil, fmt.Errorf("combiner: packed integer %d exceeds the 10-byte header slot", n)
	}
	out := make([]byte, 10)
	copy(out[10-buf.Len():], buf.Bytes())

	return out, nil
}

func (c *Combiner) decodePadded(field []byte) (int64, error) {
	stripped := stripLeadingZeros(field)
	if len(stripped) == 0 {
		return 0, nil
	}
	v, err := c.codec.Unpack(stripped)
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

// decodeCombinedTOC decodes a {t: offsets} TOC and verifies every value is
// an integer (spec.md §7: a combined TOC holding non-integers is
// InvalidFormat).
func (c *Combiner) decodeCombinedTOC(tocBytes []byte) (named bool, offsets []indexedOffset, err error) {
	raw, err := c.codec.Unpack(tocBytes)
	if err != nil {
		return false, nil, err
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return false, nil, fmt.Errorf("%w", errs.ErrNotCombined)
	}
	x, ok := m["t"]
	if !ok {
		return false, nil, fmt.Errorf("%w", errs.ErrNotCombined)
	}

	switch t := x.(type) {
	case map[string]any:
		out := make([]indexedOffset, 0, len(t))
		for name, v := range t {
			n, ok := toc.ToInt64(v)
			if !ok {
				return false, nil, fmt.Errorf("%w: entry %q is not an integer offset", errs.ErrNotCombined, name)
			}
			out = append(out, indexedOffset{name: name, offset: n})
		}

		return true, out, nil
	case []any:
		out := make([]indexedOffset, len(t))
		for i, v := range t {
			n, ok := toc.ToInt64(v)
			if !ok {
				return false, nil, fmt.Errorf("%w: entry %d is not an integer offset", errs.ErrNotCombined, i)
			}
			out[i] = indexedOffset{offset: n}
		}

		return false, out, nil
	default:
		return false, nil, fmt.Errorf("%w", errs.ErrNotCombined)
	}
}

func mergeOffsets(existing, fresh []indexedOffset) []indexedOffset {
	out := make([]indexedOffset, 0, len(existing)+len(fresh))
	out = append(out, existing...)
	out = append(out, fresh...)

	return out
}
