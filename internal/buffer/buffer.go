// Package buffer provides a growable byte buffer used as the in-memory
// backend for storage.MemoryStore and as the scratch area storage.RemoteStore
// buffers into before upload.
//
// It is adapted from the teacher's internal/pool.ByteBuffer: the same
// grow-by-fraction strategy, but generalized for random-access read/write
// (storage.Store needs Seek, which a pure write buffer never did) instead of
// pooled write-only accumulation.
package buffer

import "errors"

// ErrNegativeOffset is returned by Seek for a negative offset.
var ErrNegativeOffset = errors.New("buffer: negative seek offset")

// DefaultSize is the default capacity a new Buffer is allocated with.
const DefaultSize = 1 << 16 // 64KiB

// Buffer is a growable, seekable, in-memory byte store.
type Buffer struct {
	b   []byte
	pos int
}

// New creates a Buffer with the given initial capacity.
func New(initialCap int) *Buffer {
	if initialCap < 0 {
		initialCap = 0
	}

	return &Buffer{b: make([]byte, 0, initialCap)}
}

// NewFromBytes wraps an existing byte slice for reading and appending.
// The slice is used directly, not copied.
func NewFromBytes(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Bytes returns the full backing slice written so far.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int { return len(buf.b) }

// Tell returns the current read/write position.
func (buf *Buffer) Tell() int64 { return int64(buf.pos) }

// Seek moves the current position. Seeking past the end is allowed; a
// subsequent Write zero-fills the gap, matching typical file semantics.
func (buf *Buffer) Seek(offset int64) error {
	if offset < 0 {
		return ErrNegativeOffset
	}
	buf.pos = int(offset)

	return nil
}

// Read copies up to n bytes starting at the current position and advances
// it. It returns fewer than n bytes at EOF, matching io.Reader conventions
// via the caller checking the returned length.
func (buf *Buffer) Read(n int) []byte {
	if buf.pos >= len(buf.b) || n <= 0 {
		return nil
	}

	end := buf.pos + n
	if end > len(buf.b) {
		end = len(buf.b)
	}
	out := buf.b[buf.pos:end]
	buf.pos = end

	return out
}

// Write appends p at the current position, growing the buffer as needed,
// and advances the position. Writing at a position beyond Len zero-fills the
// gap first.
func (buf *Buffer) Write(p []byte) (int, error) {
	if buf.pos > len(buf.b) {
		oldLen := len(buf.b)
		buf.grow(buf.pos - oldLen)
		buf.b = buf.b[:buf.pos]
		clear(buf.b[oldLen:])
	}

	end := buf.pos + len(p)
	buf.grow(end - len(buf.b))
	if end > len(buf.b) {
		buf.b = buf.b[:end]
	}
	copy(buf.b[buf.pos:end], p)
	buf.pos = end

	return len(p), nil
}

// Reset empties the buffer while retaining its backing array, for pooled reuse.
func (buf *Buffer) Reset() {
	buf.b = buf.b[:0]
	buf.pos = 0
}

// grow ensures the backing array can hold extra more bytes past len(buf.b)
// without reallocating, using the teacher's size-dependent growth strategy:
// a flat default-size step for small buffers, a 25%-of-capacity step once the
// buffer is already large (internal/pool.ByteBuffer.Grow, adapted).
func (buf *Buffer) grow(extra int) {
	if extra <= 0 {
		return
	}

	available := cap(buf.b) - len(buf.b)
	if available >= extra {
		return
	}

	growBy := DefaultSize
	if cap(buf.b) > 4*DefaultSize {
		growBy = cap(buf.b) / 4
	}
	if growBy < extra {
		growBy = extra
	}

	newBuf := make([]byte, len(buf.b), len(buf.b)+growBy)
	copy(newBuf, buf.b)
	buf.b = newBuf
}
