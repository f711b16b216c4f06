package storage

import "github.com/TLCFEM/msglc-go/internal/buffer"

// MemoryStore is a Store backed entirely by an in-memory buffer, for callers
// dumping to or loading from a []byte/bytes.Buffer-style destination instead
// of a path (spec.md §2's "path-or-buffer" destination, mirrored from the
// original's BytesIO support).
type MemoryStore struct {
	buf    *buffer.Buffer
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty, writable MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buf: buffer.New(buffer.DefaultSize)}
}

// NewMemoryStoreFromBytes wraps an existing byte slice for reading (and,
// if the caller later seeks past its end, appending). b is used directly,
// not copied.
func NewMemoryStoreFromBytes(b []byte) *MemoryStore {
	return &MemoryStore{buf: buffer.NewFromBytes(b)}
}

func (m *MemoryStore) Tell() (int64, error) { return m.buf.Tell(), nil }

func (m *MemoryStore) Seek(offset int64) error { return m.buf.Seek(offset) }

func (m *MemoryStore) Read(n int) ([]byte, error) {
	out := m.buf.Read(n)
	cp := make([]byte, len(out))
	copy(cp, out)

	return cp, nil
}

func (m *MemoryStore) Write(p []byte) (int, error) { return m.buf.Write(p) }

func (m *MemoryStore) Close() error {
	m.closed = true
	return nil
}

// Bytes returns the full backing slice written so far. Safe to call after
// Close.
func (m *MemoryStore) Bytes() []byte { return m.buf.Bytes() }
