package combiner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TLCFEM/msglc-go/reader"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/value"
	"github.com/TLCFEM/msglc-go/writer"
)

// memFS is a read-only FileSystem over a map of named in-memory blobs (tests
// may add entries to the map), used to hand FileInfo a source without
// touching the local disk.
type memFS struct {
	files map[string][]byte
}

func (m *memFS) Exists(path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *memFS) Open(path string, _ storage.OpenMode) (storage.Store, error) {
	b, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("memFS: no such file %q", path)
	}
	return storage.NewMemoryStoreFromBytes(append([]byte(nil), b...)), nil
}

func dumpToBytes(t *testing.T, v any) []byte {
	t.Helper()
	store := storage.NewMemoryStore()
	w, err := writer.New(store)
	require.NoError(t, err)
	require.NoError(t, w.Write(v))
	require.NoError(t, w.Close())

	return store.Bytes()
}

// TestCombiner_E3 is spec.md §8's literal scenario E3.
func TestCombiner_E3(t *testing.T) {
	list := make([]any, 30)
	for i := range list {
		list[i] = int64(i)
	}
	aBytes := dumpToBytes(t, list)

	b := value.NewMap().Set("g", value.NewMap().Set("t", "ex"))
	bBytes := dumpToBytes(t, b)

	fs := &memFS{files: map[string][]byte{"A": aBytes, "B": bBytes}}

	cStore := storage.NewMemoryStore()
	require.NoError(t, New().Combine(cStore, []FileInfo{
		NewFileInfoFS(fs, "B", "d"),
		NewFileInfoFS(fs, "A", "l"),
	}))
	cBytes := cStore.Bytes()

	fs.files["C"] = cBytes

	dStore := storage.NewMemoryStore()
	require.NoError(t, New().Combine(dStore, []FileInfo{
		NewFileInfoFS(fs, "C", "c1"),
		NewFileInfoFS(fs, "C", "c2"),
	}))

	r, err := reader.Open(storage.NewMemoryStoreFromBytes(dStore.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Read("c1/d/g/t")
	require.NoError(t, err)
	require.Equal(t, "ex", v)

	sl, err := r.Read("c2/l/24:2:30")
	require.NoError(t, err)
	require.Equal(t, []any{int64(24), int64(26), int64(28)}, sl)
}

// TestCombiner_E6 is spec.md §8's literal scenario E6: a naming mismatch
// raises before any output bytes are produced.
func TestCombiner_E6(t *testing.T) {
	aBytes := dumpToBytes(t, "hello")
	bBytes := dumpToBytes(t, "world")
	fs := &memFS{files: map[string][]byte{"A": aBytes, "B": bBytes}}

	cStore := storage.NewMemoryStore()
	err := New().Combine(cStore, []FileInfo{
		NewFileInfoFS(fs, "A", "named"),
		NewFileInfoFS(fs, "B", ""),
	})
	require.Error(t, err)
	require.Empty(t, cStore.Bytes())
}

func TestCombiner_DuplicateName(t *testing.T) {
	aBytes := dumpToBytes(t, "hello")
	fs := &memFS{files: map[string][]byte{"A": aBytes, "B": aBytes}}

	cStore := storage.NewMemoryStore()
	err := New().Combine(cStore, []FileInfo{
		NewFileInfoFS(fs, "A", "dup"),
		NewFileInfoFS(fs, "B", "dup"),
	})
	require.Error(t, err)
	require.Empty(t, cStore.Bytes())
}

func TestCombiner_Append(t *testing.T) {
	aBytes := dumpToBytes(t, "first")
	bBytes := dumpToBytes(t, "second")
	fs := &memFS{files: map[string][]byte{"A": aBytes, "B": bBytes}}

	archive := storage.NewMemoryStore()
	require.NoError(t, New().Combine(archive, []FileInfo{NewFileInfoFS(fs, "A", "a")}))

	dst := storage.NewMemoryStoreFromBytes(append([]byte(nil), archive.Bytes()...))
	require.NoError(t, New().Append(dst, []FileInfo{NewFileInfoFS(fs, "B", "b")}))

	r, err := reader.Open(storage.NewMemoryStoreFromBytes(dst.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	va, err := r.Read("a")
	require.NoError(t, err)
	require.Equal(t, "first", va)

	vb, err := r.Read("b")
	require.NoError(t, err)
	require.Equal(t, "second", vb)
}
