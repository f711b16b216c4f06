package msglc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TLCFEM/msglc-go/value"
)

func TestDumpLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.bin")

	doc := value.NewMap().
		Set("x", []any{int64(0), int64(1), int64(2), int64(3)}).
		Set("y", "hi")

	require.NoError(t, Dump(path, doc))

	r, err := Load(path)
	require.NoError(t, err)
	defer r.Close()

	y, err := r.Read("y")
	require.NoError(t, err)
	require.Equal(t, "hi", y)

	last, err := r.Read("x/-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), last)
}

func TestCombineAppend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.bin")
	bPath := filepath.Join(dir, "b.bin")
	archivePath := filepath.Join(dir, "archive.bin")

	require.NoError(t, Dump(aPath, "first"))
	require.NoError(t, Dump(bPath, "second"))

	require.NoError(t, Combine(archivePath, []FileInfo{
		NewFileInfo(aPath, "a"),
		NewFileInfo(bPath, "b"),
	}))

	r, err := Load(archivePath)
	require.NoError(t, err)

	va, err := r.Read("a")
	require.NoError(t, err)
	require.Equal(t, "first", va)
	require.NoError(t, r.Close())

	cPath := filepath.Join(dir, "c.bin")
	require.NoError(t, Dump(cPath, "third"))
	require.NoError(t, Append(archivePath, []FileInfo{NewFileInfo(cPath, "c")}))

	r2, err := Load(archivePath)
	require.NoError(t, err)
	defer r2.Close()

	vc, err := r2.Read("c")
	require.NoError(t, err)
	require.Equal(t, "third", vc)
}
