package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_WriteReadSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	fs := NewLocalFileSystem(4096, 4096)

	exists, err := fs.Exists(path)
	require.NoError(t, err)
	require.False(t, exists)

	w, err := fs.Open(path, ModeWrite)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	exists, err = fs.Exists(path)
	require.NoError(t, err)
	require.True(t, exists)

	r, err := fs.Open(path, ModeRead)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read(5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	require.NoError(t, r.Seek(6))
	got, err = r.Read(5)
	require.NoError(t, err)
	require.Equal(t, "world", string(got))
}

func TestLocalStore_ReadWriteMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.bin")
	fs := NewLocalFileSystem(4096, 4096)

	rw, err := fs.Open(path, ModeReadWrite)
	require.NoError(t, err)
	_, err = rw.Write(bytes.Repeat([]byte{0}, 10))
	require.NoError(t, err)
	require.NoError(t, rw.Seek(0))
	_, err = rw.Write([]byte("AB"))
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "AB", string(data[:2]))
	require.Len(t, data, 10)
}

func TestMemoryStore_WriteReadSeek(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.Write([]byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, m.Seek(2))
	got, err := m.Read(3)
	require.NoError(t, err)
	require.Equal(t, "cde", string(got))
	require.Equal(t, "abcdef", string(m.Bytes()))
	require.NoError(t, m.Close())
}

func TestMemoryStore_FromBytes(t *testing.T) {
	m := NewMemoryStoreFromBytes([]byte("preloaded"))
	got, err := m.Read(3)
	require.NoError(t, err)
	require.Equal(t, "pre", string(got))
}

// fakeRemoteClient is an in-memory stand-in for RemoteClient so remote.go's
// range-read / buffer-then-upload logic can be exercised without network access.
type fakeRemoteClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeRemoteClient() *fakeRemoteClient {
	return &fakeRemoteClient{objects: make(map[string][]byte)}
}

func (c *fakeRemoteClient) Exists(_ context.Context, path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[path]

	return ok, nil
}

func (c *fakeRemoteClient) NewRangeReader(_ context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := c.objects[path]
	end := offset + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	return io.NopCloser(bytes.NewReader(data[offset:end])), nil
}

type fakeWriter struct {
	client *fakeRemoteClient
	path   string
	buf    bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeWriter) Close() error {
	w.client.mu.Lock()
	defer w.client.mu.Unlock()
	w.client.objects[w.path] = w.buf.Bytes()

	return nil
}

func (c *fakeRemoteClient) NewWriter(_ context.Context, path string) (io.WriteCloser, error) {
	return &fakeWriter{client: c, path: path}, nil
}

func TestRemoteFileSystem_WriteThenRead(t *testing.T) {
	client := newFakeRemoteClient()
	fs := NewRemoteFileSystem(context.Background(), client, 4096, 4096)

	w, err := fs.Open("objects/a.msglc", ModeWrite)
	require.NoError(t, err)
	_, err = w.Write([]byte("remote payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	exists, err := fs.Exists("objects/a.msglc")
	require.NoError(t, err)
	require.True(t, exists)

	r, err := fs.Open("objects/a.msglc", ModeRead)
	require.NoError(t, err)
	got, err := r.Read(6)
	require.NoError(t, err)
	require.Equal(t, "remote", string(got))

	require.NoError(t, r.Seek(7))
	got, err = r.Read(7)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}
