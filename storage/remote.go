package storage

import (
	"context"
	"errors"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// RemoteClient is the minimal object-store contract RemoteFileSystem needs:
// range reads for random-access Read/Seek, and a streaming writer for
// upload-on-close. Grounded on other_examples' mmp-vice wxingest storage
// backend, the only example in the pack that talks to a remote object store
// directly from Go.
type RemoteClient interface {
	// Exists reports whether an object named path exists.
	Exists(ctx context.Context, path string) (bool, error)
	// NewRangeReader opens a reader for length bytes of path starting at offset.
	NewRangeReader(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error)
	// NewWriter opens a writer that uploads to path on Close.
	NewWriter(ctx context.Context, path string) (io.WriteCloser, error)
}

// GCSClient is the RemoteClient implementation backed by
// cloud.google.com/go/storage.
type GCSClient struct {
	bucket *gcs.BucketHandle
}

var _ RemoteClient = (*GCSClient)(nil)

// NewGCSClient wraps an existing *storage.BucketHandle.
func NewGCSClient(bucket *gcs.BucketHandle) *GCSClient {
	return &GCSClient{bucket: bucket}
}

func (c *GCSClient) Exists(ctx context.Context, path string) (bool, error) {
	_, err := c.bucket.Object(path).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (c *GCSClient) NewRangeReader(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	return c.bucket.Object(path).NewRangeReader(ctx, offset, length)
}

func (c *GCSClient) NewWriter(ctx context.Context, path string) (io.WriteCloser, error) {
	return c.bucket.Object(path).NewWriter(ctx), nil
}

// RemoteFileSystem opens Stores against a RemoteClient. Random-access reads
// are served with one ranged request per Read call; writes are buffered to a
// local scratch file and uploaded whole on Close, since most object stores
// (including GCS) cannot accept seeks mid-upload (spec.md §4.2's remote
// storage note).
type RemoteFileSystem struct {
	Ctx             context.Context
	Client          RemoteClient
	ReadBufferSize  int
	WriteBufferSize int
}

var _ FileSystem = RemoteFileSystem{}

// NewRemoteFileSystem returns a RemoteFileSystem using ctx for every request.
func NewRemoteFileSystem(ctx context.Context, client RemoteClient, readBufferSize, writeBufferSize int) RemoteFileSystem {
	return RemoteFileSystem{Ctx: ctx, Client: client, ReadBufferSize: readBufferSize, WriteBufferSize: writeBufferSize}
}

func (fs RemoteFileSystem) ctx() context.Context {
	if fs.Ctx != nil {
		return fs.Ctx
	}

	return context.Background()
}

func (fs RemoteFileSystem) Exists(path string) (bool, error) {
	return fs.Client.Exists(fs.ctx(), path)
}

func (fs RemoteFileSystem) Open(path string, mode OpenMode) (Store, error) {
	if mode == ModeRead {
		return &remoteReadStore{ctx: fs.ctx(), client: fs.Client, path: path}, nil
	}

	return newRemoteWriteStore(fs.ctx(), fs.Client, path, fs.ReadBufferSize, fs.WriteBufferSize)
}

// remoteReadStore serves Read by issuing one ranged request per call and
// tracking the logical position itself; Seek is free since nothing has been
// fetched yet.
type remoteReadStore struct {
	ctx    context.Context
	client RemoteClient
	path   string
	pos    int64
}

var _ Store = (*remoteReadStore)(nil)

func (s *remoteReadStore) Tell() (int64, error) { return s.pos, nil }

func (s *remoteReadStore) Seek(offset int64) error {
	s.pos = offset
	return nil
}

func (s *remoteReadStore) Read(n int) ([]byte, error) {
	rc, err := s.client.NewRangeReader(s.ctx, s.path, s.pos, int64(n))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(rc, buf)
	s.pos += int64(read)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return buf[:read], err
	}

	return buf[:read], nil
}

func (s *remoteReadStore) Write([]byte) (int, error) {
	return 0, errors.New("storage: store opened for read")
}

func (s *remoteReadStore) Close() error { return nil }

// remoteWriteStore buffers every write into a local scratch file (named via
// github.com/google/uuid to avoid collisions between concurrent writers, the
// same naming convention quay/claircore uses for its own scratch artifacts)
// and uploads the whole file to the remote object on Close.
type remoteWriteStore struct {
	ctx         context.Context
	client      RemoteClient
	path        string
	scratch     *localStore
	scratchPath string
}

var _ Store = (*remoteWriteStore)(nil)

func newRemoteWriteStore(ctx context.Context, client RemoteClient, path string, readBufSize, writeBufSize int) (*remoteWriteStore, error) {
	f, err := os.CreateTemp("", "msglc-scratch-"+uuid.NewString()+"-*.bin")
	if err != nil {
		return nil, err
	}

	return &remoteWriteStore{
		ctx:         ctx,
		client:      client,
		path:        path,
		scratch:     newLocalStore(f, readBufSize, writeBufSize),
		scratchPath: f.Name(),
	}, nil
}

func (s *remoteWriteStore) Tell() (int64, error) { return s.scratch.Tell() }

func (s *remoteWriteStore) Seek(offset int64) error { return s.scratch.Seek(offset) }

func (s *remoteWriteStore) Read(n int) ([]byte, error) { return s.scratch.Read(n) }

func (s *remoteWriteStore) Write(p []byte) (int, error) { return s.scratch.Write(p) }

func (s *remoteWriteStore) Close() error {
	if err := s.scratch.Close(); err != nil {
		return err
	}
	defer os.Remove(s.scratchPath)

	f, err := os.Open(s.scratchPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := s.client.NewWriter(s.ctx, s.path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
