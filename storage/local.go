package storage

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// LocalFileSystem opens paths on the local filesystem, wrapping each *os.File
// in bufio readers/writers sized per config.Config.ReadBufferSize /
// WriteBufferSize (adapted from the teacher's buffered-I/O convention in
// internal/pool, applied here to file handles instead of byte slices).
type LocalFileSystem struct {
	ReadBufferSize  int
	WriteBufferSize int
}

var _ FileSystem = LocalFileSystem{}

// NewLocalFileSystem returns a LocalFileSystem using the given buffer sizes.
func NewLocalFileSystem(readBufferSize, writeBufferSize int) LocalFileSystem {
	return LocalFileSystem{ReadBufferSize: readBufferSize, WriteBufferSize: writeBufferSize}
}

// Exists reports whether path names an existing filesystem entry; a
// directory counts as existing too.
func (fs LocalFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// Open opens path in the requested mode.
func (fs LocalFileSystem) Open(path string, mode OpenMode) (Store, error) {
	var (
		f   *os.File
		err error
	)

	switch mode {
	case ModeRead:
		f, err = os.Open(path)
	case ModeWrite:
		f, err = os.Create(path)
	case ModeReadWrite:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	default:
		return nil, errors.New("storage: unknown open mode")
	}
	if err != nil {
		return nil, err
	}

	return newLocalStore(f, fs.ReadBufferSize, fs.WriteBufferSize), nil
}

// localStore adapts *os.File to Store via a bufio.Reader and a bufio.Writer.
// Seek flushes any pending writes and resets the reader, since both sides
// share one underlying OS file position.
type localStore struct {
	f   *os.File
	r   *bufio.Reader
	w   *bufio.Writer
	pos int64
}

var _ Store = (*localStore)(nil)

func newLocalStore(f *os.File, readBufSize, writeBufSize int) *localStore {
	if readBufSize <= 0 {
		readBufSize = 1 << 16
	}
	if writeBufSize <= 0 {
		writeBufSize = 1 << 16
	}

	return &localStore{
		f: f,
		r: bufio.NewReaderSize(f, readBufSize),
		w: bufio.NewWriterSize(f, writeBufSize),
	}
}

func (s *localStore) Tell() (int64, error) { return s.pos, nil }

func (s *localStore) Seek(offset int64) error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if _, err := s.f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	s.r.Reset(s.f)
	s.pos = offset

	return nil
}

func (s *localStore) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(s.r, buf)
	s.pos += int64(read)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return buf[:read], err
	}

	return buf[:read], nil
}

func (s *localStore) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.pos += int64(n)

	return n, err
}

func (s *localStore) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.f.Close()
		return err
	}

	return s.f.Close()
}
