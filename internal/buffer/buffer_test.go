package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_WriteRead(t *testing.T) {
	t.Run("sequential write then read from start", func(t *testing.T) {
		buf := New(0)

		n, err := buf.Write([]byte("hello"))
		require.NoError(t, err)
		require.Equal(t, 5, n)

		require.NoError(t, buf.Seek(0))
		require.Equal(t, []byte("hello"), buf.Read(5))
	})

	t.Run("write at arbitrary position zero-fills the gap", func(t *testing.T) {
		buf := New(0)

		require.NoError(t, buf.Seek(4))
		_, err := buf.Write([]byte("x"))
		require.NoError(t, err)

		require.Equal(t, []byte{0, 0, 0, 0, 'x'}, buf.Bytes())
	})

	t.Run("read past end returns a short slice", func(t *testing.T) {
		buf := New(0)
		_, _ = buf.Write([]byte("ab"))

		require.NoError(t, buf.Seek(1))
		require.Equal(t, []byte("b"), buf.Read(10))
	})

	t.Run("read at or past end returns nil", func(t *testing.T) {
		buf := New(0)
		_, _ = buf.Write([]byte("ab"))

		require.NoError(t, buf.Seek(2))
		require.Nil(t, buf.Read(10))
	})

	t.Run("negative seek is rejected", func(t *testing.T) {
		buf := New(0)
		require.ErrorIs(t, buf.Seek(-1), ErrNegativeOffset)
	})
}

func TestBuffer_Grow(t *testing.T) {
	t.Run("small buffers grow by the default step", func(t *testing.T) {
		buf := New(0)
		_, _ = buf.Write(make([]byte, 10))

		require.GreaterOrEqual(t, cap(buf.b), DefaultSize)
	})

	t.Run("large buffers grow by a quarter of capacity", func(t *testing.T) {
		buf := New(8 * DefaultSize)
		_, _ = buf.Write(make([]byte, 8*DefaultSize))
		before := cap(buf.b)

		_, _ = buf.Write([]byte{1})

		require.Greater(t, cap(buf.b), before)
		require.LessOrEqual(t, cap(buf.b)-before, before/4+1)
	})
}

func TestBuffer_Reset(t *testing.T) {
	buf := New(0)
	_, _ = buf.Write([]byte("abc"))
	require.NoError(t, buf.Seek(1))

	buf.Reset()

	require.Equal(t, 0, buf.Len())
	require.Equal(t, int64(0), buf.Tell())
}
