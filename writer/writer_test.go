package writer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/storage"
	"github.com/TLCFEM/msglc-go/value"
)

func TestWriter_WriteProducesHeader(t *testing.T) {
	store := storage.NewMemoryStore()
	w, err := New(store)
	require.NoError(t, err)

	m := value.NewMap().Set("x", int64(1)).Set("y", "hi")
	require.NoError(t, w.Write(m))
	require.NoError(t, w.Close())

	data := store.Bytes()
	magicLen := config.MaxMagicLen
	require.Len(t, config.Default().PaddedMagic(), magicLen)
	require.Equal(t, config.Default().PaddedMagic(), data[:magicLen])

	// reserved header slots must no longer be all-zero once patched.
	header := data[magicLen : magicLen+20]
	allZero := true
	for _, b := range header {
		if b != 0 {
			allZero = false
			break
		}
	}
	require.False(t, allZero)
}

func TestWriter_SecondWriteFails(t *testing.T) {
	store := storage.NewMemoryStore()
	w, err := New(store)
	require.NoError(t, err)

	require.NoError(t, w.Write("first"))
	require.ErrorIs(t, w.Write("second"), ErrAlreadyWritten)
	require.NoError(t, w.Close())
}

// A failed first Write still consumes the one allowed attempt: a retry must
// not be allowed to layer a second magic+header onto the store's already
// advanced position.
func TestWriter_SecondWriteFailsAfterFirstWriteFails(t *testing.T) {
	store := storage.NewMemoryStore()
	w, err := New(store)
	require.NoError(t, err)

	require.Error(t, w.Write(func() {}))
	require.ErrorIs(t, w.Write("retry"), ErrAlreadyWritten)
	require.NoError(t, w.Close())
}
