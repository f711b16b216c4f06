package pathkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, Split("a/b"))
	require.Equal(t, []string{"a", "b"}, Split("/a/b/"))
	require.Equal(t, []string{"a", "b"}, Split("a//b"))
	require.Nil(t, Split(""))
}

func TestResolve_Key(t *testing.T) {
	seg := Resolve("name", 10)
	require.Equal(t, KindKey, seg.Kind)
	require.Equal(t, "name", seg.Key)
}

func TestResolve_Index(t *testing.T) {
	t.Run("positive index passes through", func(t *testing.T) {
		seg := Resolve("2", 5)
		require.Equal(t, KindIndex, seg.Kind)
		require.Equal(t, 2, seg.Index)
	})

	t.Run("negative index wraps from the end", func(t *testing.T) {
		seg := Resolve("-1", 5)
		require.Equal(t, KindIndex, seg.Kind)
		require.Equal(t, 4, seg.Index)
	})

	t.Run("out-of-range index wraps around repeatedly", func(t *testing.T) {
		seg := Resolve("7", 5)
		require.Equal(t, 2, seg.Index)

		seg = Resolve("-7", 5)
		require.Equal(t, 3, seg.Index)
	})
}

func TestResolve_Slice(t *testing.T) {
	t.Run("start:stop defaults to step 1", func(t *testing.T) {
		seg := Resolve("1:3", 5)
		require.Equal(t, KindSlice, seg.Kind)
		require.Equal(t, Bounds{Start: 1, Stop: 3, Step: 1}, seg.Bounds)
	})

	t.Run("empty fields default to the full range", func(t *testing.T) {
		seg := Resolve(":", 5)
		require.Equal(t, Bounds{Start: 0, Stop: 5, Step: 1}, seg.Bounds)
	})

	t.Run("three-field form carries the step in the middle position", func(t *testing.T) {
		seg := Resolve("0:2:6", 6)
		require.Equal(t, KindSlice, seg.Kind)
		require.Equal(t, Bounds{Start: 0, Stop: 6, Step: 2}, seg.Bounds)
	})

	t.Run("negative bounds normalize independently of the index rule", func(t *testing.T) {
		seg := Resolve("-3:-1", 5)
		require.Equal(t, Bounds{Start: 2, Stop: 4, Step: 1}, seg.Bounds)
	})
}

func TestNormalizeIndex(t *testing.T) {
	require.Equal(t, 0, NormalizeIndex(0, 5))
	require.Equal(t, 4, NormalizeIndex(-1, 5))
	require.Equal(t, 2, NormalizeIndex(7, 5))
}
