package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMsgpack_RoundTrip(t *testing.T) {
	c := NewMsgpack()

	var buf bytes.Buffer
	p := c.NewPacker(&buf)
	require.NoError(t, p.PackValue("hello"))

	v, err := c.Unpack(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestMsgpack_HeaderThenElements(t *testing.T) {
	c := NewMsgpack()

	var withHeader bytes.Buffer
	p := c.NewPacker(&withHeader)
	require.NoError(t, p.PackArrayHeader(3))
	require.NoError(t, p.PackValue(int64(1)))
	require.NoError(t, p.PackValue(int64(2)))
	require.NoError(t, p.PackValue(int64(3)))

	var direct bytes.Buffer
	p2 := c.NewPacker(&direct)
	require.NoError(t, p2.PackValue([]any{int64(1), int64(2), int64(3)}))

	require.Equal(t, direct.Bytes(), withHeader.Bytes())
}

func TestMsgpack_UnpackAll(t *testing.T) {
	c := NewMsgpack()

	var buf bytes.Buffer
	p := c.NewPacker(&buf)
	require.NoError(t, p.PackValue(int64(10)))
	require.NoError(t, p.PackValue(int64(20)))
	require.NoError(t, p.PackValue(int64(30)))

	values, err := c.UnpackAll(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []any{int64(10), int64(20), int64(30)}, values)
}
