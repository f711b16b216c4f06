package toc

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TLCFEM/msglc-go/codec"
	"github.com/TLCFEM/msglc-go/config"
	"github.com/TLCFEM/msglc-go/value"
)

func TestBuilder_Scalar(t *testing.T) {
	var buf bytes.Buffer
	b := NewBuilder(codec.NewMsgpack(), &buf, config.Default())

	node, err := b.Pack("hi")
	require.NoError(t, err)
	require.Equal(t, ChildrenNone, node.ChildrenKind)
	require.True(t, node.HasPos)
	require.Equal(t, 0, node.Start)
	require.Equal(t, buf.Len(), node.End)
}

func TestBuilder_SmallMapInlines(t *testing.T) {
	var buf bytes.Buffer
	b := NewBuilder(codec.NewMsgpack(), &buf, config.Default())

	m := value.NewMap().Set("x", int64(1)).Set("y", "hi")
	node, err := b.Pack(m)
	require.NoError(t, err)

	require.Equal(t, ChildrenNone, node.ChildrenKind)
	require.True(t, node.HasPos)

	flat := node.Flatten().(map[string]any)
	_, hasT := flat["t"]
	require.False(t, hasT)
}

func TestBuilder_LargeMapIndexesChildren(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.Configure(config.WithSmallObjOptimizationThreshold(16), config.WithTrivialSize(4)))
	defer func() { require.NoError(t, config.Configure(config.WithSmallObjOptimizationThreshold(cfg.SmallObjOptimizationThreshold), config.WithTrivialSize(cfg.TrivialSize))) }()

	var buf bytes.Buffer
	b := NewBuilder(codec.NewMsgpack(), &buf, config.Global())

	m := value.NewMap()
	for i := 0; i < 20; i++ {
		m.Set("k"+strconv.Itoa(i), "a long string value padding past trivial size")
	}

	node, err := b.Pack(m)
	require.NoError(t, err)
	require.Equal(t, ChildrenMap, node.ChildrenKind)
	require.Len(t, node.ChildMap, 20)
}

func TestBuilder_BlockGroupedArray(t *testing.T) {
	require.NoError(t, config.Configure(config.WithSmallObjOptimizationThreshold(64), config.WithTrivialSize(8)))
	defer func() { require.NoError(t, config.Configure(config.WithSmallObjOptimizationThreshold(config.Default().SmallObjOptimizationThreshold), config.WithTrivialSize(config.Default().TrivialSize))) }()

	var buf bytes.Buffer
	b := NewBuilder(codec.NewMsgpack(), &buf, config.Global())

	list := make([]any, 0, 4096)
	for i := 0; i < 4096; i++ {
		list = append(list, int64(i))
	}

	node, err := b.Pack(list)
	require.NoError(t, err)
	require.Equal(t, ChildrenNone, node.ChildrenKind)
	require.NotEmpty(t, node.Blocks)

	total := 0
	small := config.Global().SmallObjOptimizationThreshold
	for i, blk := range node.Blocks {
		total += blk.Count
		span := blk.End - blk.Start
		// every block but the last must have been flushed by the
		// tip-over element, so its packed span exceeds small; only
		// the trailing partial group may fall short of it.
		if i != len(node.Blocks)-1 {
			require.Greater(t, span, small)
		}
	}
	require.Equal(t, 4096, total)
}

func TestBuilder_HeaderPlusElementsConcatenation(t *testing.T) {
	var bufA, bufB bytes.Buffer
	cdc := codec.NewMsgpack()

	ba := NewBuilder(cdc, &bufA, config.Default())
	_, err := ba.Pack([]any{int64(1), int64(2), int64(3)})
	require.NoError(t, err)

	p := cdc.NewPacker(&bufB)
	require.NoError(t, p.PackValue([]any{int64(1), int64(2), int64(3)}))

	require.Equal(t, bufB.Bytes(), bufA.Bytes())
}

func TestNode_FlattenRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cdc := codec.NewMsgpack()
	b := NewBuilder(cdc, &buf, config.Default())

	m := value.NewMap().Set("a", int64(1))
	node, err := b.Pack(m)
	require.NoError(t, err)

	raw := node.Flatten()
	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, node.HasPos, parsed.HasPos)
	require.Equal(t, node.Start, parsed.Start)
	require.Equal(t, node.End, parsed.End)
}

func TestAsOffset(t *testing.T) {
	n, ok := AsOffset(int64(42))
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	_, ok = AsOffset(map[string]any{"p": []any{0, 1}})
	require.False(t, ok)
}
