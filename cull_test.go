package vkr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildIndirectCommands(t *testing.T) {
	set := BuildIndirectCommands(4, 36)
	require.Len(t, set.Commands, 4)
	for i, cmd := range set.Commands {
		require.Equal(t, uint32(36), cmd.IndexCount)
		require.Equal(t, uint32(1), cmd.InstanceCount, "every object starts visible")
		require.Equal(t, uint32(i), cmd.FirstInstance, "instance id addresses per-object data")
		require.Equal(t, uint32(0), cmd.FirstIndex)
		require.Equal(t, int32(0), cmd.VertexOffset)
	}
}

func TestIndirectDrawSetBytes(t *testing.T) {
	set := BuildIndirectCommands(3, 6)
	raw := set.Bytes()
	require.Len(t, raw, 3*indirectCommandSize)

	// Second command starts at one stride in; its FirstInstance field sits
	// 16 bytes into the command.
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(raw[indirectCommandSize+16:]))
	require.Equal(t, uint32(6), binary.LittleEndian.Uint32(raw[indirectCommandSize:]))

	require.Nil(t, IndirectDrawSet{}.Bytes())
}

func TestClampDrawCount(t *testing.T) {
	require.Equal(t, uint32(0), ClampDrawCount(0, 100))
	require.Equal(t, uint32(42), ClampDrawCount(42, 100))
	require.Equal(t, uint32(100), ClampDrawCount(100, 100))
	require.Equal(t, uint32(100), ClampDrawCount(0xffffffff, 100))
}
