package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDispatchWaitsFirstFrame(t *testing.T) {
	waits, stages := dispatchWaits(false, vk.NullSemaphore)
	require.Empty(t, waits, "the first dispatch has no prior graphics read to wait for")
	require.Empty(t, stages)
}

func TestDispatchWaitsAfterFirstFrame(t *testing.T) {
	waits, stages := dispatchWaits(true, vk.NullSemaphore)
	require.Len(t, waits, 1)
	require.Len(t, stages, 1)
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit), stages[0],
		"the dispatch must hold its compute stage until graphics finished reading")
}

func TestNewOwnershipTransfer(t *testing.T) {
	same := NewOwnershipTransfer(2, 2)
	require.False(t, same.Needed, "a shared queue family needs no transfer barriers")

	cross := NewOwnershipTransfer(1, 0)
	require.True(t, cross.Needed)
	require.Equal(t, uint32(1), cross.SrcFamily)
	require.Equal(t, uint32(0), cross.DstFamily)
}
