package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestSelectQueueFamily(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	families := []QueueFamily{
		{Index: 0, Flags: vk.QueueFlags(vk.QueueTransferBit), Count: 1},
		{Index: 1, Flags: graphics | vk.QueueFlags(vk.QueueComputeBit), Count: 16, CanPresent: false},
		{Index: 2, Flags: graphics, Count: 1, CanPresent: true},
	}

	idx, ok := SelectQueueFamily(families, graphics, false)
	require.True(t, ok)
	require.Equal(t, uint32(1), idx, "ties break by lowest index")

	idx, ok = SelectQueueFamily(families, graphics, true)
	require.True(t, ok)
	require.Equal(t, uint32(2), idx, "present requirement skips non-present families")

	_, ok = SelectQueueFamily(families, vk.QueueFlags(vk.QueueSparseBindingBit), false)
	require.False(t, ok)
}

func TestSelectQueueFamilySkipsEmpty(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	families := []QueueFamily{
		{Index: 0, Flags: graphics, Count: 0},
		{Index: 1, Flags: graphics, Count: 1},
	}
	idx, ok := SelectQueueFamily(families, graphics, false)
	require.True(t, ok)
	require.Equal(t, uint32(1), idx)
}

func TestSelectComputeFamily(t *testing.T) {
	compute := vk.QueueFlags(vk.QueueComputeBit)
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)

	t.Run("prefers dedicated family", func(t *testing.T) {
		families := []QueueFamily{
			{Index: 0, Flags: graphics | compute, Count: 16},
			{Index: 1, Flags: compute, Count: 8},
		}
		idx, ok := SelectComputeFamily(families, 0)
		require.True(t, ok)
		require.Equal(t, uint32(1), idx)
	})
	t.Run("falls back to graphics family", func(t *testing.T) {
		families := []QueueFamily{
			{Index: 0, Flags: graphics | compute, Count: 16},
			{Index: 1, Flags: vk.QueueFlags(vk.QueueTransferBit), Count: 2},
		}
		idx, ok := SelectComputeFamily(families, 0)
		require.True(t, ok)
		require.Equal(t, uint32(0), idx)
	})
	t.Run("reports absence", func(t *testing.T) {
		families := []QueueFamily{
			{Index: 0, Flags: graphics, Count: 16},
		}
		_, ok := SelectComputeFamily(families, 0)
		require.False(t, ok)
	})
}

func TestSelectPresentFamily(t *testing.T) {
	families := []QueueFamily{
		{Index: 0, Count: 1, CanPresent: false},
		{Index: 1, Count: 0, CanPresent: true},
		{Index: 2, Count: 1, CanPresent: true},
	}
	idx, ok := SelectPresentFamily(families)
	require.True(t, ok)
	require.Equal(t, uint32(2), idx)

	_, ok = SelectPresentFamily(families[:2])
	require.False(t, ok)
}
