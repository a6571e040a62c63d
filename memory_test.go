package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	types := []vk.MemoryPropertyFlags{
		deviceLocal,
		hostVisible,
		hostVisible | hostCoherent,
	}

	t.Run("first match wins", func(t *testing.T) {
		idx, err := FindMemoryType(types, 0b111, hostVisible)
		require.NoError(t, err)
		require.Equal(t, uint32(1), idx)
	})
	t.Run("combined requirements", func(t *testing.T) {
		idx, err := FindMemoryType(types, 0b111, hostVisible|hostCoherent)
		require.NoError(t, err)
		require.Equal(t, uint32(2), idx)
	})
	t.Run("type bits filter candidates", func(t *testing.T) {
		idx, err := FindMemoryType(types, 0b100, hostVisible)
		require.NoError(t, err)
		require.Equal(t, uint32(2), idx)

		_, err = FindMemoryType(types, 0b001, hostVisible)
		require.Error(t, err)
	})
	t.Run("no suitable type", func(t *testing.T) {
		_, err := FindMemoryType(types, 0b111, vk.MemoryPropertyFlags(vk.MemoryPropertyLazilyAllocatedBit))
		require.Error(t, err)
	})
}
