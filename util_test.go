package vkr

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeString(t *testing.T) {
	require.Equal(t, "\x00", safeString(""))
	require.Equal(t, "abc\x00", safeString("abc"))
	require.Equal(t, "abc\x00", safeString("abc\x00"), "already terminated strings stay unchanged")
}

func TestCheckExisting(t *testing.T) {
	actual := []string{"VK_KHR_swapchain", "VK_KHR_multiview"}
	existing, missing := checkExisting(actual, []string{
		"VK_KHR_swapchain", "VK_KHR_external_memory",
	})
	require.Equal(t, 1, missing)
	require.Equal(t, []string{"VK_KHR_swapchain\x00"}, existing,
		"surviving names come back null terminated")
}

func TestF32Bytes(t *testing.T) {
	raw := F32Bytes([]float32{1.5, -2})
	require.Len(t, raw, 8)
	require.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	require.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])))
	require.Nil(t, F32Bytes(nil))
}

func TestU32Bytes(t *testing.T) {
	raw := U32Bytes([]uint32{7, 0xdeadbeef})
	require.Len(t, raw, 8)
	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(raw))
	require.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(raw[4:]))
	require.Nil(t, U32Bytes(nil))
}
