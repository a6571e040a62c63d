package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

func TestVulkanProjectionMat(t *testing.T) {
	var proj lin.Mat4x4
	proj.Perspective(lin.DegreesToRadians(60), 1, 0.1, 100)
	out := VulkanProjectionMat(&proj)

	clip := lin.Mat4x4{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, 0.5, 0},
		{0, 0, 0.5, 1},
	}
	var want lin.Mat4x4
	want.Mult(&clip, &proj)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			require.InDelta(t, want[c][r], out[c][r], 1e-6)
		}
	}

	// The Y column flips sign, the rest of the diagonal survives.
	require.InDelta(t, -proj[1][1], out[1][1], 1e-6)
	require.InDelta(t, proj[0][0], out[0][0], 1e-6)
}
