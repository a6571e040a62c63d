package vkr

import (
	lin "github.com/xlab/linmath"
)

// VulkanProjectionMat converts an OpenGL style projection matrix to a Vulkan
// style one: Y flipped, depth remapped from [-1,1] to [0,1].
func VulkanProjectionMat(proj *lin.Mat4x4) lin.Mat4x4 {
	clip := lin.Mat4x4{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, 0.5, 0},
		{0, 0, 0.5, 1},
	}
	var out lin.Mat4x4
	out.Mult(&clip, proj)
	return out
}
