package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// IndirectDrawSet builds the CPU-side template of indirect draw commands a
// culling dispatch later edits on the GPU. One command per object; the
// compute pass zeroes the instance count of culled objects.
type IndirectDrawSet struct {
	Commands []vk.DrawIndexedIndirectCommand
}

// BuildIndirectCommands lays out one draw per object over a shared indexed
// mesh. Every command starts visible with a single instance whose id is the
// object index, so object data can be looked up per-instance in the shader.
func BuildIndirectCommands(objectCount, indexCount uint32) IndirectDrawSet {
	cmds := make([]vk.DrawIndexedIndirectCommand, objectCount)
	for i := uint32(0); i < objectCount; i++ {
		cmds[i] = vk.DrawIndexedIndirectCommand{
			IndexCount:    indexCount,
			InstanceCount: 1,
			FirstInstance: i,
		}
	}
	return IndirectDrawSet{Commands: cmds}
}

// Bytes reinterprets the commands as the raw bytes the indirect buffer
// expects.
func (s IndirectDrawSet) Bytes() []byte {
	if len(s.Commands) == 0 {
		return nil
	}
	const m = 0x7fffffff
	size := len(s.Commands) * indirectCommandSize
	return (*[m]byte)(unsafe.Pointer(&s.Commands[0]))[:size:size]
}

// indirectCommandSize is the wire size of VkDrawIndexedIndirectCommand.
const indirectCommandSize = 20

// ClampDrawCount bounds a GPU-written visible-object counter to the number
// of commands actually in the buffer. Stale or corrupt counter values must
// never make the indirect draw read past the buffer.
func ClampDrawCount(counter, objectCount uint32) uint32 {
	if counter > objectCount {
		return objectCount
	}
	return counter
}
