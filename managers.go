package vkr

import vk "github.com/vulkan-go/vulkan"

// FenceManager keeps track of fences which in turn are used to keep track of
// GPU progress. The manager is not thread-safe; rendering threads should own
// per-thread managers.
type FenceManager struct {
	device vk.Device
	fences []vk.Fence
	count  uint32
}

func NewFenceManager(device vk.Device) *FenceManager {
	return &FenceManager{
		device: device,
	}
}

// Reset waits for the GPU to trigger all outstanding fences, then recycles
// them. After Reset returns it is safe to reuse or delete resources which
// were in flight.
func (f *FenceManager) Reset() {
	if f.count > 0 {
		vk.WaitForFences(f.device, f.count, f.fences, vk.True, vk.MaxUint64)
		vk.ResetFences(f.device, f.count, f.fences)
	}
	f.count = 0
}

// NewFence returns a fresh or recycled unsignaled fence.
func (f *FenceManager) NewFence() (vk.Fence, error) {
	if f.count < uint32(len(f.fences)) {
		fence := f.fences[f.count]
		f.count++
		return fence, nil
	}
	var fence vk.Fence
	ret := vk.CreateFence(f.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)
	if isError(ret) {
		return fence, NewError(ret)
	}
	f.fences = append(f.fences, fence)
	f.count++
	return fence, nil
}

func (f *FenceManager) ActiveFences() []vk.Fence {
	return f.fences[:f.count]
}

func (f *FenceManager) Destroy() {
	f.Reset()
	for i := range f.fences {
		vk.DestroyFence(f.device, f.fences[i], nil)
	}
	f.fences = nil
}

// CommandBufferManager allocates command buffers from its own pool and
// recycles them across frames. Not thread-safe; use one per recording thread.
type CommandBufferManager struct {
	device  vk.Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
	level   vk.CommandBufferLevel
	count   uint32
}

// NewCommandBufferManager creates a manager whose pool allocates buffers of
// the given level for the given queue family.
func NewCommandBufferManager(device vk.Device,
	level vk.CommandBufferLevel, queueFamilyIndex uint32) (*CommandBufferManager, error) {

	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamilyIndex,
		// ResetCommandBufferBit allows command buffers to be reset individually.
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if isError(ret) {
		return nil, NewError(ret)
	}

	return &CommandBufferManager{
		pool:   pool,
		device: device,
		level:  level,
	}, nil
}

// Reset marks all managed command buffers as recycleable.
func (c *CommandBufferManager) Reset() {
	c.count = 0
}

func (c *CommandBufferManager) Destroy() {
	if len(c.buffers) > 0 {
		vk.FreeCommandBuffers(c.device, c.pool, uint32(len(c.buffers)), c.buffers)
	}
	vk.DestroyCommandPool(c.device, c.pool, nil)
	c.buffers = nil
}

// NewCommandBuffer returns a fresh or recycled command buffer in the reset
// state. Its lifetime is the current frame only.
func (c *CommandBufferManager) NewCommandBuffer() (vk.CommandBuffer, error) {
	if c.count < uint32(len(c.buffers)) {
		buf := c.buffers[c.count]
		c.count++
		ret := vk.ResetCommandBuffer(buf,
			vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))
		if isError(ret) {
			return buf, NewError(ret)
		}
		return buf, nil
	}
	bufs := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              c.level,
		CommandBufferCount: 1,
	}, bufs)
	if isError(ret) {
		return nil, NewError(ret)
	}
	c.buffers = append(c.buffers, bufs[0])
	c.count++
	return bufs[0], nil
}
