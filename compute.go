package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Compute owns the command machinery for per-frame dispatch work on the
// device's compute queue: a dedicated pool, a reusable command buffer, a
// fence guarding re-record, and a semaphore pair ordering the two queues in
// both directions. The dispatch signals `semaphore` for the graphics
// submission to wait on; the graphics submission signals `graphicsDone`,
// which the next dispatch waits on so it cannot overwrite a buffer slot a
// still-in-flight frame is reading.
type Compute struct {
	platform *Platform

	pool         vk.CommandPool
	cmd          vk.CommandBuffer
	fence        vk.Fence
	semaphore    vk.Semaphore
	graphicsDone vk.Semaphore
	pending      bool
}

func NewCompute(p *Platform) (*Compute, error) {
	c := &Compute{platform: p}
	ret := vk.CreateCommandPool(p.Device(), &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: p.ComputeQueueFamilyIndex(),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &c.pool)
	if isError(ret) {
		return nil, NewError(ret)
	}
	bufs := make([]vk.CommandBuffer, 1)
	ret = vk.AllocateCommandBuffers(p.Device(), &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, bufs)
	if isError(ret) {
		c.Destroy()
		return nil, NewError(ret)
	}
	c.cmd = bufs[0]
	c.fence = p.NewFence(true)
	c.semaphore = p.NewSemaphore()
	c.graphicsDone = p.NewSemaphore()
	return c, nil
}

// GraphicsSignal returns the semaphore the graphics submission must signal
// once it has consumed the dispatch output.
func (c *Compute) GraphicsSignal() vk.Semaphore {
	return c.graphicsDone
}

// dispatchWaits assembles the wait list for a dispatch submission. The first
// dispatch has no prior graphics read to order against; every later one
// holds its compute stage until the previous frame's graphics submission has
// finished reading.
func dispatchWaits(pending bool, graphicsDone vk.Semaphore) ([]vk.Semaphore, []vk.PipelineStageFlags) {
	if !pending {
		return nil, nil
	}
	return []vk.Semaphore{graphicsDone},
		[]vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)}
}

// Begin waits until the previous dispatch finished, then opens the command
// buffer for re-recording.
func (c *Compute) Begin() (vk.CommandBuffer, error) {
	device := c.platform.Device()
	vk.WaitForFences(device, 1, []vk.Fence{c.fence}, vk.True, vk.MaxUint64)
	vk.ResetFences(device, 1, []vk.Fence{c.fence})
	ret := vk.BeginCommandBuffer(c.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if isError(ret) {
		return nil, NewError(ret)
	}
	return c.cmd, nil
}

// Submit closes the command buffer and submits it on the compute queue. The
// returned semaphore and the given wait stage plug straight into the
// graphics submission's wait list; pass the stage that first consumes the
// compute output (vertex input, indirect draw).
func (c *Compute) Submit(waitStage vk.PipelineStageFlagBits) (vk.Semaphore, vk.PipelineStageFlags, error) {
	ret := vk.EndCommandBuffer(c.cmd)
	if isError(ret) {
		return vk.NullSemaphore, 0, NewError(ret)
	}
	waits, stages := dispatchWaits(c.pending, c.graphicsDone)
	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{c.semaphore},
	}
	if len(waits) > 0 {
		info.WaitSemaphoreCount = uint32(len(waits))
		info.PWaitSemaphores = waits
		info.PWaitDstStageMask = stages
	}
	ret = vk.QueueSubmit(c.platform.ComputeQueue(), 1, []vk.SubmitInfo{info}, c.fence)
	if isError(ret) {
		return vk.NullSemaphore, 0, NewError(ret)
	}
	c.pending = true
	return c.semaphore, vk.PipelineStageFlags(waitStage), nil
}

// Wait blocks until the in-flight dispatch completed, for teardown paths.
func (c *Compute) Wait() {
	vk.WaitForFences(c.platform.Device(), 1, []vk.Fence{c.fence}, vk.True, vk.MaxUint64)
}

func (c *Compute) Destroy() {
	device := c.platform.Device()
	if c.fence != vk.NullFence {
		c.Wait()
		vk.DestroyFence(device, c.fence, nil)
		c.fence = vk.NullFence
	}
	if c.semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(device, c.semaphore, nil)
		c.semaphore = vk.NullSemaphore
	}
	if c.graphicsDone != vk.NullSemaphore {
		vk.DestroySemaphore(device, c.graphicsDone, nil)
		c.graphicsDone = vk.NullSemaphore
	}
	if c.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(device, c.pool, nil)
		c.pool = vk.NullCommandPool
	}
}

// CmdStorageBarrier records a buffer barrier between a compute write and a
// subsequent read on the same queue, with the given destination stage and
// access. Used between chained dispatches and before vertex input reads when
// graphics and compute share a queue family.
func CmdStorageBarrier(cmd vk.CommandBuffer, buf *Buffer,
	dstStage vk.PipelineStageFlagBits, dstAccess vk.AccessFlagBits) {

	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		vk.PipelineStageFlags(dstStage), 0, 0, nil,
		1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(vk.AccessShaderWriteBit),
			DstAccessMask:       vk.AccessFlags(dstAccess),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buf.Buffer,
			Size:                buf.Size,
		}}, 0, nil)
}

// OwnershipTransfer describes a buffer handed between two queue families.
// When the families are equal no barriers are required and Needed is false.
type OwnershipTransfer struct {
	SrcFamily uint32
	DstFamily uint32
	Needed    bool
}

func NewOwnershipTransfer(srcFamily, dstFamily uint32) OwnershipTransfer {
	return OwnershipTransfer{
		SrcFamily: srcFamily,
		DstFamily: dstFamily,
		Needed:    srcFamily != dstFamily,
	}
}

// CmdRelease records the releasing half of the transfer on the source queue.
func (t OwnershipTransfer) CmdRelease(cmd vk.CommandBuffer, buf *Buffer,
	srcStage, dstStage vk.PipelineStageFlagBits, srcAccess vk.AccessFlagBits) {

	if !t.Needed {
		return
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(srcStage),
		vk.PipelineStageFlags(dstStage), 0, 0, nil,
		1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(srcAccess),
			SrcQueueFamilyIndex: t.SrcFamily,
			DstQueueFamilyIndex: t.DstFamily,
			Buffer:              buf.Buffer,
			Size:                buf.Size,
		}}, 0, nil)
}

// CmdAcquire records the matching acquiring half on the destination queue.
func (t OwnershipTransfer) CmdAcquire(cmd vk.CommandBuffer, buf *Buffer,
	srcStage, dstStage vk.PipelineStageFlagBits, dstAccess vk.AccessFlagBits) {

	if !t.Needed {
		return
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(srcStage),
		vk.PipelineStageFlags(dstStage), 0, 0, nil,
		1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			DstAccessMask:       vk.AccessFlags(dstAccess),
			SrcQueueFamilyIndex: t.SrcFamily,
			DstQueueFamilyIndex: t.DstFamily,
			Buffer:              buf.Buffer,
			Size:                buf.Size,
		}}, 0, nil)
}
