package vkr

import vk "github.com/vulkan-go/vulkan"

// Context owns the per-swapchain-image command and fence managers and runs
// queue submission with the frame's semaphore dependencies. One Context
// serves one frame loop.
type Context struct {
	platform       *Platform
	swapchainIndex uint32
	threadCount    uint
	perFrame       []*perFrameCtx

	// Semaphores of the frame being recorded, installed by BeginFrame.
	acquireSemaphore vk.Semaphore
	releaseSemaphore vk.Semaphore
}

func NewContext(platform *Platform) *Context {
	return &Context{platform: platform}
}

func (c *Context) Platform() *Platform { return c.platform }
func (c *Context) Device() vk.Device   { return c.platform.Device() }
func (c *Context) Queue() vk.Queue     { return c.platform.GraphicsQueue() }

// OnSwapchainUpdate must be called after the swapchain is created or
// recreated. Every swapchain image gets its own command pool and fence
// manager, which makes it trivial to know when buffers can be reset.
func (c *Context) OnSwapchainUpdate(imageCount int) error {
	vk.QueueWaitIdle(c.platform.GraphicsQueue())
	for i := range c.perFrame {
		c.perFrame[i].Destroy()
	}
	c.perFrame = c.perFrame[:0]
	queueIdx := c.platform.GraphicsQueueFamilyIndex()
	for i := 0; i < imageCount; i++ {
		pf, err := newPerFrameCtx(c.platform.Device(), queueIdx)
		if err != nil {
			return err
		}
		c.perFrame = append(c.perFrame, pf)
	}
	return c.SetRenderingThreadCount(c.threadCount)
}

// SetRenderingThreadCount sets the number of worker threads which can use
// secondary command buffers. Blocks until all GPU work completes.
func (c *Context) SetRenderingThreadCount(count uint) error {
	vk.QueueWaitIdle(c.platform.GraphicsQueue())
	for i := range c.perFrame {
		if err := c.perFrame[i].SetSecondaryManagerCount(count); err != nil {
			return err
		}
	}
	c.threadCount = count
	return nil
}

// BeginFrame binds the context to the swapchain image being rendered this
// frame, recycles that image's command buffers and fences, and takes
// ownership of the frame's semaphores. The previous semaphores of this image
// are destroyed only after its fences have been waited, so they are
// guaranteed to be out of flight.
func (c *Context) BeginFrame(swapchainIdx uint32, acquireSemaphore, releaseSemaphore vk.Semaphore) {
	c.swapchainIndex = swapchainIdx
	c.acquireSemaphore = acquireSemaphore
	c.releaseSemaphore = releaseSemaphore
	c.perFrame[swapchainIdx].Reset()
	c.perFrame[swapchainIdx].SetSwapchainSemaphores(acquireSemaphore, releaseSemaphore)
}

// NewPrimaryCommandBuffer gets a new or reset primary command buffer whose
// lifetime is the current frame.
func (c *Context) NewPrimaryCommandBuffer() (vk.CommandBuffer, error) {
	return c.perFrame[c.swapchainIndex].commands.NewCommandBuffer()
}

// NewSecondaryCommandBuffer gets a per-thread secondary command buffer.
// SetRenderingThreadCount must have been called with a count > threadIndex.
func (c *Context) NewSecondaryCommandBuffer(threadIndex uint) (vk.CommandBuffer, error) {
	return c.perFrame[c.swapchainIndex].secondary[threadIndex].NewCommandBuffer()
}

// Submit submits a command buffer with no swapchain dependencies.
func (c *Context) Submit(cmd vk.CommandBuffer) error {
	return c.submit(cmd, vk.NullSemaphore, vk.NullSemaphore, nil, vk.NullSemaphore)
}

// SubmitSwapchain submits a command buffer that renders to the swapchain
// image: it waits on the acquire semaphore and signals the release semaphore
// installed by BeginFrame.
func (c *Context) SubmitSwapchain(cmd vk.CommandBuffer) error {
	return c.submit(cmd, c.acquireSemaphore, c.releaseSemaphore, nil, vk.NullSemaphore)
}

// SubmitSwapchainWait is SubmitSwapchain with additional wait semaphores and
// an optional extra signal, used when a compute queue feeds the graphics
// submission: graphics waits on the dispatch and signals back once its reads
// of the compute output have completed.
func (c *Context) SubmitSwapchainWait(cmd vk.CommandBuffer, waits []vk.Semaphore,
	stages []vk.PipelineStageFlags, signal vk.Semaphore) error {
	return c.submit(cmd, c.acquireSemaphore, c.releaseSemaphore,
		&extraWaits{sems: waits, stages: stages}, signal)
}

type extraWaits struct {
	sems   []vk.Semaphore
	stages []vk.PipelineStageFlags
}

func (c *Context) submit(cmd vk.CommandBuffer, acquire, release vk.Semaphore,
	extra *extraWaits, extraSignal vk.Semaphore) error {
	// Every submission gets a fence the CPU will wait on when this image
	// comes around again.
	fence, err := c.perFrame[c.swapchainIndex].fences.NewFence()
	if err != nil {
		return err
	}

	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	var waitSems []vk.Semaphore
	var waitStages []vk.PipelineStageFlags
	if acquire != vk.NullSemaphore {
		waitSems = append(waitSems, acquire)
		waitStages = append(waitStages, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
	}
	if extra != nil {
		waitSems = append(waitSems, extra.sems...)
		waitStages = append(waitStages, extra.stages...)
	}
	if len(waitSems) > 0 {
		info.WaitSemaphoreCount = uint32(len(waitSems))
		info.PWaitSemaphores = waitSems
		info.PWaitDstStageMask = waitStages
	}
	var signals []vk.Semaphore
	if release != vk.NullSemaphore {
		signals = append(signals, release)
	}
	if extraSignal != vk.NullSemaphore {
		signals = append(signals, extraSignal)
	}
	if len(signals) > 0 {
		info.SignalSemaphoreCount = uint32(len(signals))
		info.PSignalSemaphores = signals
	}
	ret := vk.QueueSubmit(c.platform.GraphicsQueue(), 1, []vk.SubmitInfo{info}, fence)
	return NewError(ret)
}

func (c *Context) Destroy() {
	for i := range c.perFrame {
		c.perFrame[i].Destroy()
	}
	c.perFrame = nil
	c.platform = nil
}

type perFrameCtx struct {
	device    vk.Device
	fences    *FenceManager
	commands  *CommandBufferManager
	secondary []*CommandBufferManager

	acquireSemaphore vk.Semaphore
	releaseSemaphore vk.Semaphore

	queueIndex uint32
}

func newPerFrameCtx(device vk.Device, queueFamilyIndex uint32) (*perFrameCtx, error) {
	m, err := NewCommandBufferManager(device, vk.CommandBufferLevelPrimary, queueFamilyIndex)
	if err != nil {
		return nil, err
	}
	return &perFrameCtx{
		device:     device,
		fences:     NewFenceManager(device),
		commands:   m,
		queueIndex: queueFamilyIndex,
	}, nil
}

func (p *perFrameCtx) Reset() {
	p.fences.Reset()
	p.commands.Reset()
	for i := range p.secondary {
		p.secondary[i].Reset()
	}
}

func (p *perFrameCtx) Destroy() {
	p.fences.Destroy()
	p.commands.Destroy()
	for i := range p.secondary {
		p.secondary[i].Destroy()
	}
	p.secondary = nil
	p.SetSwapchainSemaphores(vk.NullSemaphore, vk.NullSemaphore)
}

// SetSwapchainSemaphores installs this frame's semaphores, destroying the
// previous pair now that the image's fences have been waited.
func (p *perFrameCtx) SetSwapchainSemaphores(acquire, release vk.Semaphore) {
	if p.acquireSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(p.device, p.acquireSemaphore, nil)
	}
	if p.releaseSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(p.device, p.releaseSemaphore, nil)
	}
	p.acquireSemaphore = acquire
	p.releaseSemaphore = release
}

func (p *perFrameCtx) SetSecondaryManagerCount(count uint) error {
	for i := range p.secondary {
		p.secondary[i].Destroy()
	}
	p.secondary = p.secondary[:0]
	for i := uint(0); i < count; i++ {
		m, err := NewCommandBufferManager(p.device, vk.CommandBufferLevelSecondary, p.queueIndex)
		if err != nil {
			return err
		}
		p.secondary = append(p.secondary, m)
	}
	return nil
}
