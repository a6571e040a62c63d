package vkr

import (
	"fmt"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Payload is the example-specific part plugged into the frame loop: a setup
// step, a per-frame simulation update and a command recording step.
type Payload interface {
	Setup(ctx *Context, swapchain *Swapchain) error
	// Update advances the simulation by the measured wall-clock delta.
	Update(dt float64)
	// Record returns the primary command buffer to submit for the given
	// swapchain image this frame.
	Record(imageIndex int) (vk.CommandBuffer, error)
	Destroy()
}

// PayloadResize is implemented by payloads holding extent-dependent
// resources; it runs after the swapchain has been recreated.
type PayloadResize interface {
	OnSwapchainRecreate(swapchain *Swapchain) error
}

// ComputePayload is implemented by payloads that feed the graphics
// submission from a compute queue. SubmitCompute submits this frame's
// dispatch and returns the semaphore the graphics submission must wait on,
// along with the stage mask for the wait. ComputeSignal returns the
// semaphore the graphics submission signals back; the next dispatch waits on
// it so it cannot overwrite a buffer a still-in-flight frame is reading.
type ComputePayload interface {
	SubmitCompute() (vk.Semaphore, vk.PipelineStageFlags, error)
	ComputeSignal() vk.Semaphore
}

// frameState tracks the strictly sequential per-frame protocol:
// Idle -> Acquiring -> Recording -> Submitting -> Presenting -> Idle.
// Recording may be skipped when command buffers are reused unchanged.
type frameState int

const (
	frameIdle frameState = iota
	frameAcquiring
	frameRecording
	frameSubmitting
	framePresenting
)

func (s frameState) String() string {
	switch s {
	case frameIdle:
		return "Idle"
	case frameAcquiring:
		return "Acquiring"
	case frameRecording:
		return "Recording"
	case frameSubmitting:
		return "Submitting"
	case framePresenting:
		return "Presenting"
	}
	return "Unknown"
}

type frameTracker struct {
	state frameState
}

// advance moves the tracker to the given state, rejecting anything but the
// legal successor. The only legal skip is Acquiring -> Submitting when no
// recording is needed this frame.
func (t *frameTracker) advance(to frameState) error {
	ok := false
	switch t.state {
	case frameIdle:
		ok = to == frameAcquiring
	case frameAcquiring:
		ok = to == frameRecording || to == frameSubmitting
	case frameRecording:
		ok = to == frameSubmitting
	case frameSubmitting:
		ok = to == framePresenting
	case framePresenting:
		ok = to == frameIdle
	}
	if !ok {
		return fmt.Errorf("frame state error: illegal transition %s -> %s", t.state, to)
	}
	t.state = to
	return nil
}

// frameClock measures wall-clock deltas between frames.
type frameClock struct {
	last time.Time
}

func (c *frameClock) Tick() float64 {
	now := time.Now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	return dt
}

// FrameLoop drives the repeated acquire -> record -> submit -> present
// sequence on a single thread. Input polling and rendering are interleaved
// in strict sequence; suspension only happens at the blocking acquire and
// fence waits.
type FrameLoop struct {
	window    *Window
	platform  *Platform
	context   *Context
	swapchain *Swapchain
	payload   Payload

	tracker frameTracker
	clock   frameClock
}

// NewFrameLoop wires the loop together and runs the payload's setup against
// the initial swapchain.
func NewFrameLoop(window *Window, platform *Platform, payload Payload) (*FrameLoop, error) {
	l := &FrameLoop{
		window:   window,
		platform: platform,
		payload:  payload,
	}
	var err error
	l.swapchain, err = NewSwapchain(platform, nil)
	if err != nil {
		return nil, err
	}
	if err := l.swapchain.Create(window.Extent()); err != nil {
		return nil, err
	}
	l.context = NewContext(platform)
	if err := l.context.OnSwapchainUpdate(l.swapchain.ImageCount()); err != nil {
		return nil, err
	}
	if err := payload.Setup(l.context, l.swapchain); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FrameLoop) Context() *Context     { return l.context }
func (l *FrameLoop) Swapchain() *Swapchain { return l.swapchain }

// Run polls input and renders frames until the window is closed. Any
// unexpected API error terminates the process.
func (l *FrameLoop) Run() {
	for !l.window.ShouldClose() {
		glfw.PollEvents()
		if l.window.ConsumeResize() {
			orPanic(l.recreate())
		}
		orPanic(l.Frame())
	}
	vk.DeviceWaitIdle(l.platform.Device())
}

// Frame runs one full iteration of the per-frame protocol.
func (l *FrameLoop) Frame() error {
	dt := l.clock.Tick()
	l.payload.Update(dt)

	if err := l.tracker.advance(frameAcquiring); err != nil {
		return err
	}
	acquireSem := l.platform.NewSemaphore()
	releaseSem := l.platform.NewSemaphore()
	idx, outdated, err := l.swapchain.AcquireNextImage(acquireSem)
	if err != nil {
		return err
	}
	if outdated {
		// Surface changed under us: rebuild the ring and retry the acquire
		// once. A second failure is fatal.
		vk.DestroySemaphore(l.platform.Device(), acquireSem, nil)
		vk.DestroySemaphore(l.platform.Device(), releaseSem, nil)
		if err := l.recreate(); err != nil {
			return err
		}
		acquireSem = l.platform.NewSemaphore()
		releaseSem = l.platform.NewSemaphore()
		idx, outdated, err = l.swapchain.AcquireNextImage(acquireSem)
		if err != nil {
			return err
		}
		if outdated {
			return fmt.Errorf("vulkan error: swapchain still out of date after recreation")
		}
	}
	l.context.BeginFrame(uint32(idx), acquireSem, releaseSem)

	if err := l.tracker.advance(frameRecording); err != nil {
		return err
	}
	cmd, err := l.payload.Record(idx)
	if err != nil {
		return err
	}

	if err := l.tracker.advance(frameSubmitting); err != nil {
		return err
	}
	if cp, ok := l.payload.(ComputePayload); ok {
		sem, stage, err := cp.SubmitCompute()
		if err != nil {
			return err
		}
		err = l.context.SubmitSwapchainWait(cmd,
			[]vk.Semaphore{sem}, []vk.PipelineStageFlags{stage}, cp.ComputeSignal())
		if err != nil {
			return err
		}
	} else {
		if err := l.context.SubmitSwapchain(cmd); err != nil {
			return err
		}
	}

	if err := l.tracker.advance(framePresenting); err != nil {
		return err
	}
	outdated, err = l.swapchain.QueuePresent(idx, releaseSem)
	if err != nil {
		return err
	}
	if outdated {
		if err := l.recreate(); err != nil {
			return err
		}
	}
	return l.tracker.advance(frameIdle)
}

// recreate rebuilds the swapchain ring after a resize or an out-of-date
// result and lets the payload rebuild extent-dependent state.
func (l *FrameLoop) recreate() error {
	vk.DeviceWaitIdle(l.platform.Device())
	extent := l.window.Extent()
	if err := l.swapchain.Create(extent); err != nil {
		return err
	}
	if err := l.context.OnSwapchainUpdate(l.swapchain.ImageCount()); err != nil {
		return err
	}
	if pr, ok := l.payload.(PayloadResize); ok {
		if err := pr.OnSwapchainRecreate(l.swapchain); err != nil {
			return err
		}
	}
	notifyResize(l.payload, int(extent.Width), int(extent.Height))
	return nil
}

// notifyResize runs the payload's resize hook, after the swapchain has been
// rebuilt at the new extent.
func notifyResize(p Payload, width, height int) {
	if rh, ok := p.(ResizeHandler); ok {
		rh.OnResize(width, height)
	}
}

func (l *FrameLoop) Destroy() {
	vk.DeviceWaitIdle(l.platform.Device())
	l.payload.Destroy()
	l.context.Destroy()
	l.swapchain.Destroy()
}
