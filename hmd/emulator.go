package hmd

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Emulator is a desktop stand-in for an HMD runtime: a slowly swaying head
// pose, a fixed interpupillary distance and symmetric projections. It lets
// the stereo demos run without any headset attached.
type Emulator struct {
	Width  uint32
	Height uint32
	IPD    float32
	Fov    float32

	start time.Time
}

func NewEmulator() *Emulator {
	return &Emulator{
		Width:  1024,
		Height: 1024,
		IPD:    0.064,
		Fov:    mgl32.DegToRad(90),
		start:  time.Now(),
	}
}

func (e *Emulator) Name() string { return "emulator" }

func (e *Emulator) RenderTargetSize() (uint32, uint32) {
	return e.Width, e.Height
}

// WaitPose never blocks: the emulator has no compositor to pace against.
func (e *Emulator) WaitPose() (Pose, error) {
	t := float32(time.Since(e.start).Seconds())
	yaw := 0.2 * math32.Sin(t*0.5)
	pitch := 0.1 * math32.Sin(t*0.3)
	return Pose{
		Orientation: mgl32.AnglesToQuat(pitch, yaw, 0, mgl32.XYZ),
		Position:    mgl32.Vec3{0, 1.7, 0},
	}, nil
}

func (e *Emulator) EyeToHead(eye Eye) mgl32.Mat4 {
	offset := e.IPD / 2
	if eye == EyeLeft {
		offset = -offset
	}
	return mgl32.Translate3D(offset, 0, 0)
}

func (e *Emulator) Projection(eye Eye, near, far float32) mgl32.Mat4 {
	aspect := float32(e.Width) / float32(e.Height)
	proj := mgl32.Perspective(e.Fov, aspect, near, far)
	// Same clip correction the flat renderer applies.
	clip := mgl32.Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	return clip.Mul4(proj)
}

// Submit is a no-op: the emulator's frames are shown through the regular
// swapchain instead of a compositor.
func (e *Emulator) Submit(eye Eye, texture uintptr) error { return nil }

func (e *Emulator) Shutdown() {}
