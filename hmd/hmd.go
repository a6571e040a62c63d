// Package hmd abstracts head-mounted display runtimes behind a small
// interface so the same stereo renderer drives real hardware and a desktop
// emulator. Runtime SDKs disagree on pose encodings; the adapters in this
// package normalize them all to Pose.
package hmd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Eye selects one of the two stereo render targets.
type Eye int

const (
	EyeLeft  Eye = 0
	EyeRight Eye = 1
)

func (e Eye) String() string {
	if e == EyeLeft {
		return "left"
	}
	return "right"
}

// Pose is a normalized head pose: orientation as a unit quaternion plus a
// position in meters, both in the runtime's tracking space.
type Pose struct {
	Orientation mgl32.Quat
	Position    mgl32.Vec3
}

// IdentityPose is a forward-facing pose at the tracking origin.
func IdentityPose() Pose {
	return Pose{Orientation: mgl32.QuatIdent()}
}

// Matrix returns the head-to-tracking-space transform.
func (p Pose) Matrix() mgl32.Mat4 {
	m := p.Orientation.Mat4()
	m.SetCol(3, mgl32.Vec4{p.Position.X(), p.Position.Y(), p.Position.Z(), 1})
	return m
}

// ViewMatrix returns the inverse of Matrix, i.e. tracking space to head
// space, ready to multiply with an eye offset.
func (p Pose) ViewMatrix() mgl32.Mat4 {
	return p.Matrix().Inv()
}

// Runtime is the surface the renderer needs from an HMD SDK. WaitPose
// blocks until the runtime's preferred submit time and returns the predicted
// head pose for the frame.
type Runtime interface {
	Name() string
	// RenderTargetSize is the per-eye resolution the runtime recommends.
	RenderTargetSize() (width, height uint32)
	WaitPose() (Pose, error)
	// EyeToHead is the per-eye offset transform. For well-behaved runtimes
	// this is a pure translation of half the interpupillary distance.
	EyeToHead(eye Eye) mgl32.Mat4
	Projection(eye Eye, near, far float32) mgl32.Mat4
	// Submit hands the rendered eye texture to the runtime's compositor.
	// The runtime owns presentation timing from that point.
	Submit(eye Eye, texture uintptr) error
	Shutdown()
}

// EyeViews computes both eyes' view matrices from one head pose. The two
// results differ only by the eye translation baked into EyeToHead.
func EyeViews(rt Runtime, pose Pose) [2]mgl32.Mat4 {
	head := pose.ViewMatrix()
	return [2]mgl32.Mat4{
		rt.EyeToHead(EyeLeft).Inv().Mul4(head),
		rt.EyeToHead(EyeRight).Inv().Mul4(head),
	}
}
