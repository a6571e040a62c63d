package vkr

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// vulkanClip converts OpenGL clip space conventions to Vulkan's: Y points
// down and depth spans [0,1].
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ClipMat returns the clip space correction matrix, for callers building
// projections without a Camera.
func ClipMat() mgl32.Mat4 {
	return vulkanClip
}

// Camera is an orbiting look-at camera with a Vulkan-corrected projection.
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32

	Fov  float32
	Near float32
	Far  float32
}

func NewCamera(distance float32) *Camera {
	return &Camera{
		Distance: distance,
		Fov:      mgl32.DegToRad(60),
		Near:     0.1,
		Far:      256,
	}
}

// Eye returns the camera position derived from the orbit parameters.
func (c *Camera) Eye() mgl32.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Target.Add(mgl32.Vec3{
		c.Distance * cp * math32.Sin(c.Yaw),
		c.Distance * math32.Sin(c.Pitch),
		c.Distance * cp * math32.Cos(c.Yaw),
	})
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the Vulkan-corrected perspective projection for the
// given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return vulkanClip.Mul4(mgl32.Perspective(c.Fov, aspect, c.Near, c.Far))
}

// Orbit rotates the camera around the target, clamping pitch short of the
// poles.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch += dPitch
	limit := float32(math32.Pi/2 - 0.01)
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}

// Zoom moves the camera along the view ray, never through the target.
func (c *Camera) Zoom(delta float32) {
	c.Distance -= delta
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
}
