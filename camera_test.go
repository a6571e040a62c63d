package vkr

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestCameraEye(t *testing.T) {
	c := NewCamera(5)
	eye := c.Eye()
	require.InDelta(t, 0, eye.X(), 1e-5)
	require.InDelta(t, 0, eye.Y(), 1e-5)
	require.InDelta(t, 5, eye.Z(), 1e-5, "zero yaw and pitch looks down +Z")

	c.Orbit(mgl32.DegToRad(90), 0)
	eye = c.Eye()
	require.InDelta(t, 5, eye.X(), 1e-5)
	require.InDelta(t, 0, eye.Z(), 1e-5)
}

func TestCameraOrbitClampsPitch(t *testing.T) {
	c := NewCamera(5)
	c.Orbit(0, 10)
	require.Less(t, c.Pitch, mgl32.DegToRad(90))
	c.Orbit(0, -20)
	require.Greater(t, c.Pitch, -mgl32.DegToRad(90))
}

func TestCameraZoomFloor(t *testing.T) {
	c := NewCamera(1)
	c.Zoom(100)
	require.InDelta(t, 0.1, c.Distance, 1e-6)
}

func TestProjectionClipSpace(t *testing.T) {
	c := NewCamera(5)
	proj := c.Projection(16.0 / 9.0)

	// A point straight up in view space gets negative clip Y, which is up
	// on screen under the flipped convention.
	up := proj.Mul4x1(mgl32.Vec4{0, 1, -5, 1})
	require.Less(t, up.Y()/up.W(), float32(0))

	// Depth spans [0,1] instead of [-1,1]: the near plane maps to 0.
	near := proj.Mul4x1(mgl32.Vec4{0, 0, -c.Near, 1})
	require.InDelta(t, 0, near.Z()/near.W(), 1e-4)
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -c.Far, 1})
	require.InDelta(t, 1, far.Z()/far.W(), 1e-3)
}

func TestClipMatMatchesCameraProjection(t *testing.T) {
	c := NewCamera(5)
	aspect := float32(4.0 / 3.0)
	want := c.Projection(aspect)
	got := ClipMat().Mul4(mgl32.Perspective(c.Fov, aspect, c.Near, c.Far))
	for i := 0; i < 16; i++ {
		require.InDelta(t, want[i], got[i], 1e-6)
	}
}
