package hmd

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func requireMat4Near(t *testing.T, want, got mgl32.Mat4, eps float64) {
	t.Helper()
	for i := 0; i < 16; i++ {
		require.InDelta(t, want[i], got[i], eps)
	}
}

func TestPoseMatrixInverse(t *testing.T) {
	p := Pose{
		Orientation: mgl32.AnglesToQuat(0.3, -0.7, 0.1, mgl32.XYZ),
		Position:    mgl32.Vec3{0.5, 1.7, -2},
	}
	requireMat4Near(t, mgl32.Ident4(), p.Matrix().Mul4(p.ViewMatrix()), 1e-5)
}

func TestIdentityPose(t *testing.T) {
	p := IdentityPose()
	requireMat4Near(t, mgl32.Ident4(), p.Matrix(), 1e-6)
}

func TestEyeViewsDifferOnlyInTranslation(t *testing.T) {
	rt := NewEmulator()
	views := EyeViews(rt, IdentityPose())

	// Rotation blocks are identical.
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			require.InDelta(t, views[0].At(row, col), views[1].At(row, col), 1e-6)
		}
	}
	// Translation differs by the full IPD along X.
	dx := views[0].At(0, 3) - views[1].At(0, 3)
	require.InDelta(t, float64(rt.IPD), float64(dx), 1e-6)
	require.InDelta(t, views[0].At(1, 3), views[1].At(1, 3), 1e-6)
	require.InDelta(t, views[0].At(2, 3), views[1].At(2, 3), 1e-6)
}

func TestEmulatorDefaults(t *testing.T) {
	rt := NewEmulator()
	w, h := rt.RenderTargetSize()
	require.Equal(t, uint32(1024), w)
	require.Equal(t, uint32(1024), h)
	require.Equal(t, "emulator", rt.Name())

	pose, err := rt.WaitPose()
	require.NoError(t, err)
	require.InDelta(t, 1, pose.Orientation.Len(), 1e-5, "pose quaternion stays unit length")
	require.InDelta(t, 1.7, pose.Position.Y(), 1e-6)

	require.NoError(t, rt.Submit(EyeLeft, 0))
}

func TestMat34RoundTrip(t *testing.T) {
	want := Pose{
		Orientation: mgl32.AnglesToQuat(0.2, 0.4, -0.1, mgl32.XYZ).Normalize(),
		Position:    mgl32.Vec3{1, 2, 3},
	}
	got := Mat34FromPose(want).Pose()
	require.InDelta(t, want.Position.X(), got.Position.X(), 1e-5)
	require.InDelta(t, want.Position.Y(), got.Position.Y(), 1e-5)
	require.InDelta(t, want.Position.Z(), got.Position.Z(), 1e-5)
	// Quaternions double-cover rotations; compare the matrices instead.
	requireMat4Near(t, want.Matrix(), got.Matrix(), 1e-4)
}

func TestMat34Identity(t *testing.T) {
	m := Mat34{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	requireMat4Near(t, mgl32.Ident4(), m.Mat4(), 1e-6)
	p := m.Pose()
	require.InDelta(t, 1, float64(p.Orientation.W), 1e-5)
}

func TestQuatPoseRoundTrip(t *testing.T) {
	want := Pose{
		Orientation: mgl32.AnglesToQuat(-0.5, 0.2, 0.9, mgl32.XYZ).Normalize(),
		Position:    mgl32.Vec3{-1, 0.5, 2},
	}
	got := QuatPoseFromPose(want).Pose()
	requireMat4Near(t, want.Matrix(), got.Matrix(), 1e-4)
}

func TestQuatPoseZeroQuaternion(t *testing.T) {
	q := QuatPose{Position: [3]float32{1, 2, 3}}
	p := q.Pose()
	require.Equal(t, mgl32.QuatIdent(), p.Orientation, "untracked poses face forward")
	require.Equal(t, mgl32.Vec3{1, 2, 3}, p.Position)
}

func TestEyeString(t *testing.T) {
	require.Equal(t, "left", EyeLeft.String())
	require.Equal(t, "right", EyeRight.String())
}
