package hmd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mat34 is the row-major 3x4 transform some runtimes hand out: three rows of
// rotation with the translation in the fourth column.
type Mat34 [3][4]float32

// Mat4 expands the 3x4 transform to a column-major 4x4.
func (m Mat34) Mat4() mgl32.Mat4 {
	return mgl32.Mat4{
		m[0][0], m[1][0], m[2][0], 0,
		m[0][1], m[1][1], m[2][1], 0,
		m[0][2], m[1][2], m[2][2], 0,
		m[0][3], m[1][3], m[2][3], 1,
	}
}

// Pose extracts the normalized pose from a 3x4 tracking matrix.
func (m Mat34) Pose() Pose {
	rot := mgl32.Mat3{
		m[0][0], m[1][0], m[2][0],
		m[0][1], m[1][1], m[2][1],
		m[0][2], m[1][2], m[2][2],
	}
	return Pose{
		Orientation: mgl32.Mat4ToQuat(rot.Mat4()).Normalize(),
		Position:    mgl32.Vec3{m[0][3], m[1][3], m[2][3]},
	}
}

// Mat34FromPose builds the row-major 3x4 form, the inverse of Pose for
// round-tripping through runtime APIs that want it back.
func Mat34FromPose(p Pose) Mat34 {
	r := p.Orientation.Mat4()
	return Mat34{
		{r.At(0, 0), r.At(0, 1), r.At(0, 2), p.Position.X()},
		{r.At(1, 0), r.At(1, 1), r.At(1, 2), p.Position.Y()},
		{r.At(2, 0), r.At(2, 1), r.At(2, 2), p.Position.Z()},
	}
}
