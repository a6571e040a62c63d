package hmd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// QuatPose is the split quaternion-plus-vector pose encoding used by
// runtimes that keep orientation and position as separate fields. The
// quaternion components are ordered x, y, z, w on the wire.
type QuatPose struct {
	Orientation [4]float32
	Position    [3]float32
}

// Pose normalizes the wire encoding. A zero quaternion, which some runtimes
// report before tracking locks on, maps to the identity orientation.
func (q QuatPose) Pose() Pose {
	quat := mgl32.Quat{
		W: q.Orientation[3],
		V: mgl32.Vec3{q.Orientation[0], q.Orientation[1], q.Orientation[2]},
	}
	if quat.Len() == 0 {
		quat = mgl32.QuatIdent()
	} else {
		quat = quat.Normalize()
	}
	return Pose{
		Orientation: quat,
		Position:    mgl32.Vec3{q.Position[0], q.Position[1], q.Position[2]},
	}
}

// QuatPoseFromPose converts back to the wire encoding.
func QuatPoseFromPose(p Pose) QuatPose {
	return QuatPose{
		Orientation: [4]float32{
			p.Orientation.V.X(), p.Orientation.V.Y(), p.Orientation.V.Z(), p.Orientation.W,
		},
		Position: [3]float32{p.Position.X(), p.Position.Y(), p.Position.Z()},
	}
}
