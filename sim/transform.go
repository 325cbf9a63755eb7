package sim

import "github.com/go-gl/mathgl/mgl64"

// Pose is a position plus an XYZ Euler rotation in radians.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
}

// Transform places an entity in world space.
type Transform struct {
	Position mgl64.Vec3
	// Rotation is applied in X, then Y, then Z order about the entity's own axes.
	Rotation mgl64.Vec3
	Visible  bool
}

// Quat returns the orientation described by Rotation.
func (t *Transform) Quat() mgl64.Quat {
	return EulerXYZ(t.Rotation)
}

// EulerXYZ converts intrinsic XYZ Euler angles to a quaternion.
func EulerXYZ(r mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(r[0], mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(r[1], mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(r[2], mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// Translate moves d units along a local axis, expressed in the current orientation.
func (t *Transform) Translate(axis mgl64.Vec3, d float64) {
	t.Position = t.Position.Add(t.Quat().Rotate(axis).Mul(d))
}

// ToWorld maps a point in the entity's local frame to world space.
func (t *Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Quat().Rotate(local))
}

// SetPose overwrites position and rotation.
func (t *Transform) SetPose(p Pose) {
	t.Position = p.Position
	t.Rotation = p.Rotation
}

// Pose returns the current position and rotation.
func (t *Transform) Pose() Pose {
	return Pose{Position: t.Position, Rotation: t.Rotation}
}

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)
