package math3d

import "github.com/go-gl/mathgl/mgl64"

// Orientations are carried as mgl64.Quat. These helpers bridge between the
// mathgl types and the value types used by the rest of the engine.

// ToMgl converts a Vec3 to an mgl64.Vec3.
func ToMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromMgl converts an mgl64.Vec3 to a Vec3.
func FromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// RotationMatrix returns the rotation matrix of a quaternion. Both mgl64 and
// Mat4 are column-major, so the layout carries over unchanged.
func RotationMatrix(q mgl64.Quat) Mat4 {
	return Mat4(q.Normalize().Mat4())
}

// Rotate rotates v by the quaternion q.
func Rotate(q mgl64.Quat, v Vec3) Vec3 {
	return FromMgl(q.Rotate(ToMgl(v)))
}

// YawQuat returns a rotation of angle radians about the world up axis.
func YawQuat(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, mgl64.Vec3{0, 1, 0})
}

// AlignQuat returns the shortest rotation taking the unit vector from onto
// the unit vector to.
func AlignQuat(from, to Vec3) mgl64.Quat {
	return mgl64.QuatBetweenVectors(ToMgl(from.Normalize()), ToMgl(to.Normalize())).Normalize()
}
