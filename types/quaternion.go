package types

import "math"

// Quat is a rotation quaternion; used to orbit cameras around a target.
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion that rotates by angle radians around axis. The axis is
// normalized before use.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) * 0.5)
	return Quat{
		V: axis.Normalize().Mul(float32(sin)),
		W: float32(cos),
	}
}

// Rotate a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v + 2w(q x v) + 2q x (q x v)
	cross := q.V.Cross(v)
	return v.Add(cross.Mul(2 * q.W)).Add(q.V.Mul(2).Cross(cross))
}

// Compose two rotations. The result applies q2 first and then q.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat{
		V: q.V.Cross(q2.V).Add(q2.V.Mul(q.W)).Add(q.V.Mul(q2.W)),
		W: q.W*q2.W - q.V.Dot(q2.V),
	}
}

// Get quaternion norm.
func (q Quat) Len() float32 {
	return float32(math.Sqrt(float64(q.W*q.W + q.V.LenSq())))
}

// Return the unit quaternion. A zero quaternion maps to the identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdent()
	}
	if math.Abs(float64(1-l)) < floatCmpEpsilon {
		return q
	}
	return Quat{V: q.V.Mul(1 / l), W: q.W / l}
}

// Get the homogeneous rotation matrix for this quaternion.
func (q Quat) Mat4() Mat4 {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]
	return Mat4{
		1 - 2*y*y - 2*z*z, 2*x*y + 2*w*z, 2*x*z - 2*w*y, 0,
		2*x*y - 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z + 2*w*x, 0,
		2*x*z + 2*w*y, 2*y*z - 2*w*x, 1 - 2*x*x - 2*y*y, 0,
		0, 0, 0, 1,
	}
}
