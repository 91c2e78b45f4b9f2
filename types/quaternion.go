package types

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// A rotation quaternion.
type Quat struct {
	W float32
	V Vec3
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion from an axis vector and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math32.Sincos(angle * 0.5)
	return Quat{
		W: cos,
		V: axis.Mul(sin),
	}
}

// Extract the rotation part of a matrix without shear or scale.
func QuatFromMat4(m Mat4) Quat {
	return fromMglQuat(mgl32.Mat4ToQuat(mgl32.Mat4(m)))
}

// Rotates a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	cross := q.V.Cross(v)
	// v + 2q_w * (q_v x v) + 2q_v x (q_v x v)
	return v.Add(cross.Mul(2 * q.W)).Add(q.V.Mul(2).Cross(cross))
}

// Multiplies two quaternions. Multiplication is not commutative.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat{
		W: q.W*q2.W - q.V.Dot(q2.V),
		V: q.V.Cross(q2.V).Add(q2.V.Mul(q.W)).Add(q.V.Mul(q2.W)),
	}
}

// Returns the length of the quaternion.
func (q Quat) Len() float32 {
	return math32.Sqrt(q.W*q.W + q.V.Dot(q.V))
}

// Normalizes the quaternion. A zero quaternion normalizes to identity.
func (q Quat) Normalize() Quat {
	length := q.Len()
	if math32.Abs(1-length) < floatCmpEpsilon {
		return q
	}
	if length == 0 {
		return QuatIdent()
	}
	if math32.IsInf(length, 1) {
		length = math32.MaxFloat32
	}
	return Quat{W: q.W / length, V: q.V.Mul(1 / length)}
}

// The inverse of a quaternion; the conjugate divided by the squared length.
func (q Quat) Inverse() Quat {
	scaler := 1.0 / (q.V.Dot(q.V) + q.W*q.W)
	return Quat{W: q.W * scaler, V: q.V.Mul(-scaler)}
}

// Spherical interpolation towards q2 using the shortest arc.
func (q Quat) Slerp(q2 Quat, t float32) Quat {
	a, b := q.mgl(), q2.mgl()
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return fromMglQuat(mgl32.QuatSlerp(a, b, t))
}

// Returns the homogeneous 3D rotation matrix corresponding to the quaternion.
func (q Quat) Mat4() Mat4 {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]
	return Mat4{
		1 - 2*y*y - 2*z*z, 2*x*y + 2*w*z, 2*x*z - 2*w*y, 0,
		2*x*y - 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z + 2*w*x, 0,
		2*x*z + 2*w*y, 2*y*z - 2*w*x, 1 - 2*x*x - 2*y*y, 0,
		0, 0, 0, 1,
	}
}

func (q Quat) mgl() mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3(q.V)}
}

func fromMglQuat(q mgl32.Quat) Quat {
	return Quat{W: q.W, V: Vec3(q.V)}
}
