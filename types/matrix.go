package types

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// A column-major 4x4 affine transformation matrix.
type Mat4 mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Create a rotation matrix around axis. The angle is specified in radians.
func Rotate4(axis Vec3, angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, mgl32.Vec3(axis.Normalize())))
}

// Create a perspective projection matrix. The fov is specified in degrees.
func Perspective4(fovy, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far))
}

// Create a view matrix looking from eye towards center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply with another matrix.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Calculate the inverse. Singular matrices invert to the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Get the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Get the matrix determinant.
func (m Mat4) Det() float32 {
	return mgl32.Mat4(m).Det()
}

// Returns true if m matches the identity matrix within epsilon.
func (m Mat4) IsIdentity() bool {
	return mgl32.Mat4(m).ApproxEqualThreshold(mgl32.Ident4(), 1e-6)
}

// Apply the transformation to a point.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// Apply the transformation to a direction; translation is ignored.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// Apply the transpose of the upper 3x3 block to a direction. Passing the
// inverse of an object transform maps object space normals to world space.
func (m Mat4) TransformDirectionTransposed(d Vec3) Vec3 {
	return Vec3{
		m[0]*d[0] + m[1]*d[1] + m[2]*d[2],
		m[4]*d[0] + m[5]*d[1] + m[6]*d[2],
		m[8]*d[0] + m[9]*d[1] + m[10]*d[2],
	}
}

// Transform an axis aligned bounding box and return the bounds of the
// transformed corners.
func (m Mat4) TransformBBox(bbox [2]Vec3) [2]Vec3 {
	out := [2]Vec3{
		{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
	for corner := 0; corner < 8; corner++ {
		p := Vec3{bbox[corner&1][0], bbox[(corner>>1)&1][1], bbox[(corner>>2)&1][2]}
		p = m.TransformPoint(p)
		out[0] = MinVec3(out[0], p)
		out[1] = MaxVec3(out[1], p)
	}
	return out
}
