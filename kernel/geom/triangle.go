package geom

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// Intersect a ray with a triangle using the Möller-Trumbore algorithm. The
// returned barycentrics satisfy P = (1-u-v)*v0 + u*v1 + v*v2. Only hits
// with 0 < t < tmax are reported.
func IntersectTriangle(p, d types.Vec3, tmax float32, v0, v1, v2 types.Vec3) (t, u, v float32, hit bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pvec := d.Cross(e2)
	det := e1.Dot(pvec)
	if det == 0 {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	tvec := p.Sub(v0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v = d.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t <= 0 || t >= tmax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// Re-solve the hit distance from an approximate hit point using the exact
// triangle basis. It returns the corrected offset along d.
func refineOffset(p, d, v0, v1, v2 types.Vec3) float32 {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	tvec := p.Sub(v0)
	qvec := tvec.Cross(e1)
	pvec := d.Cross(e2)
	det := e1.Dot(pvec)
	if det == 0 {
		return 0
	}
	return e2.Dot(qvec) / det
}

// Refine the hit point of a world space ray for improved precision. When
// xform is not nil the refinement happens in object space and t is the
// world space hit distance.
func TriangleRefine(p, d types.Vec3, t float32, xform *ObjectXform, v0, v1, v2 types.Vec3) types.Vec3 {
	if t == 0 {
		return p
	}

	if xform != nil {
		p = xform.ITfm.TransformPoint(p)
		d, t = xform.ITfm.TransformDirection(d.Mul(t)).NormalizeLen()
	}

	p = p.Add(d.Mul(t))
	p = p.Add(d.Mul(refineOffset(p, d, v0, v1, v2)))

	if xform != nil {
		p = xform.Tfm.TransformPoint(p)
	}
	return p
}

// Refine the hit point of a local (same object) intersection. The hit
// distance t was measured in the object space of the ray.
func TriangleRefineLocal(p, d types.Vec3, t float32, xform *ObjectXform, v0, v1, v2 types.Vec3) types.Vec3 {
	if xform != nil {
		p = xform.ITfm.TransformPoint(p)
		d = xform.ITfm.TransformDirection(d).Normalize()
	}

	p = p.Add(d.Mul(t))
	p = p.Add(d.Mul(refineOffset(p, d, v0, v1, v2)))

	if xform != nil {
		p = xform.Tfm.TransformPoint(p)
	}
	return p
}

// Calculate the geometric normal of a triangle. The winding is reversed for
// objects whose baked transform mirrored the geometry.
func TriangleNormal(v0, v1, v2 types.Vec3, objFlags scene.ObjectFlag) types.Vec3 {
	if objFlags&scene.ObjectNegativeScaleApplied != 0 {
		return v2.Sub(v0).Cross(v1.Sub(v0)).Normalize()
	}
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// Interpolate vertex normals at (u, v). Falls back to ng if the blended
// normal vanishes.
func TriangleSmoothNormal(n0, n1, n2, ng types.Vec3, u, v float32) types.Vec3 {
	w := 1 - u - v
	n := n0.Mul(w).Add(n1.Mul(u)).Add(n2.Mul(v)).Normalize()
	if n.IsZero() {
		return ng
	}
	return n
}

// Get the position derivatives with respect to the barycentric coordinates.
func TriangleDPdUV(v0, v1, v2 types.Vec3) (dPdu, dPdv types.Vec3) {
	return v1.Sub(v0), v2.Sub(v0)
}

// Evaluate the object space position, geometric normal and shader of a
// triangle at (u, v).
func TrianglePointNormal(sc *scene.Scene, object, prim int32, u, v float32) (p, ng types.Vec3, shader uint32) {
	v0, v1, v2 := sc.TriVertices(prim)
	p = v0.Mul(1 - u - v).Add(v1.Mul(u)).Add(v2.Mul(v))
	ng = TriangleNormal(v0, v1, v2, sc.ObjectFlag(object))
	return p, ng, sc.TriShader[prim]
}
