package geom

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// Get the two control keys (xyz + radius) of a curve segment.
func CurveSegmentKeys(sc *scene.Scene, curve int32, segment int) (k0, k1 types.Vec4) {
	first := int(sc.Curves[curve].FirstKey) + segment
	return sc.CurveKeys[first], sc.CurveKeys[first+1]
}

// Find the point of closest approach between a ray and a curve segment.
// Returns the ray distance s, the segment parameter u in [0, 1] and the
// offset from the segment axis to the ray point.
func closestApproach(p, d, p0, p1 types.Vec3) (s, u float32, offset types.Vec3) {
	axis := p1.Sub(p0)
	axisLenSq := axis.LenSq()
	w := p.Sub(p0)

	dd := d.Dot(d)
	da := d.Dot(axis)
	dw := d.Dot(w)
	aw := axis.Dot(w)
	denom := dd*axisLenSq - da*da

	if denom > 1e-12 && axisLenSq > 0 {
		u = (dd*aw - da*dw) / denom
	} else if axisLenSq > 0 {
		u = aw / axisLenSq
	}
	u = math32.Max(0, math32.Min(1, u))

	c := p0.Add(axis.Mul(u))
	s = c.Sub(p).Dot(d) / dd
	offset = p.Add(d.Mul(s)).Sub(c)
	return s, u, offset
}

// Intersect a ray with a curve segment. Ribbons are flat strips facing the
// ray; thick curves are swept discs with linearly varying radius. u is the
// position along the segment and v the signed offset from the axis,
// normalized by the radius.
func IntersectCurve(sc *scene.Scene, p, d types.Vec3, tmax float32, curve int32, ptype scene.PrimitiveType) (t, u, v float32, hit bool) {
	k0, k1 := CurveSegmentKeys(sc, curve, ptype.Segment())
	p0, p1 := k0.Vec3(), k1.Vec3()

	s, su, offset := closestApproach(p, d, p0, p1)
	radius := k0[3] + (k1[3]-k0[3])*su
	if radius <= 0 {
		return 0, 0, 0, false
	}

	distSq := offset.LenSq()
	if distSq >= radius*radius {
		return 0, 0, 0, false
	}

	t = s
	if ptype.Base() == scene.PrimitiveCurveThick {
		t = s - math32.Sqrt(radius*radius-distSq)/d.Len()
	}
	if t <= 0 || t >= tmax {
		return 0, 0, 0, false
	}

	// Sign the offset using the side of the axis relative to the ray.
	side := p1.Sub(p0).Cross(d)
	v = math32.Sqrt(distSq) / radius
	if offset.Dot(side) < 0 {
		v = -v
	}
	return t, su, v, true
}

// The shading frame of a curve hit.
type CurveSurface struct {
	P    types.Vec3
	Ng   types.Vec3
	N    types.Vec3
	DPdu types.Vec3
	DPdv types.Vec3
}

// Calculate the shading frame for a curve intersection in the object space
// of the curve. p and d are the ray origin and direction in the same space.
func CurveShaderSetup(sc *scene.Scene, isect *Intersection, p, d types.Vec3) CurveSurface {
	k0, k1 := CurveSegmentKeys(sc, isect.Prim, isect.Type.Segment())
	p0, p1 := k0.Vec3(), k1.Vec3()

	var surf CurveSurface
	surf.P = p.Add(d.Mul(isect.T))
	surf.DPdu = p1.Sub(p0)
	tg := surf.DPdu.Normalize()

	if isect.Type.Base() == scene.PrimitiveCurveRibbon {
		// Facing the viewer, perpendicular to the tangent.
		ng := d.Neg().Sub(tg.Mul(tg.Dot(d.Neg())))
		surf.Ng = ng.Normalize()
		if surf.Ng.IsZero() {
			surf.Ng = d.Neg().Normalize()
		}
	} else {
		axisPoint := p0.Add(surf.DPdu.Mul(isect.U))
		surf.Ng = surf.P.Sub(axisPoint).Normalize()
		if surf.Ng.IsZero() {
			surf.Ng = d.Neg().Normalize()
		}
	}

	surf.N = surf.Ng
	surf.DPdv = tg.Cross(surf.Ng)
	return surf
}
