package geom

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

func assertVec3(t *testing.T, exp, got types.Vec3, delta float64) {
	t.Helper()
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, exp[axis], got[axis], delta, "component %d of %v", axis, got)
	}
}

func TestIntersectTriangle(t *testing.T) {
	v0, v1, v2 := types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(1, 1, 0)
	p, d := types.XYZ(0.75, 0.25, 5), types.XYZ(0, 0, -1)

	tHit, u, v, hit := IntersectTriangle(p, d, math32.MaxFloat32, v0, v1, v2)
	require.True(t, hit)
	assert.InDelta(t, 5, tHit, 1e-6)
	assert.LessOrEqual(t, u+v, float32(1))

	// P + t*D == (1-u-v)*v0 + u*v1 + v*v2
	bary := v0.Mul(1 - u - v).Add(v1.Mul(u)).Add(v2.Mul(v))
	assertVec3(t, p.Add(d.Mul(tHit)), bary, 1e-5)

	// Hits past tmax or behind the origin are rejected
	_, _, _, hit = IntersectTriangle(p, d, 4, v0, v1, v2)
	assert.False(t, hit)
	_, _, _, hit = IntersectTriangle(p, d.Neg(), math32.MaxFloat32, v0, v1, v2)
	assert.False(t, hit)

	// Parallel rays have a zero determinant
	_, _, _, hit = IntersectTriangle(p, types.XYZ(1, 0, 0), math32.MaxFloat32, v0, v1, v2)
	assert.False(t, hit)
}

func TestTriangleRefine(t *testing.T) {
	v0, v1, v2 := types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(1, 1, 0)
	p, d := types.XYZ(0.75, 0.25, 5), types.XYZ(0, 0, -1)

	// Feed a slightly wrong distance; refinement must land on the plane.
	refined := TriangleRefine(p, d, 5.001, nil, v0, v1, v2)
	assertVec3(t, types.XYZ(0.75, 0.25, 0), refined, 1e-5)

	// t == 0 skips refinement entirely
	assert.Equal(t, p, TriangleRefine(p, d, 0, nil, v0, v1, v2))

	// Object space refinement with a translated instance
	xform := &ObjectXform{
		Tfm:  types.Translate4(types.XYZ(0, 0, 2)),
		ITfm: types.Translate4(types.XYZ(0, 0, -2)),
	}
	refined = TriangleRefine(p, d, 3.01, xform, v0, v1, v2)
	assertVec3(t, types.XYZ(0.75, 0.25, 2), refined, 1e-5)

	refined = TriangleRefineLocal(p, d, 2.99, xform, v0, v1, v2)
	assertVec3(t, types.XYZ(0.75, 0.25, 2), refined, 1e-5)
}

func TestTriangleNormal(t *testing.T) {
	v0, v1, v2 := types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(1, 1, 0)
	assertVec3(t, types.XYZ(0, 0, 1), TriangleNormal(v0, v1, v2, 0), 1e-6)
	assertVec3(t, types.XYZ(0, 0, -1), TriangleNormal(v0, v1, v2, scene.ObjectNegativeScaleApplied), 1e-6)

	ng := types.XYZ(0, 0, 1)
	n := TriangleSmoothNormal(types.XYZ(1, 0, 0), types.XYZ(-1, 0, 0), types.XYZ(0, 0, 0), ng, 0.5, 0)
	assertVec3(t, ng, n, 0)
}

func TestInverseDirection(t *testing.T) {
	idir := InverseDirection(types.XYZ(0, math32.Copysign(0, -1), 2))
	assert.True(t, idir[0] > 1e20, "expected large positive reciprocal; got %f", idir[0])
	assert.True(t, idir[1] < -1e20, "expected large negative reciprocal; got %f", idir[1])
	assert.InDelta(t, 0.5, idir[2], 1e-7)
}

func TestIntersectAABB(t *testing.T) {
	min, max := types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)

	// Axis aligned ray with two zero direction components
	p, d := types.XYZ(0, 0, 5), types.XYZ(0, 0, -1)
	dist, hit := IntersectAABB(min, max, p, InverseDirection(d), math32.MaxFloat32)
	require.True(t, hit)
	assert.InDelta(t, 4, dist, 1e-5)

	// Box beyond tmax
	_, hit = IntersectAABB(min, max, p, InverseDirection(d), 3)
	assert.False(t, hit)

	// Ray starting inside the box reports entry distance 0
	dist, hit = IntersectAABB(min, max, types.Vec3{}, InverseDirection(d), 10)
	require.True(t, hit)
	assert.Equal(t, float32(0), dist)

	// Ray parallel to a slab outside of it misses
	_, hit = IntersectAABB(min, max, types.XYZ(2, 0, 5), InverseDirection(d), 10)
	assert.False(t, hit)
}

func TestDifferentialDuDv(t *testing.T) {
	// Unit right triangle in the XY plane: u and v map directly to x and y.
	dPdu, dPdv := types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)
	dP := Differential3{Dx: types.XYZ(0.1, 0, 0), Dy: types.XYZ(0, 0.2, 0)}

	du, dv := DifferentialDuDv(dPdu, dPdv, dP, types.XYZ(0, 0, 1))
	assert.InDelta(t, 0.1, du.Dx, 1e-6)
	assert.InDelta(t, 0, du.Dy, 1e-6)
	assert.InDelta(t, 0, dv.Dx, 1e-6)
	assert.InDelta(t, 0.2, dv.Dy, 1e-6)

	// Same setup projected on the YZ plane
	du, dv = DifferentialDuDv(types.XYZ(0, 1, 0), types.XYZ(0, 0, 1), Differential3{Dx: types.XYZ(0, 0.1, 0), Dy: types.XYZ(0, 0, 0.2)}, types.XYZ(1, 0, 0))
	assert.InDelta(t, 0.1, du.Dx, 1e-6)
	assert.InDelta(t, 0.2, dv.Dy, 1e-6)
}

func TestDifferentialTransfer(t *testing.T) {
	d := types.XYZ(0, 0, -1)
	dD := Differential3{Dx: types.XYZ(0.01, 0, 0), Dy: types.XYZ(0, 0.01, 0)}
	out := DifferentialTransfer(Differential3{}, d, dD, types.XYZ(0, 0, 1), 5)
	assertVec3(t, types.XYZ(0.05, 0, 0), out.Dx, 1e-6)
	assertVec3(t, types.XYZ(0, 0.05, 0), out.Dy, 1e-6)

	// Grazing rays produce zero differentials instead of infinities
	out = DifferentialTransfer(Differential3{}, types.XYZ(1, 0, 0), dD, types.XYZ(0, 0, 1), 5)
	assert.True(t, out.Dx.IsZero() && out.Dy.IsZero())
}

func curveScene() *scene.Scene {
	return &scene.Scene{
		Curves:    []scene.Curve{{FirstKey: 0, NumKeys: 3}},
		CurveKeys: []types.Vec4{{0, 0, 0, 0.1}, {0, 1, 0, 0.1}, {0, 2, 0, 0.1}},
		Objects:   []scene.Object{{Flags: scene.ObjectTransformApplied}},
	}
}

func TestIntersectCurve(t *testing.T) {
	sc := curveScene()
	p, d := types.XYZ(0.05, 1.5, 5), types.XYZ(0, 0, -1)

	ribbon := scene.PackSegment(scene.PrimitiveCurveRibbon, 1)
	tHit, u, v, hit := IntersectCurve(sc, p, d, math32.MaxFloat32, 0, ribbon)
	require.True(t, hit)
	assert.InDelta(t, 5, tHit, 1e-5)
	assert.InDelta(t, 0.5, u, 1e-5)
	assert.InDelta(t, 0.5, math32.Abs(v), 1e-5)

	// The thick variant enters the tube before the axis
	thick := scene.PackSegment(scene.PrimitiveCurveThick, 1)
	tThick, _, _, hit := IntersectCurve(sc, p, d, math32.MaxFloat32, 0, thick)
	require.True(t, hit)
	assert.Less(t, tThick, tHit)

	// Segment 0 does not cover y = 1.5
	_, _, _, hit = IntersectCurve(sc, p, d, math32.MaxFloat32, 0, scene.PackSegment(scene.PrimitiveCurveRibbon, 0))
	assert.False(t, hit)

	// Miss outside the radius
	_, _, _, hit = IntersectCurve(sc, types.XYZ(0.2, 1.5, 5), d, math32.MaxFloat32, 0, ribbon)
	assert.False(t, hit)

	isect := Intersection{T: tHit, U: u, V: v, Prim: 0, Type: ribbon}
	surf := CurveShaderSetup(sc, &isect, p, d)
	assertVec3(t, types.XYZ(0, 0, 1), surf.Ng, 1e-5)
	assertVec3(t, types.XYZ(0, 1, 0), surf.DPdu, 1e-6)
	assert.InDelta(t, 0, surf.DPdv.Dot(surf.Ng), 1e-6)
}
