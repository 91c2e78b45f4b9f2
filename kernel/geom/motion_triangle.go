package geom

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// Map a ray time in [0, 1] to the motion step preceding it and the
// interpolation fraction towards the following step.
func motionStep(numSteps uint32, time float32) (step int, frac float32) {
	maxStep := int(numSteps * 2)
	step = int(time * float32(maxStep))
	if step > maxStep-1 {
		step = maxStep - 1
	}
	if step < 0 {
		step = 0
	}
	return step, time*float32(maxStep) - float32(step)
}

// Fetch the 3 triangle vertices for a motion step. The center step lives in
// the regular vertex list; all other steps are stored back to back in the
// motion attribute, each holding the object's vertex range.
func motionVertsForStep(obj *scene.Object, vi [3]uint32, static, motion []types.Vec3, offset int32, step int) [3]types.Vec3 {
	numSteps := int(obj.MotionSteps)
	if step == numSteps {
		return [3]types.Vec3{static[vi[0]], static[vi[1]], static[vi[2]]}
	}
	if step > numSteps {
		step--
	}

	base := int(offset) + step*int(obj.NumVerts) - int(obj.VertexOffset)
	return [3]types.Vec3{
		motion[base+int(vi[0])],
		motion[base+int(vi[1])],
		motion[base+int(vi[2])],
	}
}

func motionTriangleData(sc *scene.Scene, object, prim int32, time float32, std scene.AttributeStandard, static []types.Vec3) [3]types.Vec3 {
	vi := sc.TriVIndex[prim]
	desc := scene.AttributeNotFound
	if object != scene.ObjectNone && sc.Objects[object].Flags&scene.ObjectHasVertexMotion != 0 {
		desc = sc.FindAttribute(object, std)
	}
	if !desc.Found() {
		return [3]types.Vec3{static[vi[0]], static[vi[1]], static[vi[2]]}
	}

	obj := &sc.Objects[object]
	step, frac := motionStep(obj.MotionSteps, time)
	cur := motionVertsForStep(obj, vi, static, sc.AttrFloat3, desc.Offset, step)
	next := motionVertsForStep(obj, vi, static, sc.AttrFloat3, desc.Offset, step+1)
	return [3]types.Vec3{
		cur[0].Lerp(next[0], frac),
		cur[1].Lerp(next[1], frac),
		cur[2].Lerp(next[2], frac),
	}
}

// Get the vertices of a deforming triangle at the given ray time.
func MotionTriangleVertices(sc *scene.Scene, object, prim int32, time float32) [3]types.Vec3 {
	return motionTriangleData(sc, object, prim, time, scene.AttrStdMotionVertexPosition, sc.Verts)
}

// Get the vertex normals of a deforming triangle at the given ray time.
// Objects without motion normals use their static vertex normals.
func MotionTriangleNormals(sc *scene.Scene, object, prim int32, time float32) [3]types.Vec3 {
	return motionTriangleData(sc, object, prim, time, scene.AttrStdMotionVertexNormal, sc.VNormals)
}

// Intersect a ray with a deforming triangle at the ray time.
func IntersectMotionTriangle(sc *scene.Scene, p, d types.Vec3, tmax, time float32, object, prim int32) (t, u, v float32, hit bool) {
	verts := MotionTriangleVertices(sc, object, prim, time)
	return IntersectTriangle(p, d, tmax, verts[0], verts[1], verts[2])
}
