package bvh

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/types"
)

type traversalMode uint8

const (
	modeClosest traversalMode = iota
	modeShadow
	modeLocal
)

// Relative tolerance used to reject a local hit whose distance matches an
// already recorded hit.
const duplicateHitEpsilon float32 = 1e-6

// The result of a shadow query.
type ShadowResult struct {
	// Set when the ray hit a primitive that blocks all light or when no
	// hits could be recorded.
	Occluded bool

	// Number of transparent hits encountered. It may exceed NumRecorded.
	NumHits int

	// Number of entries written to the caller's hit buffer.
	NumRecorded int
}

// A hit recorded by a local query. Ng is the world space geometric normal
// of the hit triangle.
type LocalHit struct {
	geom.Intersection
	Ng types.Vec3
}

// The result of a local query. The T field of each hit is measured in the
// object space of the queried object. Hits is backed by the traverser and
// is only valid until its next query.
type LocalIntersection struct {
	NumHits int
	Hits    []LocalHit
}

// A Traverser answers ray queries against a scene BVH. It owns the scratch
// state of a query so each worker needs its own instance; the scene itself
// is shared read-only.
type Traverser struct {
	sc    *scene.Scene
	stack Stack
	mode  traversalMode

	visibility scene.Visibility
	time       float32

	// World space ray.
	rayP    types.Vec3
	rayD    types.Vec3
	rayIdir types.Vec3

	// Ray in the space of the node being traversed.
	p     types.Vec3
	d     types.Vec3
	idir  types.Vec3
	scale float32
	xform *geom.ObjectXform

	// Instance being traversed or ObjectNone.
	object int32

	// Only report hits on this object (local queries).
	filterObject int32

	// Cutoff distance in world units.
	tmax float32

	closest geom.Intersection

	shadowHits  []geom.Intersection
	maxHits     int
	numHits     int
	numRecorded int
	occluded    bool

	localHits []LocalHit
	rng       *LCG
}

// Create a traverser for a scene.
func NewTraverser(sc *scene.Scene) *Traverser {
	return &Traverser{sc: sc}
}

// Find the closest hit along the ray among primitives whose visibility
// overlaps the visibility mask.
func (tr *Traverser) Closest(ray *geom.Ray, visibility scene.Visibility) (geom.Intersection, bool) {
	tr.begin(ray, modeClosest, visibility)
	tr.closest = geom.NoIntersection(ray.T)
	tr.walk(tr.sc.Kernel.BvhRoot, true)
	return tr.closest, tr.closest.Hit()
}

// Collect the hits needed to evaluate transparent shadows. Up to
// min(maxHits, len(hits)) of the nearest hits are written to hits. The
// query stops as soon as the ray hits a primitive whose shader does not
// support transparent shadows; in that case, as well as when maxHits is 0
// and anything is hit, the result is reported as occluded.
func (tr *Traverser) Shadow(ray *geom.Ray, visibility scene.Visibility, maxHits int, hits []geom.Intersection) ShadowResult {
	if maxHits > len(hits) {
		maxHits = len(hits)
	}
	if maxHits < 0 {
		maxHits = 0
	}

	tr.begin(ray, modeShadow, visibility)
	tr.shadowHits = hits
	tr.maxHits = maxHits
	tr.numHits = 0
	tr.numRecorded = 0
	tr.occluded = false
	tr.walk(tr.sc.Kernel.BvhRoot, true)
	tr.shadowHits = nil

	if tr.occluded {
		return ShadowResult{Occluded: true}
	}
	return ShadowResult{NumHits: tr.numHits, NumRecorded: tr.numRecorded}
}

// Find hits between the ray and the triangles of a single object. With a
// nil rng only the closest hit is kept; otherwise reservoir sampling keeps
// a uniformly chosen subset of at most maxHits hits among all the hits
// along the ray.
func (tr *Traverser) Local(ray *geom.Ray, object int32, maxHits int, rng *LCG) LocalIntersection {
	if maxHits < 1 {
		maxHits = 1
	}
	if cap(tr.localHits) < maxHits {
		tr.localHits = make([]LocalHit, maxHits)
	}
	tr.localHits = tr.localHits[:maxHits]

	tr.begin(ray, modeLocal, scene.VisibilityAll)
	tr.filterObject = object
	tr.maxHits = maxHits
	tr.numHits = 0
	tr.rng = rng

	// Instanced objects may share primitives owned by another object.
	xform := geom.ObjectXformAt(tr.sc, object, ray.Time)
	if xform != nil || tr.sc.Objects[object].BvhRoot != tr.sc.Kernel.BvhRoot {
		tr.enterObjectSpace(object, xform)
	}

	tr.walk(tr.sc.Objects[object].BvhRoot, false)
	tr.rng = nil

	recorded := tr.numHits
	if recorded > maxHits {
		recorded = maxHits
	}
	return LocalIntersection{NumHits: tr.numHits, Hits: tr.localHits[:recorded]}
}

func (tr *Traverser) begin(ray *geom.Ray, mode traversalMode, visibility scene.Visibility) {
	tr.mode = mode
	tr.visibility = visibility
	tr.time = ray.Time
	tr.tmax = ray.T
	tr.object = scene.ObjectNone
	tr.filterObject = scene.ObjectNone

	tr.rayP = ray.P
	tr.rayD = ray.D
	tr.rayIdir = geom.InverseDirection(ray.D)
	tr.leaveObjectSpace()
}

func (tr *Traverser) enterObjectSpace(object int32, xform *geom.ObjectXform) {
	tr.object = object
	tr.xform = xform
	if xform == nil {
		return
	}

	tr.p = xform.ITfm.TransformPoint(tr.rayP)
	tr.d, tr.scale = xform.ITfm.TransformDirection(tr.rayD).NormalizeLen()
	tr.idir = geom.InverseDirection(tr.d)
}

func (tr *Traverser) leaveObjectSpace() {
	tr.object = scene.ObjectNone
	tr.xform = nil
	tr.p = tr.rayP
	tr.d = tr.rayD
	tr.idir = tr.rayIdir
	tr.scale = 1
}

// Get the cutoff distance in the current traversal space.
func (tr *Traverser) localTmax() float32 {
	return tr.tmax * tr.scale
}

func (tr *Traverser) push(addr int32, dist float32) {
	if err := tr.stack.Push(addr, dist); err != nil {
		panic(err)
	}
}

// Pop the next node that may still contain a hit closer than the cutoff.
func (tr *Traverser) pop() int32 {
	for {
		addr, dist := tr.stack.Pop()
		if addr == EntrypointSentinel || dist <= tr.localTmax() {
			return addr
		}
	}
}

func (tr *Traverser) walk(root int32, allowInstances bool) {
	tr.stack.Reset()

	rootNode := tr.sc.BvhNode(root)
	if _, hit := geom.IntersectAABB(rootNode.Min, rootNode.Max, tr.p, tr.idir, tr.localTmax()); !hit {
		return
	}

	addr := root
	for {
		for addr != EntrypointSentinel {
			node := tr.sc.BvhNode(addr)

			if !scene.IsLeafAddress(addr) {
				addr = tr.visitChildren(node)
				continue
			}

			if object := node.ObjectIndex(); object != scene.ObjectNone {
				if !allowInstances || tr.object != scene.ObjectNone || !tr.instanceVisible(object) {
					addr = tr.pop()
					continue
				}

				tr.enterObjectSpace(object, geom.ObjectXformAt(tr.sc, object, tr.time))
				tr.push(EntrypointSentinel, 0)
				addr = tr.sc.Objects[object].BvhRoot
				continue
			}

			start, end := node.Primitives()
			for primAddr := start; primAddr < end; primAddr++ {
				if tr.intersectPrimitive(primAddr) {
					return
				}
			}
			addr = tr.pop()
		}

		if !allowInstances || tr.object == scene.ObjectNone {
			return
		}

		tr.leaveObjectSpace()
		addr = tr.pop()
	}
}

// Instances with an empty visibility mask defer to the visibility of their
// primitives.
func (tr *Traverser) instanceVisible(object int32) bool {
	vis := tr.sc.Objects[object].Visibility
	return vis == 0 || vis&tr.visibility != 0
}

// Test the child bboxes of an internal node and return the address to
// descend into. When both children are hit the farther one is pushed.
func (tr *Traverser) visitChildren(node *scene.BvhNode) int32 {
	tmax := tr.localTmax()
	left, right := node.LData, node.RData
	lNode, rNode := tr.sc.BvhNode(left), tr.sc.BvhNode(right)

	distL, hitL := geom.IntersectAABB(lNode.Min, lNode.Max, tr.p, tr.idir, tmax)
	distR, hitR := geom.IntersectAABB(rNode.Min, rNode.Max, tr.p, tr.idir, tmax)

	switch {
	case hitL && hitR:
		if distR < distL {
			tr.push(left, distL)
			return right
		}
		tr.push(right, distR)
		return left
	case hitL:
		return left
	case hitR:
		return right
	}
	return tr.pop()
}

// Intersect the primitive at primAddr and record any hit. Returns true if
// traversal should terminate.
func (tr *Traverser) intersectPrimitive(primAddr int32) bool {
	sc := tr.sc
	if sc.PrimVisibility[primAddr]&tr.visibility == 0 {
		return false
	}

	object := tr.object
	if object == scene.ObjectNone {
		object = sc.PrimObject[primAddr]
	}
	if tr.filterObject != scene.ObjectNone && object != tr.filterObject {
		return false
	}

	ptype := sc.PrimType[primAddr]
	prim := sc.PrimIndex[primAddr]
	tmax := tr.localTmax()

	var (
		t, u, v float32
		hit     bool
		verts   [3]types.Vec3
	)
	switch ptype.Base() {
	case scene.PrimitiveTriangle:
		verts[0], verts[1], verts[2] = sc.TriVertices(prim)
		t, u, v, hit = geom.IntersectTriangle(tr.p, tr.d, tmax, verts[0], verts[1], verts[2])
	case scene.PrimitiveMotionTriangle:
		verts = geom.MotionTriangleVertices(sc, object, prim, tr.time)
		t, u, v, hit = geom.IntersectTriangle(tr.p, tr.d, tmax, verts[0], verts[1], verts[2])
	case scene.PrimitiveCurveThick, scene.PrimitiveCurveRibbon:
		if tr.mode == modeLocal {
			return false
		}
		t, u, v, hit = geom.IntersectCurve(sc, tr.p, tr.d, tmax, prim, ptype)
	}
	if !hit {
		return false
	}

	isect := geom.Intersection{
		T:      math32.Min(t/tr.scale, tr.tmax),
		U:      u,
		V:      v,
		Prim:   prim,
		Object: object,
		Type:   ptype,
	}

	switch tr.mode {
	case modeShadow:
		return tr.recordShadow(primAddr, &isect)
	case modeLocal:
		isect.T = t
		tr.recordLocal(&isect, verts)
		return false
	default:
		tr.closest = isect
		tr.tmax = isect.T
		return false
	}
}

func (tr *Traverser) recordShadow(primAddr int32, isect *geom.Intersection) bool {
	shader := tr.sc.PrimitiveShader(primAddr)
	if tr.maxHits == 0 || tr.sc.ShaderFlags(shader)&scene.ShaderHasTransparentShadow == 0 {
		tr.occluded = true
		return true
	}

	tr.numHits++
	if tr.numRecorded < tr.maxHits {
		tr.shadowHits[tr.numRecorded] = *isect
		tr.numRecorded++
		if tr.numRecorded == tr.maxHits {
			_, tr.tmax = farthestHit(tr.shadowHits[:tr.numRecorded])
		}
		return false
	}

	// The buffer is full; evict the farthest hit if the new one is nearer.
	farthest, farthestT := farthestHit(tr.shadowHits[:tr.numRecorded])
	if isect.T < farthestT {
		tr.shadowHits[farthest] = *isect
		_, tr.tmax = farthestHit(tr.shadowHits[:tr.numRecorded])
	}
	return false
}

// Find the recorded hit with the largest distance. On ties the first one
// wins.
func farthestHit(hits []geom.Intersection) (index int, t float32) {
	t = hits[0].T
	for i := 1; i < len(hits); i++ {
		if hits[i].T > t {
			index, t = i, hits[i].T
		}
	}
	return index, t
}

func (tr *Traverser) recordLocal(isect *geom.Intersection, verts [3]types.Vec3) {
	recorded := tr.numHits
	if recorded > tr.maxHits {
		recorded = tr.maxHits
	}
	for i := recorded - 1; i >= 0; i-- {
		if math32.Abs(tr.localHits[i].T-isect.T) <= duplicateHitEpsilon*math32.Max(1, isect.T) {
			return
		}
	}

	var slot int
	if tr.rng != nil {
		tr.numHits++
		if tr.numHits <= tr.maxHits {
			slot = tr.numHits - 1
		} else {
			slot = int(tr.rng.Uint32() % uint32(tr.numHits))
			if slot >= tr.maxHits {
				return
			}
		}
	} else {
		if tr.numHits != 0 && isect.T > tr.localHits[0].T {
			return
		}
		tr.numHits = 1
		tr.tmax = isect.T / tr.scale
	}

	ng := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
	if tr.xform != nil {
		ng = tr.xform.ITfm.TransformDirectionTransposed(ng)
	}
	tr.localHits[slot] = LocalHit{Intersection: *isect, Ng: ng.Normalize()}
}
