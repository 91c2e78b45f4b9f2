package light

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/kernel/shader"
	"github.com/achilleasa/raykernel/types"
)

// A point sampled on a light source as seen from a shading point.
type LightSample struct {
	// Sampled point, its normal and the normalized direction and
	// distance to it from the shading point.
	P  types.Vec3
	Ng types.Vec3
	D  types.Vec3
	T  float32

	// Barycentrics of P on the light triangle.
	U float32
	V float32

	// Solid angle PDF of the sample. Zero means the sample failed.
	Pdf     float32
	EvalFac float32

	Shader int32
	Object int32
	Prim   int32
	Lamp   int32
}

// Get the world space vertices of a triangle at the given time. A negative
// time selects the shutter center which is the configuration the scene
// light PDF was computed for. The second return value is true if the
// vertices may differ from the ones at the shutter center.
func TriangleWorldSpaceVertices(sc *scene.Scene, object, prim int32, time float32) ([3]types.Vec3, bool) {
	var (
		verts     [3]types.Vec3
		hasMotion bool
	)

	flags := sc.ObjectFlag(object)
	if flags&scene.ObjectHasVertexMotion != 0 && time >= 0 {
		verts = geom.MotionTriangleVertices(sc, object, prim, time)
		hasMotion = true
	} else {
		verts[0], verts[1], verts[2] = sc.TriVertices(prim)
	}

	if object != scene.ObjectNone && flags&scene.ObjectTransformApplied == 0 {
		objectTime := time
		if objectTime < 0 {
			objectTime = 0.5
		}
		tfm := sc.ObjectTransformAt(object, objectTime, scene.ObjectTransform)
		for i := range verts {
			verts[i] = tfm.TransformPoint(verts[i])
		}
		hasMotion = true
	}
	return verts, hasMotion
}

func triangleArea(verts [3]types.Vec3) float32 {
	return 0.5 * verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0])).Len()
}

// Decide whether a triangle should be sampled by solid angle instead of by
// area when seen from a point whose offset to the triangle plane is
// toPlane. Solid angle sampling is used when the point is close compared
// to the size of the triangle.
func useSolidAngle(verts [3]types.Vec3, n, toPlane types.Vec3) bool {
	e0 := verts[1].Sub(verts[0])
	e1 := verts[2].Sub(verts[0])
	e2 := verts[2].Sub(verts[1])
	longestEdgeSq := math32.Max(e0.LenSq(), math32.Max(e1.LenSq(), e2.LenSq()))

	nLenSq := n.LenSq()
	if nLenSq == 0 {
		return false
	}
	dist := n.Dot(toPlane)
	return longestEdgeSq*nLenSq > dist*dist
}

type sphericalTriangle struct {
	// Vertex directions from the shading point.
	a, b, c types.Vec3

	alpha      float32
	cosAlpha   float32
	solidAngle float32
}

// Project a triangle on the unit sphere around p.
func projectTriangle(verts [3]types.Vec3, p types.Vec3) sphericalTriangle {
	v0p := verts[0].Sub(p)
	v1p := verts[1].Sub(p)
	v2p := verts[2].Sub(p)

	u01 := v0p.Cross(v1p).Normalize()
	u02 := v0p.Cross(v2p).Normalize()
	u12 := v1p.Cross(v2p).Normalize()

	st := sphericalTriangle{
		a:        v0p.Normalize(),
		b:        v1p.Normalize(),
		c:        v2p.Normalize(),
		cosAlpha: u02.Dot(u01),
	}

	// Dihedral angles; their excess over pi is the solid angle.
	st.alpha = safeAcos(st.cosAlpha)
	beta := safeAcos(-u01.Dot(u12))
	gamma := safeAcos(u02.Dot(u12))
	st.solidAngle = st.alpha + beta + gamma - math32.Pi
	if !(st.solidAngle > 0) {
		st.solidAngle = 0
	}
	return st
}

func safeAcos(x float32) float32 {
	return math32.Acos(math32.Max(-1, math32.Min(1, x)))
}

func safeSqrt(x float32) float32 {
	return math32.Sqrt(math32.Max(x, 0))
}

// Convert an area PDF to a solid angle PDF for a point at distance t whose
// normal makes an angle with i.
func pdfArea(pdfTriangles float32, ng, i types.Vec3, t float32) float32 {
	cosPi := math32.Abs(ng.Dot(i))
	if cosPi == 0 {
		return 0
	}
	return t * t * pdfTriangles / cosPi
}

// Evaluate the PDF of sampling the light point described by sd from the
// point at distance t along sd.I.
func TriangleLightPdf(sc *scene.Scene, sd *shader.ShaderData, t float32) float32 {
	verts, hasMotion := TriangleWorldSpaceVertices(sc, sd.Object, sd.Prim, sd.Time)
	n := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
	pdfTriangles := sc.Kernel.PdfTriangles

	if useSolidAngle(verts, n, sd.I.Mul(t)) {
		px := sd.P.Add(sd.I.Mul(t))
		st := projectTriangle(verts, px)
		if st.solidAngle == 0 {
			return 0
		}

		area := 0.5 * n.Len()
		if hasMotion {
			centerVerts, _ := TriangleWorldSpaceVertices(sc, sd.Object, sd.Prim, -1)
			area = triangleArea(centerVerts)
		}
		return area * pdfTriangles / st.solidAngle
	}

	pdf := pdfArea(pdfTriangles, sd.Ng, sd.I, t)
	if hasMotion {
		area := 0.5 * n.Len()
		if area == 0 {
			return 0
		}
		centerVerts, _ := TriangleWorldSpaceVertices(sc, sd.Object, sd.Prim, -1)
		pdf *= triangleArea(centerVerts) / area
	}
	return pdf
}

// Sample a point on a triangle light as seen from p.
func TriangleLightSample(sc *scene.Scene, prim, object int32, randu, randv, time float32, p types.Vec3) LightSample {
	verts, hasMotion := TriangleWorldSpaceVertices(sc, object, prim, time)
	n0 := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
	ng, nl := n0.NormalizeLen()
	area := 0.5 * nl

	if sc.ObjectFlag(object)&scene.ObjectNegativeScaleApplied != 0 {
		ng = ng.Neg()
	}

	shaderID, _ := sc.TriShaderID(prim)
	ls := LightSample{
		Ng:      ng,
		EvalFac: 1,
		Shader:  shaderID,
		Object:  object,
		Prim:    prim,
		Lamp:    shader.LampNone,
	}
	if area == 0 {
		return ls
	}

	pdfTriangles := sc.Kernel.PdfTriangles

	if useSolidAngle(verts, n0, verts[0].Sub(p)) {
		// James Arvo, "Stratified Sampling of Spherical Triangles"
		st := projectTriangle(verts, p)
		if st.solidAngle == 0 {
			return ls
		}

		cosC := st.a.Dot(st.b)
		sinAlpha := math32.Sin(st.alpha)
		product := sinAlpha * cosC

		// Pick a sub-triangle with the requested fraction of the solid
		// angle and find its third vertex.
		phi := randu*st.solidAngle - st.alpha
		s, t := math32.Sincos(phi)
		u := t - st.cosAlpha
		v := s + product

		uAxis := st.c.Sub(st.a.Mul(st.c.Dot(st.a))).Normalize()

		q := float32(1)
		if det := (v*s + u*t) * sinAlpha; det != 0 {
			q = ((v*t-u*s)*st.cosAlpha - v) / det
		}
		c2 := st.a.Mul(q).Add(uAxis.Mul(safeSqrt(1 - q*q))).Normalize()

		// Pick a point along the arc between b and the new vertex.
		z := 1 - randv*(1-c2.Dot(st.b))
		ls.D = st.b.Mul(z).Add(c2.Sub(st.b.Mul(c2.Dot(st.b))).Normalize().Mul(safeSqrt(1 - z*z)))

		var hit bool
		ls.T, ls.U, ls.V, hit = geom.IntersectTriangle(p, ls.D, math32.MaxFloat32, verts[0], verts[1], verts[2])
		if !hit {
			return ls
		}
		ls.P = p.Add(ls.D.Mul(ls.T))

		if hasMotion {
			centerVerts, _ := TriangleWorldSpaceVertices(sc, object, prim, -1)
			area = triangleArea(centerVerts)
		}
		ls.Pdf = area * pdfTriangles / st.solidAngle
		return ls
	}

	// Eric Heitz, "A Low-Distortion Map Between Triangle and Square"
	u, v := randu, randv
	if v > u {
		u *= 0.5
		v -= u
	} else {
		v *= 0.5
		u -= v
	}
	w := 1 - u - v

	ls.P = verts[0].Mul(w).Add(verts[1].Mul(u)).Add(verts[2].Mul(v))
	ls.D, ls.T = ls.P.Sub(p).NormalizeLen()
	ls.U, ls.V = u, v
	ls.Pdf = pdfArea(pdfTriangles, ls.Ng, ls.D.Neg(), ls.T)
	if hasMotion {
		centerVerts, _ := TriangleWorldSpaceVertices(sc, object, prim, -1)
		ls.Pdf *= triangleArea(centerVerts) / area
	}
	return ls
}
