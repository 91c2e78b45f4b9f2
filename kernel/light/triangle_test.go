package light

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/shader"
	"github.com/achilleasa/raykernel/types"
)

// A scene with a single emissive triangle of area 2 on the z=0 plane and a
// degenerate triangle. Object 1 instances the first triangle scaled by 2.
func lightScene() *scene.Scene {
	return &scene.Scene{
		Verts: []types.Vec3{
			{0, 0, 0}, {2, 0, 0}, {0, 2, 0},
			{0, 0, 0}, {1, 1, 1}, {2, 2, 2},
		},
		TriVIndex: [][3]uint32{{0, 1, 2}, {3, 4, 5}},
		TriShader: []uint32{0, 0},
		Shaders:   []scene.Shader{{Flags: scene.ShaderHasEmission}},
		Objects: []scene.Object{
			{Flags: scene.ObjectTransformApplied},
			{
				Transform:    types.Scale4(types.XYZ(2, 2, 2)),
				InvTransform: types.Scale4(types.XYZ(0.5, 0.5, 0.5)),
			},
		},
		Lights: []scene.LightDistribution{
			{CDF: 0.25, Prim: 0, Object: 0},
			{CDF: 1, Prim: 0, Object: 1},
		},
		Kernel: scene.KernelData{PdfTriangles: 0.5},
	}
}

// Evaluate the light PDF of a sample the way an integrator would after
// hitting the light along ls.D.
func pdfForSample(sc *scene.Scene, ls LightSample) float32 {
	sd := &shader.ShaderData{
		P:      ls.P,
		Ng:     ls.Ng,
		I:      ls.D.Neg(),
		Object: ls.Object,
		Prim:   ls.Prim,
		Time:   0.5,
	}
	return TriangleLightPdf(sc, sd, ls.T)
}

// Solid angle of a triangle seen from p (Van Oosterom and Strackee).
func solidAngle(verts [3]types.Vec3, p types.Vec3) float64 {
	var v [3][3]float64
	for i := range verts {
		for j := 0; j < 3; j++ {
			v[i][j] = float64(verts[i][j] - p[j])
		}
	}
	dot := func(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
	length := func(a [3]float64) float64 { return math.Sqrt(dot(a, a)) }
	cross := func(a, b [3]float64) [3]float64 {
		return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
	}

	a, b, c := v[0], v[1], v[2]
	num := math.Abs(dot(a, cross(b, c)))
	den := length(a)*length(b)*length(c) + dot(a, b)*length(c) + dot(a, c)*length(b) + dot(b, c)*length(a)
	return 2 * math.Atan2(num, den)
}

func TestAreaSampling(t *testing.T) {
	sc := lightScene()
	p := types.XYZ(0.5, 0.5, 10)

	for _, r := range [][2]float32{{0.3, 0.6}, {0.9, 0.1}, {0.5, 0.5}, {0.01, 0.99}} {
		ls := TriangleLightSample(sc, 0, 0, r[0], r[1], 0.5, p)
		require.True(t, ls.Pdf > 0, "rand %v", r)

		// The sample lies on the triangle.
		assert.InDelta(t, 0, ls.P[2], 1e-6)
		require.True(t, ls.U >= 0 && ls.V >= 0 && ls.U+ls.V <= 1+1e-6, "barycentrics %f %f", ls.U, ls.V)

		// The direction points from p to the sample.
		assert.InDelta(t, 0, p.Add(ls.D.Mul(ls.T)).Sub(ls.P).Len(), 1e-4)

		// Area PDF converted to solid angle.
		cos := float32(math.Abs(float64(ls.D[2])))
		assert.InDelta(t, ls.T*ls.T*0.5/cos, ls.Pdf, 1e-3)
		assert.InDelta(t, ls.Pdf, pdfForSample(sc, ls), 1e-3*float64(ls.Pdf))

		assert.Equal(t, shader.LampNone, ls.Lamp)
		assert.Equal(t, float32(1), ls.EvalFac)
	}
}

func TestSolidAngleSampling(t *testing.T) {
	sc := lightScene()
	verts, _ := TriangleWorldSpaceVertices(sc, 0, 0, 0.5)

	for _, p := range []types.Vec3{{0.5, 0.5, 0.1}, {0.2, 0.3, -0.5}, {3, 3, 1}} {
		expOmega := solidAngle(verts, p)

		for _, r := range [][2]float32{{0.3, 0.6}, {0.9, 0.1}, {0.5, 0.5}, {0.05, 0.95}} {
			ls := TriangleLightSample(sc, 0, 0, r[0], r[1], 0.5, p)
			require.True(t, ls.Pdf > 0, "p %v rand %v", p, r)
			assert.InDelta(t, 0, ls.P[2], 1e-4)

			// Area times PdfTriangles is 1 so the PDF is 1/omega.
			assert.InDelta(t, 1/expOmega, ls.Pdf, 1e-3/expOmega, "p %v", p)
			assert.InDelta(t, ls.Pdf, pdfForSample(sc, ls), 1e-3*float64(ls.Pdf), "p %v", p)
		}
	}
}

func TestDegenerateTriangle(t *testing.T) {
	sc := lightScene()

	ls := TriangleLightSample(sc, 1, 0, 0.3, 0.3, 0.5, types.XYZ(0, 0, 5))
	if ls.Pdf != 0 {
		t.Fatalf("expected degenerate triangle sample pdf to be 0; got %f", ls.Pdf)
	}

	sd := &shader.ShaderData{P: types.XYZ(1, 1, 1), I: types.XYZ(0, 0, 1), Prim: 1, Object: 0}
	if pdf := TriangleLightPdf(sc, sd, 4); pdf != 0 {
		t.Fatalf("expected degenerate triangle pdf to be 0; got %f", pdf)
	}
}

func TestWorldSpaceVertices(t *testing.T) {
	sc := lightScene()

	verts, hasMotion := TriangleWorldSpaceVertices(sc, 0, 0, 0.5)
	if hasMotion {
		t.Fatal("expected baked object to report no motion")
	}
	assert.Equal(t, types.XYZ(2, 0, 0), verts[1])

	verts, hasMotion = TriangleWorldSpaceVertices(sc, 1, 0, -1)
	if !hasMotion {
		t.Fatal("expected instanced object to report possible motion")
	}
	assert.InDelta(t, 4, verts[1][0], 1e-6)
	assert.InDelta(t, 4, verts[2][1], 1e-6)

	// The instance is static so the center area rescale is a no-op.
	ls := TriangleLightSample(sc, 0, 1, 0.4, 0.2, 0.5, types.XYZ(1, 1, 40))
	cos := float32(math.Abs(float64(ls.D[2])))
	assert.InDelta(t, ls.T*ls.T*0.5/cos, ls.Pdf, 1e-3*float64(ls.Pdf))
}

func TestPickTriangle(t *testing.T) {
	sc := lightScene()

	specs := []struct {
		randu     float32
		expObject int32
	}{
		{0, 0},
		{0.2, 0},
		{0.25, 1},
		{0.99, 1},
		{1, 1},
	}
	for specIndex, spec := range specs {
		entry, ok := PickTriangle(sc, spec.randu)
		if !ok {
			t.Fatalf("[spec %d] expected a light to be picked", specIndex)
		}
		if entry.Object != spec.expObject {
			t.Fatalf("[spec %d] expected object %d; got %d", specIndex, spec.expObject, entry.Object)
		}
	}

	sc.Lights = nil
	if _, ok := PickTriangle(sc, 0.5); ok {
		t.Fatal("expected no light to be picked from an empty distribution")
	}
	if _, ok := SampleLights(sc, 0.5, 0.5, 0.5, 0.5, types.XYZ(0, 0, 1)); ok {
		t.Fatal("expected sampling an empty distribution to fail")
	}
}
