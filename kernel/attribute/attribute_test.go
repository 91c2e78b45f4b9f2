package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/kernel/shader"
	"github.com/achilleasa/raykernel/types"
)

// Two objects: object 0 owns triangles 0-1 (a quad patch split in two) and
// object 1 owns triangle 2 plus a curve.
func attrScene() *scene.Scene {
	return &scene.Scene{
		Verts: []types.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{5, 0, 0}, {6, 0, 0}, {5, 1, 0},
		},
		TriVIndex:  [][3]uint32{{0, 1, 2}, {0, 2, 3}, {4, 5, 6}},
		TriShader:  []uint32{0, 0, 0},
		TriPatch:   []int32{0, 0, -1},
		TriPatchUV: [][3]types.Vec2{{{0, 0}, {1, 0}, {1, 1}}, {{0, 0}, {1, 1}, {0, 1}}, {}},
		Patches: []scene.Patch{
			{V: [4]uint32{0, 1, 2, 3}, NumCorners: 4, Face: 0, Corner: 0},
		},
		Curves:    []scene.Curve{{FirstKey: 0, NumKeys: 3}},
		CurveKeys: []types.Vec4{{0, 0, 0, 0.1}, {0, 1, 0, 0.1}, {0, 2, 0, 0.1}},
		Objects: []scene.Object{
			{Flags: scene.ObjectTransformApplied, VertexOffset: 0, NumVerts: 4},
			{Flags: scene.ObjectTransformApplied, VertexOffset: 4, NumVerts: 3, TriOffset: 2},
		},
		// Buffer layout:
		//  float:  [0] face ids of object 1, [1-3] vertex weights of object 1,
		//          [4-7] patch vertex values of object 0, [8-10] curve keys
		//  float3: [0-2] corner colors of object 1, [3] object color of object 1
		//  uchar4: [0-2] byte corner colors of object 1
		AttrFloat: []float32{
			42,
			1, 2, 4,
			0, 1, 3, 2,
			10, 20, 30,
		},
		AttrFloat3: []types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.5, 0.5, 0.5}},
		AttrUchar4: [][4]uint8{{255, 0, 0, 255}, {0, 255, 0, 0}, {0, 0, 255, 51}},
	}
}

var (
	faceDesc     = scene.AttributeDescriptor{Offset: 0, Element: scene.AttrElementFace, Type: scene.AttrTypeFloat}
	vertexDesc   = scene.AttributeDescriptor{Offset: 1, Element: scene.AttrElementVertex, Type: scene.AttrTypeFloat}
	cornerDesc   = scene.AttributeDescriptor{Offset: 0, Element: scene.AttrElementCorner, Type: scene.AttrTypeFloat3}
	byteDesc     = scene.AttributeDescriptor{Offset: 0, Element: scene.AttrElementCornerByte, Type: scene.AttrTypeUchar4}
	objectDesc   = scene.AttributeDescriptor{Offset: 3, Element: scene.AttrElementObject, Type: scene.AttrTypeFloat3}
	patchDesc    = scene.AttributeDescriptor{Offset: 4, Element: scene.AttrElementVertex, Type: scene.AttrTypeFloat}
	curveKeyDesc = scene.AttributeDescriptor{Offset: 8, Element: scene.AttrElementCurveKey, Type: scene.AttrTypeFloat}
)

func triShadingPoint(object, prim int32, u, v float32) *shader.ShaderData {
	return &shader.ShaderData{
		Object: object,
		Prim:   prim,
		Type:   scene.PrimitiveTriangle,
		U:      u,
		V:      v,
		Du:     geom.Differential{Dx: 0.1, Dy: 0.02},
		Dv:     geom.Differential{Dx: 0.03, Dy: 0.2},
	}
}

func TestFaceAttributeIsConstant(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)

	exp, dx, dy := in.Float(triShadingPoint(1, 2, 0, 0), faceDesc)
	if exp != 42 || dx != 0 || dy != 0 {
		t.Fatalf("expected face value 42 with zero derivatives; got %f (%f, %f)", exp, dx, dy)
	}

	for _, uv := range [][2]float32{{0.1, 0.1}, {0.5, 0.5}, {0.9, 0.05}, {0.33, 0.33}} {
		got, _, _ := in.Float(triShadingPoint(1, 2, uv[0], uv[1]), faceDesc)
		if got != exp {
			t.Fatalf("expected face value at uv %v to be %v; got %v", uv, exp, got)
		}
	}
}

func TestVertexAttribute(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)

	sd := triShadingPoint(1, 2, 0.25, 0.5)
	val, dx, dy := in.Float(sd, vertexDesc)

	// (1-u-v)*1 + u*2 + v*4
	assert.InDelta(t, 0.25+0.5+2, val, 1e-6)
	// du.dx*(2-1) + dv.dx*(4-1)
	assert.InDelta(t, 0.1+0.09, dx, 1e-6)
	assert.InDelta(t, 0.02+0.6, dy, 1e-6)
}

func TestCornerAttributes(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)
	sd := triShadingPoint(1, 2, 0.2, 0.3)

	val, dx, _ := in.Float3(sd, cornerDesc)
	assert.InDelta(t, 0.5, val[0], 1e-6)
	assert.InDelta(t, 0.2, val[1], 1e-6)
	assert.InDelta(t, 0.3, val[2], 1e-6)
	assert.InDelta(t, -0.13, dx[0], 1e-6)

	// Byte colors are decoded to linear space; alpha stays linear.
	sd = triShadingPoint(1, 2, 0, 0)
	col, _, _ := in.Float4(sd, byteDesc)
	assert.InDelta(t, 1, col[0], 1e-6)
	assert.InDelta(t, 0, col[1], 1e-6)
	assert.InDelta(t, 1, col[3], 1e-6)

	sd = triShadingPoint(1, 2, 0, 1)
	col, _, _ = in.Float4(sd, byteDesc)
	assert.InDelta(t, 1, col[2], 1e-6)
	assert.InDelta(t, 0.2, col[3], 1e-6)

	if got := srgbToLinear(0.5); got < 0.21 || got > 0.22 {
		t.Fatalf("expected sRGB 0.5 to decode to ~0.214; got %f", got)
	}
}

func TestObjectAttribute(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)
	val, dx, _ := in.Float3(triShadingPoint(1, 2, 0.7, 0.1), objectDesc)
	assert.Equal(t, types.XYZ(0.5, 0.5, 0.5), val)
	assert.Equal(t, types.Vec3{}, dx)
}

func TestSubdVertexAttribute(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)

	// Patch corner values 0, 1, 3, 2 form the affine function s + 2t.
	for prim, uvs := range [][3]types.Vec2{{{0, 0}, {1, 0}, {1, 1}}, {{0, 0}, {1, 1}, {0, 1}}} {
		sd := triShadingPoint(0, int32(prim), 0.3, 0.4)
		w := 1 - sd.U - sd.V
		st := uvs[0].Mul(w).Add(uvs[1].Mul(sd.U)).Add(uvs[2].Mul(sd.V))

		val, dx, dy := in.Float(sd, patchDesc)
		assert.InDelta(t, st[0]+2*st[1], val, 1e-5, "prim %d", prim)

		// The bilinear evaluator on an affine patch must agree with the
		// corner blend, derivatives included.
		subd := patchDesc
		subd.Flags = scene.AttrSubdivided
		sval, sdx, sdy := in.Float(sd, subd)
		assert.InDelta(t, val, sval, 1e-5, "prim %d", prim)
		assert.InDelta(t, dx, sdx, 1e-5, "prim %d", prim)
		assert.InDelta(t, dy, sdy, 1e-5, "prim %d", prim)
	}
}

func TestNonQuadPatchCorners(t *testing.T) {
	sc := attrScene()
	sc.Patches[0].NumCorners = 3

	c := patchCorners(sc, &sc.Objects[0], &sc.Patches[0], patchDesc)
	exp := [4]float32{0, 0.5, 3, 0}
	for i := range exp {
		if c[i][0] != exp[i] {
			t.Fatalf("expected corner %d to be %f; got %f", i, exp[i], c[i][0])
		}
	}
}

type constPatchEvaluator struct{}

func (constPatchEvaluator) EvalPatch(_ *scene.Scene, _, _ int32, _ scene.AttributeDescriptor, s, t float32) (val, dds, ddt types.Vec4) {
	return types.Vec4{s, t}, types.Vec4{1}, types.Vec4{0, 1}
}

func TestSubdividedChainRule(t *testing.T) {
	in := NewInterpolator(attrScene(), constPatchEvaluator{})

	desc := patchDesc
	desc.Flags = scene.AttrSubdivided
	desc.Type = scene.AttrTypeFloat2

	// Triangle 0 maps (u, v) to s = u + v, t = v.
	sd := triShadingPoint(0, 0, 0.2, 0.3)
	val, dx, dy := in.Float2(sd, desc)
	assert.InDelta(t, 0.5, val[0], 1e-6)
	assert.InDelta(t, 0.3, val[1], 1e-6)
	assert.InDelta(t, sd.Du.Dx+sd.Dv.Dx, dx[0], 1e-6)
	assert.InDelta(t, sd.Dv.Dx, dx[1], 1e-6)
	assert.InDelta(t, sd.Du.Dy+sd.Dv.Dy, dy[0], 1e-6)
}

func TestCurveKeyAttribute(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)
	sd := &shader.ShaderData{
		Object: 1,
		Prim:   0,
		Type:   scene.PackSegment(scene.PrimitiveCurveRibbon, 1),
		U:      0.25,
		Du:     geom.Differential{Dx: 0.5, Dy: 0.5},
	}

	val, dx, dy := in.Float(sd, curveKeyDesc)
	assert.InDelta(t, 22.5, val, 1e-5)
	assert.InDelta(t, 5, dx, 1e-5)
	assert.Equal(t, float32(0), dy)
}

func TestUnsupportedCombinationsAreZero(t *testing.T) {
	in := NewInterpolator(attrScene(), nil)

	// Curve key data on a triangle
	val, dx, dy := in.Float(triShadingPoint(1, 2, 0.2, 0.2), curveKeyDesc)
	assert.Zero(t, val)
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	// Missing attribute
	v3, _, _ := in.Float3(triShadingPoint(1, 2, 0.2, 0.2), scene.AttributeNotFound)
	assert.Equal(t, types.Vec3{}, v3)

	// No primitive
	sd := triShadingPoint(1, 2, 0.2, 0.2)
	sd.Prim = scene.PrimNone
	val, _, _ = in.Float(sd, faceDesc)
	assert.Zero(t, val)
}

func TestLookup(t *testing.T) {
	sc := attrScene()
	sc.AttributeMap = []scene.AttributeMapEntry{
		{Object: 1, Std: scene.AttrStdVertexColor, Desc: cornerDesc},
	}
	in := NewInterpolator(sc, nil)

	col, found := in.Lookup(triShadingPoint(1, 2, 1, 0), scene.AttrStdVertexColor)
	require.True(t, found)
	assert.InDelta(t, 1, col[1], 1e-6)

	_, found = in.Lookup(triShadingPoint(1, 2, 1, 0), scene.AttrStdUV)
	assert.False(t, found)
	_, found = in.Lookup(triShadingPoint(0, 0, 1, 0), scene.AttrStdVertexColor)
	assert.False(t, found)
}
