package attribute

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/shader"
	"github.com/achilleasa/raykernel/types"
)

// An attribute value together with its screen space derivatives. Values of
// every arity are carried as Vec4 and narrowed by the typed accessors.
type value struct {
	val types.Vec4
	dx  types.Vec4
	dy  types.Vec4
}

func constant(v types.Vec4) value {
	return value{val: v}
}

// Interpolator reads attributes for shading points. It holds no per-call
// state and can be shared between workers.
type Interpolator struct {
	sc      *scene.Scene
	patches PatchEvaluator
}

// Create an interpolator for a scene. A nil evaluator selects the bilinear
// patch evaluator.
func NewInterpolator(sc *scene.Scene, patches PatchEvaluator) *Interpolator {
	if patches == nil {
		patches = BilinearPatchEvaluator{}
	}
	return &Interpolator{sc: sc, patches: patches}
}

// Read a float attribute and its derivatives.
func (in *Interpolator) Float(sd *shader.ShaderData, desc scene.AttributeDescriptor) (val, dx, dy float32) {
	v := in.eval(sd, desc)
	return v.val[0], v.dx[0], v.dy[0]
}

// Read a float2 attribute and its derivatives.
func (in *Interpolator) Float2(sd *shader.ShaderData, desc scene.AttributeDescriptor) (val, dx, dy types.Vec2) {
	v := in.eval(sd, desc)
	return types.XY(v.val[0], v.val[1]), types.XY(v.dx[0], v.dx[1]), types.XY(v.dy[0], v.dy[1])
}

// Read a float3 attribute and its derivatives.
func (in *Interpolator) Float3(sd *shader.ShaderData, desc scene.AttributeDescriptor) (val, dx, dy types.Vec3) {
	v := in.eval(sd, desc)
	return v.val.Vec3(), v.dx.Vec3(), v.dy.Vec3()
}

// Read a float4 attribute and its derivatives.
func (in *Interpolator) Float4(sd *shader.ShaderData, desc scene.AttributeDescriptor) (val, dx, dy types.Vec4) {
	v := in.eval(sd, desc)
	return v.val, v.dx, v.dy
}

// Lookup a standard attribute of the shading point object. The second
// return value is false if the object does not carry the attribute.
func (in *Interpolator) Lookup(sd *shader.ShaderData, std scene.AttributeStandard) (types.Vec4, bool) {
	desc := in.sc.FindAttribute(sd.Object, std)
	if !desc.Found() {
		return types.Vec4{}, false
	}
	return in.eval(sd, desc).val, true
}

func (in *Interpolator) eval(sd *shader.ShaderData, desc scene.AttributeDescriptor) value {
	if !desc.Found() || sd.Prim == scene.PrimNone {
		return value{}
	}

	base := sd.Type.Base()
	switch {
	case base&scene.PrimitiveAllTriangle != 0:
		if patch := in.sc.TriPatchIndex(sd.Prim); patch >= 0 {
			return in.subdTriangle(sd, desc, patch)
		}
		return in.triangle(sd, desc)
	case base&scene.PrimitiveAllCurve != 0:
		return in.curve(sd, desc)
	}
	return value{}
}

func (in *Interpolator) object(sd *shader.ShaderData) *scene.Object {
	if sd.Object == scene.ObjectNone {
		return &scene.Object{}
	}
	return &in.sc.Objects[sd.Object]
}

func (in *Interpolator) triangle(sd *shader.ShaderData, desc scene.AttributeDescriptor) value {
	obj := in.object(sd)
	offset := int(desc.Offset)

	switch desc.Element {
	case scene.AttrElementObject, scene.AttrElementMesh:
		return constant(fetch(in.sc, desc, offset))
	case scene.AttrElementFace:
		return constant(fetch(in.sc, desc, offset+int(uint32(sd.Prim)-obj.TriOffset)))
	case scene.AttrElementVertex, scene.AttrElementVertexMotion:
		vi := in.sc.TriVIndex[sd.Prim]
		base := offset - int(obj.VertexOffset)
		return blend(sd,
			fetch(in.sc, desc, base+int(vi[0])),
			fetch(in.sc, desc, base+int(vi[1])),
			fetch(in.sc, desc, base+int(vi[2])),
		)
	case scene.AttrElementCorner, scene.AttrElementCornerByte:
		base := offset + 3*int(uint32(sd.Prim)-obj.TriOffset)
		return blend(sd,
			fetch(in.sc, desc, base),
			fetch(in.sc, desc, base+1),
			fetch(in.sc, desc, base+2),
		)
	}
	return value{}
}

// Blend triangle corner values with the barycentrics of sd and apply the
// chain rule for the derivatives.
func blend(sd *shader.ShaderData, f0, f1, f2 types.Vec4) value {
	w := 1 - sd.U - sd.V
	d1, d2 := f1.Sub(f0), f2.Sub(f0)
	return value{
		val: f0.Mul(w).Add(f1.Mul(sd.U)).Add(f2.Mul(sd.V)),
		dx:  d1.Mul(sd.Du.Dx).Add(d2.Mul(sd.Dv.Dx)),
		dy:  d1.Mul(sd.Du.Dy).Add(d2.Mul(sd.Dv.Dy)),
	}
}

func (in *Interpolator) subdTriangle(sd *shader.ShaderData, desc scene.AttributeDescriptor, patchIndex int32) value {
	patch := &in.sc.Patches[patchIndex]
	uv := in.sc.TriPatchUV[sd.Prim]

	if desc.Flags&scene.AttrSubdivided != 0 {
		dpdu := uv[1].Sub(uv[0])
		dpdv := uv[2].Sub(uv[0])
		p := uv[0].Add(dpdu.Mul(sd.U)).Add(dpdv.Mul(sd.V))

		val, dds, ddt := in.patches.EvalPatch(in.sc, sd.Object, patchIndex, desc, p[0], p[1])

		dsdx := dpdu[0]*sd.Du.Dx + dpdv[0]*sd.Dv.Dx
		dtdx := dpdu[1]*sd.Du.Dx + dpdv[1]*sd.Dv.Dx
		dsdy := dpdu[0]*sd.Du.Dy + dpdv[0]*sd.Dv.Dy
		dtdy := dpdu[1]*sd.Du.Dy + dpdv[1]*sd.Dv.Dy
		return value{
			val: val,
			dx:  dds.Mul(dsdx).Add(ddt.Mul(dtdx)),
			dy:  dds.Mul(dsdy).Add(ddt.Mul(dtdy)),
		}
	}

	switch desc.Element {
	case scene.AttrElementObject, scene.AttrElementMesh:
		return constant(fetch(in.sc, desc, int(desc.Offset)))
	case scene.AttrElementFace:
		return constant(fetch(in.sc, desc, int(desc.Offset)+int(patch.Face)))
	case scene.AttrElementVertex, scene.AttrElementVertexMotion, scene.AttrElementCorner, scene.AttrElementCornerByte:
		corners := patchCorners(in.sc, in.object(sd), patch, desc)
		return blend(sd,
			bilinear(corners, uv[0]),
			bilinear(corners, uv[1]),
			bilinear(corners, uv[2]),
		)
	}
	return value{}
}

func (in *Interpolator) curve(sd *shader.ShaderData, desc scene.AttributeDescriptor) value {
	obj := in.object(sd)
	offset := int(desc.Offset)

	switch desc.Element {
	case scene.AttrElementObject, scene.AttrElementMesh:
		return constant(fetch(in.sc, desc, offset))
	case scene.AttrElementCurve:
		return constant(fetch(in.sc, desc, offset+int(uint32(sd.Prim)-obj.CurveOffset)))
	case scene.AttrElementCurveKey, scene.AttrElementCurveKeyMotion:
		k0 := int(in.sc.Curves[sd.Prim].FirstKey) + sd.Type.Segment()
		index := offset + k0 - int(obj.CurveKeyOffset)
		f0 := fetch(in.sc, desc, index)
		f1 := fetch(in.sc, desc, index+1)
		return value{
			val: f0.Lerp(f1, sd.U),
			dx:  f1.Sub(f0).Mul(sd.Du.Dx),
		}
	}
	return value{}
}

// Read a single attribute element from the buffer selected by the
// descriptor type.
func fetch(sc *scene.Scene, desc scene.AttributeDescriptor, index int) types.Vec4 {
	switch desc.Type {
	case scene.AttrTypeFloat:
		return types.Vec4{sc.AttrFloat[index]}
	case scene.AttrTypeFloat2:
		v := sc.AttrFloat2[index]
		return types.Vec4{v[0], v[1]}
	case scene.AttrTypeFloat3:
		return sc.AttrFloat3[index].Vec4(0)
	case scene.AttrTypeFloat4:
		return sc.AttrFloat4[index]
	case scene.AttrTypeUchar4:
		return decodeByteColor(sc.AttrUchar4[index])
	}
	return types.Vec4{}
}

// Decode a byte packed sRGB color with linear alpha.
func decodeByteColor(c [4]uint8) types.Vec4 {
	return types.Vec4{
		srgbToLinear(float32(c[0]) / 255),
		srgbToLinear(float32(c[1]) / 255),
		srgbToLinear(float32(c[2]) / 255),
		float32(c[3]) / 255,
	}
}

func srgbToLinear(c float32) float32 {
	if c < 0.04045 {
		return math32.Max(c, 0) / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}
