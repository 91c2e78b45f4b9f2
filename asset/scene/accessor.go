package scene

import "github.com/achilleasa/raykernel/types"

// Get the node stored at an encoded address.
func (sc *Scene) BvhNode(addr int32) *BvhNode {
	return &sc.BvhNodeList[NodeIndex(addr)]
}

// Get the type tag of the primitive at prim address addr.
func (sc *Scene) PrimitiveType(addr int32) PrimitiveType {
	return sc.PrimType[addr]
}

// Get the object owning the primitive at prim address addr.
func (sc *Scene) PrimitiveObject(addr int32) int32 {
	return sc.PrimObject[addr]
}

// Get the object flags.
func (sc *Scene) ObjectFlag(object int32) ObjectFlag {
	if object == ObjectNone {
		return 0
	}
	return sc.Objects[object].Flags
}

// Get the object transform (or its inverse) at the shutter center.
func (sc *Scene) ObjectTransform(object int32, kind TransformKind) types.Mat4 {
	obj := &sc.Objects[object]
	if kind == ObjectInverseTransform {
		return obj.InvTransform
	}
	return obj.Transform
}

// Get the object transform (or its inverse) at the given ray time. Objects
// without transform motion return their static transform.
func (sc *Scene) ObjectTransformAt(object int32, time float32, kind TransformKind) types.Mat4 {
	obj := &sc.Objects[object]
	if obj.Flags&ObjectHasMotion == 0 || len(obj.Motion) == 0 {
		return sc.ObjectTransform(object, kind)
	}

	fwd, inv := types.MotionTransform(obj.Motion, time)
	if kind == ObjectInverseTransform {
		return inv
	}
	return fwd
}

// Get the vertex indices of a triangle.
func (sc *Scene) TriVertexIndex(prim int32) [3]uint32 {
	return sc.TriVIndex[prim]
}

// Get the vertices of a triangle.
func (sc *Scene) TriVertices(prim int32) (v0, v1, v2 types.Vec3) {
	vi := sc.TriVIndex[prim]
	return sc.Verts[vi[0]], sc.Verts[vi[1]], sc.Verts[vi[2]]
}

// Get the vertex normals of a triangle.
func (sc *Scene) TriNormals(prim int32) (n0, n1, n2 types.Vec3) {
	vi := sc.TriVIndex[prim]
	return sc.VNormals[vi[0]], sc.VNormals[vi[1]], sc.VNormals[vi[2]]
}

// Get the shader id of a triangle with any flag bits stripped, and whether
// the shader requests smooth normals.
func (sc *Scene) TriShaderID(prim int32) (shader int32, smooth bool) {
	s := sc.TriShader[prim]
	return int32(s & ShaderIDMask), s&ShaderSmoothNormal != 0
}

// Get the subdivision patch a triangle was generated from or -1.
func (sc *Scene) TriPatchIndex(prim int32) int32 {
	if int(prim) >= len(sc.TriPatch) {
		return -1
	}
	return sc.TriPatch[prim]
}

// Get the flags of a shader.
func (sc *Scene) ShaderFlags(shader int32) ShaderFlag {
	if shader == ShaderNone {
		return 0
	}
	return sc.Shaders[shader].Flags
}

// Get the shader id for the primitive at prim address addr.
func (sc *Scene) PrimitiveShader(addr int32) int32 {
	prim := sc.PrimIndex[addr]
	if sc.PrimType[addr].Base()&PrimitiveAllCurve != 0 {
		return int32(sc.Curves[prim].Shader)
	}
	shader, _ := sc.TriShaderID(prim)
	return shader
}

// Lookup a standard attribute for an object. Returns AttributeNotFound if
// the object does not carry it.
func (sc *Scene) FindAttribute(object int32, std AttributeStandard) AttributeDescriptor {
	if object == ObjectNone {
		return AttributeNotFound
	}
	for _, entry := range sc.AttributeMap {
		if entry.Object == object && entry.Std == std {
			return entry.Desc
		}
	}
	return AttributeNotFound
}
