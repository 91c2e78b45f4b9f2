package scene

// Handles that do not reference anything.
const (
	ObjectNone int32 = -1
	PrimNone   int32 = -1
	ShaderNone int32 = -1
)

// The type tag of a primitive. Curve primitives additionally pack the
// segment index into the upper bits.
type PrimitiveType uint32

const (
	PrimitiveNone     PrimitiveType = 0
	PrimitiveTriangle PrimitiveType = 1 << iota
	PrimitiveMotionTriangle
	PrimitiveCurveThick
	PrimitiveCurveRibbon
	PrimitiveLamp

	PrimitiveAllTriangle = PrimitiveTriangle | PrimitiveMotionTriangle
	PrimitiveAllCurve    = PrimitiveCurveThick | PrimitiveCurveRibbon

	primitiveTypeMask    PrimitiveType = 0xff
	primitiveSegmentShift               = 8
)

// Pack a curve segment index into a primitive type.
func PackSegment(t PrimitiveType, segment int) PrimitiveType {
	return (t & primitiveTypeMask) | PrimitiveType(segment<<primitiveSegmentShift)
}

// Get the primitive type without the packed segment.
func (t PrimitiveType) Base() PrimitiveType {
	return t & primitiveTypeMask
}

// Get the curve segment packed into the type.
func (t PrimitiveType) Segment() int {
	return int(t >> primitiveSegmentShift)
}

func (t PrimitiveType) String() string {
	switch t.Base() {
	case PrimitiveTriangle:
		return "triangle"
	case PrimitiveMotionTriangle:
		return "motion triangle"
	case PrimitiveCurveThick:
		return "thick curve"
	case PrimitiveCurveRibbon:
		return "ribbon curve"
	case PrimitiveLamp:
		return "lamp"
	}
	return "none"
}

// A ray visibility mask. A primitive is only reported to a query when its
// visibility shares at least one bit with the query mask.
type Visibility uint32

const (
	VisibilityCamera Visibility = 1 << iota
	VisibilityDiffuse
	VisibilityGlossy
	VisibilityTransmit
	VisibilityShadow
	VisibilityScatter

	VisibilityAll Visibility = VisibilityCamera | VisibilityDiffuse | VisibilityGlossy |
		VisibilityTransmit | VisibilityShadow | VisibilityScatter
)

// Per-object flags set by the scene compiler.
type ObjectFlag uint32

const (
	// Geometry was baked into world space; the stored transforms must not
	// be applied during traversal or shading.
	ObjectTransformApplied ObjectFlag = 1 << iota

	// The baked transform had a negative determinant so triangle winding
	// is reversed.
	ObjectNegativeScaleApplied

	// The object transform varies over the shutter interval.
	ObjectHasMotion

	// The object vertices vary over the shutter interval.
	ObjectHasVertexMotion
)

// Selects between an object transform and its inverse.
type TransformKind uint8

const (
	ObjectTransform TransformKind = iota
	ObjectInverseTransform
)

// Shader capability flags.
type ShaderFlag uint32

const (
	ShaderHasTransparentShadow ShaderFlag = 1 << iota
	ShaderHasEmission
	ShaderHasSurfaceBSSRDF
	ShaderHasVolume
)

// Bit set on triangle shader ids when the shader requests smooth normals.
const (
	ShaderSmoothNormal uint32 = 1 << 31
	ShaderIDMask       uint32 = ShaderSmoothNormal - 1
)
