package scene

// The kind of element an attribute stores one value for.
type AttributeElement uint8

const (
	AttrElementNone AttributeElement = iota
	AttrElementObject
	AttrElementMesh
	AttrElementFace
	AttrElementVertex
	AttrElementVertexMotion
	AttrElementCorner
	AttrElementCornerByte
	AttrElementCurve
	AttrElementCurveKey
	AttrElementCurveKeyMotion
)

func (e AttributeElement) String() string {
	switch e {
	case AttrElementObject:
		return "object"
	case AttrElementMesh:
		return "mesh"
	case AttrElementFace:
		return "face"
	case AttrElementVertex:
		return "vertex"
	case AttrElementVertexMotion:
		return "vertex motion"
	case AttrElementCorner:
		return "corner"
	case AttrElementCornerByte:
		return "corner byte"
	case AttrElementCurve:
		return "curve"
	case AttrElementCurveKey:
		return "curve key"
	case AttrElementCurveKeyMotion:
		return "curve key motion"
	}
	return "none"
}

// The value type of an attribute. It selects the buffer that stores it.
type AttributeType uint8

const (
	AttrTypeFloat AttributeType = iota
	AttrTypeFloat2
	AttrTypeFloat3
	AttrTypeFloat4
	AttrTypeUchar4
)

// Well known attributes.
type AttributeStandard uint16

const (
	AttrStdNone AttributeStandard = iota
	AttrStdUV
	AttrStdVertexColor
	AttrStdGenerated
	AttrStdMotionVertexPosition
	AttrStdMotionVertexNormal
	AttrStdPtexFaceID
	AttrStdRandom
)

func (s AttributeStandard) String() string {
	switch s {
	case AttrStdUV:
		return "uv"
	case AttrStdVertexColor:
		return "vertex color"
	case AttrStdGenerated:
		return "generated"
	case AttrStdMotionVertexPosition:
		return "motion vertex position"
	case AttrStdMotionVertexNormal:
		return "motion vertex normal"
	case AttrStdPtexFaceID:
		return "ptex face id"
	case AttrStdRandom:
		return "random"
	}
	return "none"
}

// Attribute descriptor flags.
type AttributeFlag uint8

const (
	// Values are stored per subdivision patch control point and must be
	// evaluated through a patch evaluator.
	AttrSubdivided AttributeFlag = 1 << iota
)

// Locates attribute data inside one of the scene attribute buffers.
// A negative offset means the attribute does not exist.
type AttributeDescriptor struct {
	Offset  int32
	Element AttributeElement
	Type    AttributeType
	Flags   AttributeFlag
}

// The descriptor returned for missing attributes.
var AttributeNotFound = AttributeDescriptor{Offset: -1, Element: AttrElementNone}

// Returns true if the descriptor points to attribute data.
func (d AttributeDescriptor) Found() bool {
	return d.Offset >= 0
}

// Associates an attribute descriptor with an object.
type AttributeMapEntry struct {
	Object int32
	Std    AttributeStandard
	Desc   AttributeDescriptor
}
