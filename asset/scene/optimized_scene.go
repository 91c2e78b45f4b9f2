package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/raykernel/types"
	"github.com/olekukonko/tablewriter"
)

// Bvh nodes are comprised of two Vec3 and two multipurpose int32 parameters
// whose value depends on the node type. Nodes are addressed through encoded
// addresses: an address >= 0 points to an internal node at that index while
// a negative address points to a leaf stored at index -addr-1.
//
// - For internal nodes LData and RData hold the encoded addresses of the
//   left and right children.
// - For leafs with LData >= 0 the leaf covers the primitive address range
//   [LData, RData).
// - For leafs with LData < 0 the leaf references instanced object -LData-1.
type BvhNode struct {
	Min   types.Vec3
	LData int32

	Max   types.Vec3
	RData int32
}

// Encode a leaf node index into an address.
func LeafAddress(index int32) int32 {
	return -index - 1
}

// Returns true if addr points to a leaf.
func IsLeafAddress(addr int32) bool {
	return addr < 0
}

// Decode an address into an index in the node list.
func NodeIndex(addr int32) int32 {
	if addr < 0 {
		return -addr - 1
	}
	return addr
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Get bounding box.
func (n *BvhNode) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Set the encoded addresses of the left and right child nodes.
func (n *BvhNode) SetChildNodes(left, right int32) {
	n.LData = left
	n.RData = right
}

// Setup a leaf that references an instanced object.
func (n *BvhNode) SetObjectIndex(object int32) {
	n.LData = -object - 1
	n.RData = 0
}

// Get the instanced object index for a leaf. Returns ObjectNone for leafs
// that contain primitives.
func (n *BvhNode) ObjectIndex() int32 {
	if n.LData >= 0 {
		return ObjectNone
	}
	return -n.LData - 1
}

// Setup a leaf covering count primitives starting at firstPrim.
func (n *BvhNode) SetPrimitives(firstPrim, count uint32) {
	n.LData = int32(firstPrim)
	n.RData = int32(firstPrim + count)
}

// Get the primitive address range [start, end) of a leaf.
func (n *BvhNode) Primitives() (start, end int32) {
	return n.LData, n.RData
}

// Relocate the child addresses of an internal node after its tree was
// appended at offset in a larger node list.
func (n *BvhNode) OffsetChildNodes(offset int32) {
	n.LData = offsetAddress(n.LData, offset)
	n.RData = offsetAddress(n.RData, offset)
}

func offsetAddress(addr, offset int32) int32 {
	if addr < 0 {
		return addr - offset
	}
	return addr + offset
}

// Relocate all internal nodes of the tree rooted at root after the tree
// has been appended at offset. Returns the relocated root address.
func OffsetBvhTree(nodes []BvhNode, root, offset int32) int32 {
	if !IsLeafAddress(root) {
		pending := []int32{root}
		for len(pending) > 0 {
			addr := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			node := &nodes[addr]
			for _, child := range [2]int32{node.LData, node.RData} {
				if !IsLeafAddress(child) {
					pending = append(pending, child)
				}
			}
			node.OffsetChildNodes(offset)
		}
	}
	return offsetAddress(root, offset)
}

// A scene object. Objects either reference their own BVH subtree
// (instancing) or have their geometry baked into the scene BVH.
type Object struct {
	Name string

	// Object to world transform and its inverse at the shutter center.
	Transform    types.Mat4
	InvTransform types.Mat4

	// Equally spaced decomposed transforms across the shutter interval.
	Motion []types.DecomposedTransform

	Flags      ObjectFlag
	Visibility Visibility

	// Encoded address of the node where traversal restricted to this
	// object starts.
	BvhRoot int32

	// The vertex range owned by the object geometry.
	VertexOffset uint32
	NumVerts     uint32

	// First triangle, curve and curve key of the object geometry. Per
	// element attributes are indexed relative to these.
	TriOffset      uint32
	CurveOffset    uint32
	CurveKeyOffset uint32

	// Number of motion steps on each side of the shutter center. Vertex
	// motion data stores 2*MotionSteps sets of vertices; the center step
	// uses the regular vertex list.
	MotionSteps uint32

	// Total surface area of emissive triangles (world space).
	EmissiveArea float32
}

// A shader as seen by the kernel.
type Shader struct {
	Name  string
	Flags ShaderFlag

	// Parameters used by the bundled integrators.
	Albedo       types.Vec3
	Emission     types.Vec3
	Transparency types.Vec3
}

// A curve made of NumKeys control points. Each pair of consecutive keys
// forms a segment primitive.
type Curve struct {
	FirstKey uint32
	NumKeys  uint32
	Shader   uint32
}

// A subdivision face that owns one or more triangles.
type Patch struct {
	// Control vertex indices. Non-quad faces only use the first 3 slots.
	V          [4]uint32
	NumCorners uint32

	// Offsets of the face into face and corner attribute data.
	Face   uint32
	Corner uint32
}

// An emissive triangle entry in the light distribution. Entries are sorted
// by their cumulative area so a light can be picked via binary search.
type LightDistribution struct {
	CDF    float32
	Prim   int32
	Object int32
}

// Scene wide constants.
type KernelData struct {
	// Root address of the scene BVH.
	BvhRoot int32

	// Max depth of any traversal path including instance levels.
	BvhMaxDepth int32

	// The reciprocal of the total emissive triangle area.
	PdfTriangles float32

	// Shader used for rays that escape the scene.
	BackgroundShader int32

	// Shutter interval used for motion blur.
	ShutterOpen  float32
	ShutterClose float32
}

// The Scene is an arena holding all data required by the kernel. All
// cross references are integer indices into the arena slices.
type Scene struct {
	BvhNodeList []BvhNode

	// Primitive data indexed by primitive address.
	PrimType       []PrimitiveType
	PrimIndex      []int32
	PrimObject     []int32
	PrimVisibility []Visibility

	// Triangle data indexed by triangle index.
	TriVIndex  [][3]uint32
	TriShader  []uint32
	TriPatch   []int32
	TriPatchUV [][3]types.Vec2

	// Vertex data.
	Verts    []types.Vec3
	VNormals []types.Vec3

	// Curve data.
	Curves    []Curve
	CurveKeys []types.Vec4

	Patches []Patch
	Objects []Object
	Shaders []Shader

	// Attribute lookup table and buffers.
	AttributeMap []AttributeMapEntry
	AttrFloat    []float32
	AttrFloat2   []types.Vec2
	AttrFloat3   []types.Vec3
	AttrFloat4   []types.Vec4
	AttrUchar4   [][4]uint8

	Lights []LightDistribution

	Kernel KernelData

	// The scene camera.
	Camera *Camera
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Hierarchy", "---", "", fmtSize(sc.BvhNodeList, sc.PrimType, sc.PrimIndex, sc.PrimObject, sc.PrimVisibility)})
	table.Append([]string{"", "BVH nodes", fmt.Sprint(len(sc.BvhNodeList)), fmtSize(sc.BvhNodeList)})
	table.Append([]string{"", "Primitives", fmt.Sprint(len(sc.PrimType)), fmtSize(sc.PrimType, sc.PrimIndex, sc.PrimObject, sc.PrimVisibility)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Geometry", "---", "", fmtSize(sc.TriVIndex, sc.TriShader, sc.TriPatch, sc.TriPatchUV, sc.Verts, sc.VNormals, sc.Curves, sc.CurveKeys, sc.Patches)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(sc.TriVIndex)), fmtSize(sc.TriVIndex, sc.TriShader, sc.TriPatch, sc.TriPatchUV)})
	table.Append([]string{"", "Vertices", fmt.Sprint(len(sc.Verts)), fmtSize(sc.Verts, sc.VNormals)})
	table.Append([]string{"", "Curves", fmt.Sprint(len(sc.Curves)), fmtSize(sc.Curves, sc.CurveKeys)})
	table.Append([]string{"", "Patches", fmt.Sprint(len(sc.Patches)), fmtSize(sc.Patches)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Attributes", "---", fmt.Sprint(len(sc.AttributeMap)), fmtSize(sc.AttrFloat, sc.AttrFloat2, sc.AttrFloat3, sc.AttrFloat4, sc.AttrUchar4)})
	table.Append([]string{"", "float", "", fmtSize(sc.AttrFloat)})
	table.Append([]string{"", "float2", "", fmtSize(sc.AttrFloat2)})
	table.Append([]string{"", "float3", "", fmtSize(sc.AttrFloat3)})
	table.Append([]string{"", "float4", "", fmtSize(sc.AttrFloat4)})
	table.Append([]string{"", "uchar4", "", fmtSize(sc.AttrUchar4)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Objects", "---", fmt.Sprint(len(sc.Objects)), fmtSize(sc.Objects)})
	table.Append([]string{"Shaders", "---", fmt.Sprint(len(sc.Shaders)), fmtSize(sc.Shaders)})
	table.Append([]string{"Lights", "---", fmt.Sprint(len(sc.Lights)), fmtSize(sc.Lights)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(
		sc.BvhNodeList, sc.PrimType, sc.PrimIndex, sc.PrimObject, sc.PrimVisibility,
		sc.TriVIndex, sc.TriShader, sc.TriPatch, sc.TriPatchUV, sc.Verts, sc.VNormals,
		sc.Curves, sc.CurveKeys, sc.Patches,
		sc.AttrFloat, sc.AttrFloat2, sc.AttrFloat3, sc.AttrFloat4, sc.AttrUchar4,
		sc.Objects, sc.Shaders, sc.Lights,
	), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
