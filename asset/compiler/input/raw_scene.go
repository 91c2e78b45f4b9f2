package input

import (
	"math"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// A shader definition. Shaders are referenced by their index in the scene
// shader list.
type Shader struct {
	Name string

	Albedo       types.Vec3
	Emission     types.Vec3
	Transparency types.Vec3

	// True if shader is referenced by scene geometry.
	Used bool
}

// A triangle face referencing 3 mesh vertices.
type Triangle struct {
	V      [3]uint32
	Shader int
	Smooth bool
}

// A subdivision face. The triangles listed in Tris tessellate the face
// and TriUV holds the patch coordinates of their corners.
type Patch struct {
	V          [4]uint32
	NumCorners uint32
	Tris       []int
	TriUV      [][3]types.Vec2
}

// A poly-line curve with per key radius stored in the w component.
type Curve struct {
	Keys   []types.Vec4
	Shader int
}

// A mesh holds the geometry shared by all objects that instance it.
type Mesh struct {
	Name string

	Verts     []types.Vec3
	Normals   []types.Vec3
	Triangles []Triangle

	// Optional per triangle corner data. If present these slices have
	// one entry per triangle.
	UVs    [][3]types.Vec2
	Colors [][3][4]uint8

	Patches []Patch

	Curves       []Curve
	RibbonCurves bool

	// Vertex positions (and optionally normals) at 2*MotionSteps
	// equally spaced shutter times excluding the shutter center.
	MotionSteps   uint32
	MotionVerts   [][]types.Vec3
	MotionNormals [][]types.Vec3

	bbox            [2]types.Vec3
	bboxNeedsUpdate bool
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		bboxNeedsUpdate: true,
	}
}

// Mark the bbox of this mesh as dirty.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxNeedsUpdate = true
}

// Get the mesh bounding box including all motion steps and curve radii.
func (m *Mesh) BBox() [2]types.Vec3 {
	if m.bboxNeedsUpdate {
		m.bbox = EmptyBBox()
		for _, v := range m.Verts {
			m.bbox = ExpandBBox(m.bbox, v, 0)
		}
		for _, step := range m.MotionVerts {
			for _, v := range step {
				m.bbox = ExpandBBox(m.bbox, v, 0)
			}
		}
		for _, curve := range m.Curves {
			for _, key := range curve.Keys {
				m.bbox = ExpandBBox(m.bbox, key.Vec3(), key[3])
			}
		}
		m.bboxNeedsUpdate = false
	}

	return m.bbox
}

// An object places a mesh in the scene.
type Object struct {
	Name      string
	MeshIndex uint32

	// Object to world transform at the shutter center.
	Transform types.Mat4

	// Optional equally spaced transforms across the shutter interval.
	Motion []types.Mat4

	// Ray types that can see the object. Zero means visible to all rays.
	Visibility scene.Visibility
}

// Camera settings.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// The scene contains all elements that are processed and optimized by the
// scene compiler.
type Scene struct {
	Meshes  []*Mesh
	Objects []*Object
	Shaders []*Shader
	Camera  *Camera

	// Index of the shader evaluated by rays leaving the scene or -1.
	Background int
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes:     make([]*Mesh, 0),
		Objects:    make([]*Object, 0),
		Shaders:    make([]*Shader, 0),
		Background: -1,
		Camera: &Camera{
			FOV:  45.0,
			Eye:  types.Vec3{0, 0, 0},
			Look: types.Vec3{0, 0, -1},
			Up:   types.Vec3{0, 1, 0},
		},
	}
}

// Get an inverted bbox that any expansion replaces.
func EmptyBBox() [2]types.Vec3 {
	return [2]types.Vec3{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Expand bbox to include a sphere of the given radius around p.
func ExpandBBox(bbox [2]types.Vec3, p types.Vec3, radius float32) [2]types.Vec3 {
	r := types.XYZ(radius, radius, radius)
	return [2]types.Vec3{
		types.MinVec3(bbox[0], p.Sub(r)),
		types.MaxVec3(bbox[1], p.Add(r)),
	}
}

// Merge two bboxes.
func UnionBBox(a, b [2]types.Vec3) [2]types.Vec3 {
	return [2]types.Vec3{types.MinVec3(a[0], b[0]), types.MaxVec3(a[1], b[1])}
}
