package compiler

import (
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/compiler/bvh"
	"github.com/achilleasa/raykernel/asset/compiler/input"
	"github.com/achilleasa/raykernel/asset/scene"
	kbvh "github.com/achilleasa/raykernel/kernel/bvh"
	"github.com/achilleasa/raykernel/log"
	"github.com/achilleasa/raykernel/types"
)

const (
	minPrimitivesPerLeaf = 4
)

var (
	ErrNoObjects  = errors.New("compiler: scene contains no objects")
	ErrBvhTooDeep = errors.New("compiler: BVH depth exceeds the traversal stack capacity")
)

// Compiler settings.
type Options struct {
	// Build a BVH per mesh and a top level BVH over object instances. If
	// false all geometry is baked into world space and stored in a single
	// BVH.
	Instancing bool

	// The minimum number of primitives that forms a BVH leaf.
	MinLeafItems int
}

// The layout of a mesh inside the compiled scene.
type geometry struct {
	vertexOffset   uint32
	numVerts       uint32
	triOffset      uint32
	curveOffset    uint32
	curveKeyOffset uint32
	motionSteps    uint32
	hasMotion      bool
	negativeScale  bool

	// Attributes shared by all objects using this geometry. The object
	// field is filled in per object.
	attributes []scene.AttributeMapEntry

	prims []*primitive

	bvhRoot  int32
	bvhDepth int
}

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	opts           Options
	logger         log.Logger
}

// Compile a scene representation parsed by a scene reader into the arena
// format used by the kernel.
func Compile(parsedScene *input.Scene, opts Options) (*scene.Scene, error) {
	if opts.MinLeafItems <= 0 {
		opts.MinLeafItems = minPrimitivesPerLeaf
	}

	compiler := &sceneCompiler{
		parsedScene: parsedScene,
		optimizedScene: &scene.Scene{
			Kernel: scene.KernelData{
				BackgroundShader: scene.ShaderNone,
				ShutterOpen:      0,
				ShutterClose:     1,
			},
		},
		opts:   opts,
		logger: log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene (instancing: %t)", opts.Instancing)

	var err error
	if err = compiler.checkReferences(); err != nil {
		return nil, err
	}

	compiler.setupShaders()

	if opts.Instancing {
		err = compiler.partitionInstanced()
	} else {
		err = compiler.partitionFlat()
	}
	if err != nil {
		return nil, err
	}

	compiler.setupLights()
	compiler.setupCamera()

	if err = compiler.optimizedScene.Validate(); err != nil {
		return nil, err
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Make sure that all input cross references are valid.
func (sc *sceneCompiler) checkReferences() error {
	in := sc.parsedScene
	if len(in.Objects) == 0 {
		return ErrNoObjects
	}

	checkShader := func(mesh *input.Mesh, shader int) error {
		if shader < 0 || shader >= len(in.Shaders) {
			return fmt.Errorf("compiler: mesh %q: unknown shader %d", mesh.Name, shader)
		}
		in.Shaders[shader].Used = true
		return nil
	}

	for _, mesh := range in.Meshes {
		for triIndex, tri := range mesh.Triangles {
			for _, v := range tri.V {
				if int(v) >= len(mesh.Verts) {
					return fmt.Errorf("compiler: mesh %q: triangle %d references unknown vertex %d", mesh.Name, triIndex, v)
				}
			}
			if err := checkShader(mesh, tri.Shader); err != nil {
				return err
			}
		}
		for curveIndex, curve := range mesh.Curves {
			if len(curve.Keys) < 2 {
				return fmt.Errorf("compiler: mesh %q: curve %d has %d keys; at least 2 are required", mesh.Name, curveIndex, len(curve.Keys))
			}
			if err := checkShader(mesh, curve.Shader); err != nil {
				return err
			}
		}
		if len(mesh.Normals) != 0 && len(mesh.Normals) != len(mesh.Verts) {
			return fmt.Errorf("compiler: mesh %q: expected %d normals; got %d", mesh.Name, len(mesh.Verts), len(mesh.Normals))
		}
		if len(mesh.UVs) != 0 && len(mesh.UVs) != len(mesh.Triangles) {
			return fmt.Errorf("compiler: mesh %q: expected %d uv entries; got %d", mesh.Name, len(mesh.Triangles), len(mesh.UVs))
		}
		if len(mesh.Colors) != 0 && len(mesh.Colors) != len(mesh.Triangles) {
			return fmt.Errorf("compiler: mesh %q: expected %d color entries; got %d", mesh.Name, len(mesh.Triangles), len(mesh.Colors))
		}
		if len(mesh.MotionVerts) != 0 && len(mesh.MotionVerts) != int(2*mesh.MotionSteps) {
			return fmt.Errorf("compiler: mesh %q: expected %d motion steps; got %d", mesh.Name, 2*mesh.MotionSteps, len(mesh.MotionVerts))
		}
		for step, verts := range mesh.MotionVerts {
			if len(verts) != len(mesh.Verts) {
				return fmt.Errorf("compiler: mesh %q: motion step %d has %d vertices; expected %d", mesh.Name, step, len(verts), len(mesh.Verts))
			}
		}
		for patchIndex, patch := range mesh.Patches {
			if len(patch.Tris) != len(patch.TriUV) {
				return fmt.Errorf("compiler: mesh %q: patch %d has %d triangles but %d uv entries", mesh.Name, patchIndex, len(patch.Tris), len(patch.TriUV))
			}
			for _, tri := range patch.Tris {
				if tri < 0 || tri >= len(mesh.Triangles) {
					return fmt.Errorf("compiler: mesh %q: patch %d references unknown triangle %d", mesh.Name, patchIndex, tri)
				}
			}
		}
	}

	for _, obj := range in.Objects {
		if int(obj.MeshIndex) >= len(in.Meshes) {
			return fmt.Errorf("compiler: object %q: unknown mesh %d", obj.Name, obj.MeshIndex)
		}
	}

	if in.Background >= len(in.Shaders) {
		return fmt.Errorf("compiler: unknown background shader %d", in.Background)
	}
	return nil
}

func (sc *sceneCompiler) setupShaders() {
	sc.logger.Infof("processing %d shaders", len(sc.parsedScene.Shaders))

	sc.optimizedScene.Shaders = make([]scene.Shader, len(sc.parsedScene.Shaders))
	for index, in := range sc.parsedScene.Shaders {
		out := &sc.optimizedScene.Shaders[index]
		out.Name = in.Name
		out.Albedo = in.Albedo
		out.Emission = in.Emission
		out.Transparency = in.Transparency

		if !in.Emission.IsZero() {
			out.Flags |= scene.ShaderHasEmission
		}
		if !in.Transparency.IsZero() {
			out.Flags |= scene.ShaderHasTransparentShadow
		}
		if !in.Used && index != sc.parsedScene.Background {
			sc.logger.Warningf("shader %q is not referenced by any geometry", in.Name)
		}
	}

	if sc.parsedScene.Background >= 0 {
		sc.optimizedScene.Kernel.BackgroundShader = int32(sc.parsedScene.Background)
	}
}

// Bake all objects into world space and partition their primitives into a
// single BVH tree.
func (sc *sceneCompiler) partitionFlat() error {
	start := time.Now()
	sc.logger.Noticef("partitioning geometry (%d objects)", len(sc.parsedScene.Objects))

	out := sc.optimizedScene
	out.Objects = make([]scene.Object, len(sc.parsedScene.Objects))

	var prims []bvh.BoundedVolume
	for index, obj := range sc.parsedScene.Objects {
		if len(obj.Motion) > 1 {
			sc.logger.Warningf("object %q: transform motion requires instancing; baking the shutter center transform", obj.Name)
		}

		geom := sc.emitGeometry(sc.parsedScene.Meshes[obj.MeshIndex], obj.Transform, int32(index), obj.Visibility)
		sc.setupObject(int32(index), obj, geom, true)

		for _, prim := range geom.prims {
			prims = append(prims, prim)
		}
	}

	if len(prims) == 0 {
		return fmt.Errorf("compiler: scene contains no primitives")
	}

	sc.logger.Infof("building scene BVH tree (%d primitives)", len(prims))
	tree := bvh.Build(prims, sc.opts.MinLeafItems, sc.primitiveLeaf, bvh.SurfaceAreaHeuristic)
	out.BvhNodeList = tree.Nodes
	out.Kernel.BvhRoot = tree.Root
	for index := range out.Objects {
		out.Objects[index].BvhRoot = tree.Root
	}

	if err := sc.checkDepth(tree.MaxDepth); err != nil {
		return err
	}

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Generate a two-level BVH tree for the scene. The top level BVH tree
// partitions the objects so that each one ends up in its own leaf. An
// additional BVH tree is generated for each mesh; objects point to the
// root node of their mesh tree.
func (sc *sceneCompiler) partitionInstanced() error {
	start := time.Now()
	sc.logger.Noticef("partitioning geometry (%d meshes, %d objects)", len(sc.parsedScene.Meshes), len(sc.parsedScene.Objects))

	out := sc.optimizedScene
	out.Objects = make([]scene.Object, len(sc.parsedScene.Objects))

	// Emit each referenced mesh once; primitives are owned by the first
	// object that references the mesh.
	meshGeometry := make(map[uint32]*geometry)
	maxMeshDepth := 0
	for index, obj := range sc.parsedScene.Objects {
		geom, exists := meshGeometry[obj.MeshIndex]
		if !exists {
			mesh := sc.parsedScene.Meshes[obj.MeshIndex]
			geom = sc.emitGeometry(mesh, types.Ident4(), int32(index), scene.VisibilityAll)
			meshGeometry[obj.MeshIndex] = geom

			if len(geom.prims) == 0 {
				return fmt.Errorf("compiler: mesh %q contains no primitives", mesh.Name)
			}

			sc.logger.Infof(`building BVH tree for "%s" (%d primitives)`, mesh.Name, len(geom.prims))
			volList := make([]bvh.BoundedVolume, len(geom.prims))
			for primIndex, prim := range geom.prims {
				volList[primIndex] = prim
			}
			tree := bvh.Build(volList, sc.opts.MinLeafItems, sc.primitiveLeaf, bvh.SurfaceAreaHeuristic)

			// Apply offset to bvh nodes and append them to the scene bvh list
			offset := int32(len(out.BvhNodeList))
			geom.bvhRoot = scene.OffsetBvhTree(tree.Nodes, tree.Root, offset)
			geom.bvhDepth = tree.MaxDepth
			out.BvhNodeList = append(out.BvhNodeList, tree.Nodes...)

			if tree.MaxDepth > maxMeshDepth {
				maxMeshDepth = tree.MaxDepth
			}
		}

		sc.setupObject(int32(index), obj, geom, obj.Transform.IsIdentity() && len(obj.Motion) < 2)
		out.Objects[index].BvhRoot = geom.bvhRoot
	}

	// Partition objects so that each object ends up in its own BVH leaf.
	sc.logger.Infof("building scene BVH tree (%d objects)", len(sc.parsedScene.Objects))
	volList := make([]bvh.BoundedVolume, len(sc.parsedScene.Objects))
	for index, obj := range sc.parsedScene.Objects {
		volList[index] = newInstance(int32(index), obj, sc.parsedScene.Meshes[obj.MeshIndex])
	}
	top := bvh.Build(volList, 1, func(node *scene.BvhNode, workList []bvh.BoundedVolume) {
		node.SetObjectIndex(workList[0].(*instance).object)
	}, bvh.SurfaceAreaHeuristic, bvh.MaxLeafItems(1))

	offset := int32(len(out.BvhNodeList))
	out.Kernel.BvhRoot = scene.OffsetBvhTree(top.Nodes, top.Root, offset)
	out.BvhNodeList = append(out.BvhNodeList, top.Nodes...)

	// Entering an instance occupies an extra stack slot for the sentinel.
	if err := sc.checkDepth(top.MaxDepth + 1 + maxMeshDepth); err != nil {
		return err
	}

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

func (sc *sceneCompiler) checkDepth(depth int) error {
	sc.optimizedScene.Kernel.BvhMaxDepth = int32(depth)
	if depth+1 >= kbvh.StackSize {
		return fmt.Errorf("%w (depth %d, capacity %d)", ErrBvhTooDeep, depth, kbvh.StackSize)
	}
	return nil
}

// Copy the primitives of a leaf to the scene primitive arrays.
func (sc *sceneCompiler) primitiveLeaf(node *scene.BvhNode, workList []bvh.BoundedVolume) {
	out := sc.optimizedScene
	node.SetPrimitives(uint32(len(out.PrimType)), uint32(len(workList)))
	for _, item := range workList {
		prim := item.(*primitive)
		out.PrimType = append(out.PrimType, prim.ptype)
		out.PrimIndex = append(out.PrimIndex, prim.index)
		out.PrimObject = append(out.PrimObject, prim.object)
		out.PrimVisibility = append(out.PrimVisibility, prim.visibility)
	}
}

// Fill in the compiled object. Baked objects have their geometry stored in
// world space.
func (sc *sceneCompiler) setupObject(index int32, in *input.Object, geom *geometry, baked bool) {
	obj := &sc.optimizedScene.Objects[index]
	obj.Name = in.Name
	obj.Transform = in.Transform
	obj.InvTransform = in.Transform.Inv()
	obj.Visibility = in.Visibility
	if obj.Visibility == 0 {
		obj.Visibility = scene.VisibilityAll
	}

	obj.VertexOffset = geom.vertexOffset
	obj.NumVerts = geom.numVerts
	obj.TriOffset = geom.triOffset
	obj.CurveOffset = geom.curveOffset
	obj.CurveKeyOffset = geom.curveKeyOffset
	obj.MotionSteps = geom.motionSteps

	if baked {
		obj.Flags |= scene.ObjectTransformApplied
		if geom.negativeScale {
			obj.Flags |= scene.ObjectNegativeScaleApplied
		}
	} else if len(in.Motion) > 1 {
		obj.Flags |= scene.ObjectHasMotion
		obj.Motion = make([]types.DecomposedTransform, len(in.Motion))
		for step, tfm := range in.Motion {
			obj.Motion[step] = types.Decompose(tfm)
		}
	}
	if geom.hasMotion {
		obj.Flags |= scene.ObjectHasVertexMotion
	}

	for _, entry := range geom.attributes {
		entry.Object = index
		sc.optimizedScene.AttributeMap = append(sc.optimizedScene.AttributeMap, entry)
	}

	// A per object random value in [0, 1) derived from its name and index.
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", in.Name, index)
	sc.optimizedScene.AttributeMap = append(sc.optimizedScene.AttributeMap, scene.AttributeMapEntry{
		Object: index,
		Std:    scene.AttrStdRandom,
		Desc:   sc.appendFloat(float32(h.Sum32()>>8) / (1 << 24)),
	})
}

// Append the geometry of a mesh transformed by tfm to the scene.
func (sc *sceneCompiler) emitGeometry(mesh *input.Mesh, tfm types.Mat4, object int32, visibility scene.Visibility) *geometry {
	out := sc.optimizedScene
	if visibility == 0 {
		visibility = scene.VisibilityAll
	}

	geom := &geometry{
		vertexOffset:   uint32(len(out.Verts)),
		numVerts:       uint32(len(mesh.Verts)),
		triOffset:      uint32(len(out.TriVIndex)),
		curveOffset:    uint32(len(out.Curves)),
		curveKeyOffset: uint32(len(out.CurveKeys)),
		negativeScale:  tfm.Det() < 0,
	}

	// Normals transform with the inverse transpose.
	normalTfm := tfm.Inv()
	transformNormals := func(normals []types.Vec3) []types.Vec3 {
		res := make([]types.Vec3, len(normals))
		for index, n := range normals {
			res[index] = normalTfm.TransformDirectionTransposed(n).Normalize()
		}
		return res
	}
	transformPoints := func(points []types.Vec3) []types.Vec3 {
		res := make([]types.Vec3, len(points))
		for index, p := range points {
			res[index] = tfm.TransformPoint(p)
		}
		return res
	}

	normals := mesh.Normals
	if len(normals) == 0 {
		normals = vertexNormals(mesh.Verts, mesh.Triangles)
	}
	verts := transformPoints(mesh.Verts)
	out.Verts = append(out.Verts, verts...)
	out.VNormals = append(out.VNormals, transformNormals(normals)...)

	// Vertex motion
	var motionVerts [][]types.Vec3
	if len(mesh.MotionVerts) != 0 {
		geom.hasMotion = true
		geom.motionSteps = mesh.MotionSteps

		var posData []types.Vec3
		for _, step := range mesh.MotionVerts {
			stepVerts := transformPoints(step)
			motionVerts = append(motionVerts, stepVerts)
			posData = append(posData, stepVerts...)
		}
		geom.addAttribute(scene.AttrStdMotionVertexPosition, sc.appendFloat3(scene.AttrElementVertexMotion, posData...))

		if len(mesh.MotionNormals) == len(mesh.MotionVerts) {
			var normalData []types.Vec3
			for _, step := range mesh.MotionNormals {
				normalData = append(normalData, transformNormals(step)...)
			}
			geom.addAttribute(scene.AttrStdMotionVertexNormal, sc.appendFloat3(scene.AttrElementVertexMotion, normalData...))
		}
	}

	// Triangles
	triType := scene.PrimitiveTriangle
	if geom.hasMotion {
		triType = scene.PrimitiveMotionTriangle
	}
	for triIndex, tri := range mesh.Triangles {
		vi := [3]uint32{
			tri.V[0] + geom.vertexOffset,
			tri.V[1] + geom.vertexOffset,
			tri.V[2] + geom.vertexOffset,
		}
		shader := uint32(tri.Shader)
		if tri.Smooth {
			shader |= scene.ShaderSmoothNormal
		}
		out.TriVIndex = append(out.TriVIndex, vi)
		out.TriShader = append(out.TriShader, shader)
		out.TriPatch = append(out.TriPatch, -1)
		out.TriPatchUV = append(out.TriPatchUV, [3]types.Vec2{})

		bbox := input.EmptyBBox()
		for _, v := range tri.V {
			bbox = input.ExpandBBox(bbox, verts[v], 0)
			for _, step := range motionVerts {
				bbox = input.ExpandBBox(bbox, step[v], 0)
			}
		}
		geom.prims = append(geom.prims, newPrimitive(triType, int32(geom.triOffset)+int32(triIndex), object, visibility, bbox))
	}

	// Subdivision patches
	if len(mesh.Patches) != 0 {
		patchOffset := int32(len(out.Patches))
		faceIDs := make([]float32, len(mesh.Patches))
		for patchIndex, patch := range mesh.Patches {
			outPatch := scene.Patch{
				NumCorners: patch.NumCorners,
				Face:       uint32(patchIndex),
				Corner:     uint32(4 * patchIndex),
			}
			for c := range patch.V {
				outPatch.V[c] = patch.V[c] + geom.vertexOffset
			}
			out.Patches = append(out.Patches, outPatch)
			faceIDs[patchIndex] = float32(patchIndex)

			for i, tri := range patch.Tris {
				out.TriPatch[int(geom.triOffset)+tri] = patchOffset + int32(patchIndex)
				out.TriPatchUV[int(geom.triOffset)+tri] = patch.TriUV[i]
			}
		}
		geom.addAttribute(scene.AttrStdPtexFaceID, sc.appendFloats(scene.AttrElementFace, faceIDs...))
	}

	// Curves
	if len(mesh.Curves) != 0 {
		curveType := scene.PrimitiveCurveThick
		if mesh.RibbonCurves {
			curveType = scene.PrimitiveCurveRibbon
		}
		radiusScale := math32.Cbrt(math32.Abs(tfm.Det()))

		for curveIndex, curve := range mesh.Curves {
			firstKey := uint32(len(out.CurveKeys))
			for _, key := range curve.Keys {
				p := tfm.TransformPoint(key.Vec3())
				out.CurveKeys = append(out.CurveKeys, p.Vec4(key[3]*radiusScale))
			}
			out.Curves = append(out.Curves, scene.Curve{
				FirstKey: firstKey,
				NumKeys:  uint32(len(curve.Keys)),
				Shader:   uint32(curve.Shader),
			})

			prim := int32(geom.curveOffset) + int32(curveIndex)
			for seg := 0; seg < len(curve.Keys)-1; seg++ {
				k0 := out.CurveKeys[int(firstKey)+seg]
				k1 := out.CurveKeys[int(firstKey)+seg+1]
				bbox := input.ExpandBBox(input.EmptyBBox(), k0.Vec3(), k0[3])
				bbox = input.ExpandBBox(bbox, k1.Vec3(), k1[3])
				geom.prims = append(geom.prims, newPrimitive(scene.PackSegment(curveType, seg), prim, object, visibility, bbox))
			}
		}
	}

	// Corner attributes
	if len(mesh.UVs) != 0 {
		var uvs []types.Vec2
		for _, triUV := range mesh.UVs {
			uvs = append(uvs, triUV[:]...)
		}
		geom.addAttribute(scene.AttrStdUV, sc.appendFloat2(scene.AttrElementCorner, uvs...))
	}
	if len(mesh.Colors) != 0 {
		desc := scene.AttributeDescriptor{
			Offset:  int32(len(out.AttrUchar4)),
			Element: scene.AttrElementCornerByte,
			Type:    scene.AttrTypeUchar4,
		}
		for _, triColors := range mesh.Colors {
			out.AttrUchar4 = append(out.AttrUchar4, triColors[:]...)
		}
		geom.addAttribute(scene.AttrStdVertexColor, desc)
	}

	// Generated coordinates map the untransformed mesh bbox to the unit cube.
	if len(mesh.Verts) != 0 {
		bbox := mesh.BBox()
		size := bbox[1].Sub(bbox[0])
		generated := make([]types.Vec3, len(mesh.Verts))
		for index, v := range mesh.Verts {
			rel := v.Sub(bbox[0])
			for axis := 0; axis < 3; axis++ {
				if size[axis] > 0 {
					rel[axis] /= size[axis]
				}
			}
			generated[index] = rel
		}
		geom.addAttribute(scene.AttrStdGenerated, sc.appendFloat3(scene.AttrElementVertex, generated...))
	}

	return geom
}

func (g *geometry) addAttribute(std scene.AttributeStandard, desc scene.AttributeDescriptor) {
	g.attributes = append(g.attributes, scene.AttributeMapEntry{Std: std, Desc: desc})
}

func (sc *sceneCompiler) appendFloat(v float32) scene.AttributeDescriptor {
	return sc.appendFloats(scene.AttrElementObject, v)
}

func (sc *sceneCompiler) appendFloats(element scene.AttributeElement, values ...float32) scene.AttributeDescriptor {
	desc := scene.AttributeDescriptor{Offset: int32(len(sc.optimizedScene.AttrFloat)), Element: element, Type: scene.AttrTypeFloat}
	sc.optimizedScene.AttrFloat = append(sc.optimizedScene.AttrFloat, values...)
	return desc
}

func (sc *sceneCompiler) appendFloat2(element scene.AttributeElement, values ...types.Vec2) scene.AttributeDescriptor {
	desc := scene.AttributeDescriptor{Offset: int32(len(sc.optimizedScene.AttrFloat2)), Element: element, Type: scene.AttrTypeFloat2}
	sc.optimizedScene.AttrFloat2 = append(sc.optimizedScene.AttrFloat2, values...)
	return desc
}

func (sc *sceneCompiler) appendFloat3(element scene.AttributeElement, values ...types.Vec3) scene.AttributeDescriptor {
	desc := scene.AttributeDescriptor{Offset: int32(len(sc.optimizedScene.AttrFloat3)), Element: element, Type: scene.AttrTypeFloat3}
	sc.optimizedScene.AttrFloat3 = append(sc.optimizedScene.AttrFloat3, values...)
	return desc
}

// Calculate area weighted vertex normals.
func vertexNormals(verts []types.Vec3, tris []input.Triangle) []types.Vec3 {
	normals := make([]types.Vec3, len(verts))
	for _, tri := range tris {
		v0, v1, v2 := verts[tri.V[0]], verts[tri.V[1]], verts[tri.V[2]]
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, v := range tri.V {
			normals[v] = normals[v].Add(n)
		}
	}
	for index := range normals {
		normals[index] = normals[index].Normalize()
	}
	return normals
}

// Build the emissive triangle distribution. Each object contributes its
// emissive triangles in world space.
func (sc *sceneCompiler) setupLights() {
	out := sc.optimizedScene

	var totalArea float32
	for objIndex := range out.Objects {
		obj := &out.Objects[objIndex]
		tfm := types.Ident4()
		if obj.Flags&scene.ObjectTransformApplied == 0 {
			tfm = obj.Transform
		}

		mesh := sc.parsedScene.Meshes[sc.parsedScene.Objects[objIndex].MeshIndex]
		for tri := obj.TriOffset; tri < obj.TriOffset+uint32(len(mesh.Triangles)); tri++ {
			shader, _ := out.TriShaderID(int32(tri))
			if out.Shaders[shader].Flags&scene.ShaderHasEmission == 0 {
				continue
			}

			v0, v1, v2 := out.TriVertices(int32(tri))
			v0, v1, v2 = tfm.TransformPoint(v0), tfm.TransformPoint(v1), tfm.TransformPoint(v2)
			area := 0.5 * v1.Sub(v0).Cross(v2.Sub(v0)).Len()
			if area == 0 {
				continue
			}

			obj.EmissiveArea += area
			totalArea += area
			out.Lights = append(out.Lights, scene.LightDistribution{
				CDF:    totalArea,
				Prim:   int32(tri),
				Object: int32(objIndex),
			})
		}
	}

	if len(out.Lights) == 0 {
		sc.logger.Warning("the scene contains no emissive triangles")
		return
	}

	for index := range out.Lights {
		out.Lights[index].CDF /= totalArea
	}
	out.Lights[len(out.Lights)-1].CDF = 1
	out.Kernel.PdfTriangles = 1 / totalArea

	sc.logger.Infof("emitted %d emissive triangles (total area %.3f)", len(out.Lights), totalArea)
}

// Initialize and position the camera for the scene.
func (sc *sceneCompiler) setupCamera() {
	if sc.parsedScene.Camera == nil {
		return
	}

	sc.optimizedScene.Camera = scene.NewCamera(sc.parsedScene.Camera.FOV)
	sc.optimizedScene.Camera.Position = sc.parsedScene.Camera.Eye
	sc.optimizedScene.Camera.LookAt = sc.parsedScene.Camera.Look
	sc.optimizedScene.Camera.Up = sc.parsedScene.Camera.Up
}
