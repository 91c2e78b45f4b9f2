package reader

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/raykernel/asset"
	"github.com/achilleasa/raykernel/asset/compiler"
	"github.com/achilleasa/raykernel/asset/compiler/input"
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/log"
	"github.com/achilleasa/raykernel/types"
)

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color.
	Kd types.Vec3

	// Emissive color and scaler.
	Ke       types.Vec3
	KeScaler float32

	// Transmission filter and dissolve factor.
	Tf types.Vec3
	D  float32

	// True if this material is used by at least one primitive.
	Used bool
}

// Convert material to a scene shader.
func (wf *wavefrontMaterial) shader() *input.Shader {
	emission := wf.Ke
	if wf.KeScaler != 0 {
		emission = emission.Mul(wf.KeScaler)
	}

	filter := wf.Tf
	if filter.IsZero() {
		filter = types.XYZ(1, 1, 1)
	}

	return &input.Shader{
		Name:         wf.Name,
		Albedo:       wf.Kd,
		Emission:     emission,
		Transparency: filter.Mul(1 - wf.D),
		Used:         wf.Used,
	}
}

// Vertex position and normal index pair used to share mesh vertices between
// faces.
type vertexKey struct {
	v, n int
}

// Per mesh parser state.
type meshBuilder struct {
	mesh *input.Mesh

	vertexMap     map[vertexKey]uint32
	missingNormal []bool
	hasNormals    bool
	hasUVs        bool
}

type wavefrontSceneReader struct {
	logger log.Logger
	opts   compiler.Options

	// The parsed scene.
	rawScene *input.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial int

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// Material used for rays escaping the scene or -1.
	background int

	// Smoothing group state.
	smooth bool

	// The mesh receiving parsed faces.
	curMesh *meshBuilder

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader(opts compiler.Options) *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		opts:           opts,
		rawScene:       input.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		curMaterial:    -1,
		background:     -1,
		vertexList:     make([]types.Vec3, 0),
		normalList:     make([]types.Vec3, 0),
		uvList:         make([]types.Vec2, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition and compile it.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	rawScene, err := r.ReadRaw(sceneRes)
	if err != nil {
		return nil, err
	}

	return compiler.Compile(rawScene, r.opts)
}

// Parse scene definition without compiling it.
func (r *wavefrontSceneReader) ReadRaw(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// If no objects are defined, place each mesh with an identity transform
	if len(r.rawScene.Objects) == 0 {
		r.createDefaultObjects()
	}

	r.processMaterials()

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return r.rawScene, nil
}

// Generate scene shaders for material entries that are in use and update the
// shader indices of all parsed triangles.
func (r *wavefrontSceneReader) processMaterials() {
	if r.background >= 0 {
		r.materials[r.background].Used = true
	}

	wfMaterialToShader := make(map[int]int, 0)
	pruned := 0
	for wfIndex, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			pruned++
			continue
		}

		r.rawScene.Shaders = append(r.rawScene.Shaders, wfMat.shader())
		wfMaterialToShader[wfIndex] = len(r.rawScene.Shaders) - 1
	}

	for _, mesh := range r.rawScene.Meshes {
		for triIndex := range mesh.Triangles {
			mesh.Triangles[triIndex].Shader = wfMaterialToShader[mesh.Triangles[triIndex].Shader]
		}
	}

	if r.background >= 0 {
		r.rawScene.Background = wfMaterialToShader[r.background]
	}

	if pruned > 0 {
		r.logger.Noticef("pruned %d unused materials", pruned)
	}
}

// Generate an object with an identity transformation for each defined mesh.
func (r *wavefrontSceneReader) createDefaultObjects() {
	for meshIndex, mesh := range r.rawScene.Meshes {
		r.rawScene.Objects = append(r.rawScene.Objects, &input.Object{
			Name:      mesh.Name,
			MeshIndex: uint32(meshIndex),
			Transform: types.Ident4(),
		})
	}
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select a default material for surfaces not using one.
func (r *wavefrontSceneReader) defaultMaterial() int {
	matIndex, exists := r.matNameToIndex[""]
	if !exists {
		r.materials = append(r.materials, &wavefrontMaterial{Name: "default", Kd: types.Vec3{0.7, 0.7, 0.7}, D: 1})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[""] = matIndex
	}
	return matIndex
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matIndex, exists := r.matNameToIndex[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = matIndex
		case "background":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "background"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matIndex, exists := r.matNameToIndex[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.background = matIndex
		case "s":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "s"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			r.smooth = lineTokens[1] != "off" && lineTokens[1] != "0"
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.finishMesh()
			r.startMesh(lineTokens[1])
		case "f":
			// If no object has been defined create a default one
			if r.curMesh == nil {
				r.startMesh("default")
			}

			err = r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_fov":
			r.rawScene.Camera.FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_eye":
			r.rawScene.Camera.Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_look":
			r.rawScene.Camera.Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_up":
			r.rawScene.Camera.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "instance":
			r.finishMesh()
			obj, err := r.parseInstance(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.rawScene.Objects = append(r.rawScene.Objects, obj)
		case "motion":
			if len(r.rawScene.Objects) == 0 {
				return r.emitError(res.Path(), lineNum, `got "motion" without an "instance"`)
			}
			tfm, err := parseTransform(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			obj := r.rawScene.Objects[len(r.rawScene.Objects)-1]
			obj.Motion = append(obj.Motion, tfm)
		}
	}

	r.finishMesh()
	return nil
}

// Begin collecting faces into a new mesh.
func (r *wavefrontSceneReader) startMesh(name string) {
	r.curMesh = &meshBuilder{
		mesh:      input.NewMesh(name),
		vertexMap: make(map[vertexKey]uint32),
	}
}

// Append the current mesh to the scene. Meshes without faces are dropped.
func (r *wavefrontSceneReader) finishMesh() {
	mb := r.curMesh
	if mb == nil {
		return
	}
	r.curMesh = nil

	mesh := mb.mesh
	if len(mesh.Triangles) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, mesh.Name)
		return
	}

	if !mb.hasUVs {
		mesh.UVs = nil
	}

	if !mb.hasNormals {
		mesh.Normals = nil
	} else {
		fillMissingNormals(mesh, mb.missingNormal)
	}

	mesh.MarkBBoxDirty()
	r.rawScene.Meshes = append(r.rawScene.Meshes, mesh)
}

// Replace normals of vertices that were referenced without one by the area
// weighted normal of their faces.
func fillMissingNormals(mesh *input.Mesh, missing []bool) {
	for _, tri := range mesh.Triangles {
		v0, v1, v2 := mesh.Verts[tri.V[0]], mesh.Verts[tri.V[1]], mesh.Verts[tri.V[2]]
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, vi := range tri.V {
			if missing[vi] {
				mesh.Normals[vi] = mesh.Normals[vi].Add(n)
			}
		}
	}
	for vi, isMissing := range missing {
		if isMissing {
			mesh.Normals[vi] = mesh.Normals[vi].Normalize()
		}
	}
}

// Parse an object placement. Definitions use the following format:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ [visibility...]
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ       : scale
// - visibility       : optional list of ray types that can see the object
func (r *wavefrontSceneReader) parseInstance(lineTokens []string) (*input.Object, error) {
	if len(lineTokens) < 11 {
		return nil, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	meshName := lineTokens[1]
	meshIndex := -1
	for index, mesh := range r.rawScene.Meshes {
		if mesh.Name == meshName {
			meshIndex = index
			break
		}
	}

	if meshIndex == -1 {
		return nil, fmt.Errorf(`unknown mesh with name "%s"`, meshName)
	}

	tfm, err := parseTransform(lineTokens[:11])
	if err != nil {
		return nil, err
	}

	var visibility scene.Visibility
	for _, name := range lineTokens[11:] {
		flag, err := parseVisibility(name)
		if err != nil {
			return nil, err
		}
		visibility |= flag
	}

	return &input.Object{
		Name:       fmt.Sprintf("%s.%d", meshName, len(r.rawScene.Objects)),
		MeshIndex:  uint32(meshIndex),
		Transform:  tfm,
		Visibility: visibility,
	}, nil
}

// Parse a transformation from tokens [cmd tX tY tZ yaw pitch roll sX sY sZ]
// skipping the first argument of "instance" lines. The result is M = T * R * S.
func parseTransform(lineTokens []string) (types.Mat4, error) {
	args := lineTokens[1:]
	if lineTokens[0] == "instance" && len(args) > 0 {
		args = args[1:]
	}
	if len(args) != 9 {
		return types.Mat4{}, fmt.Errorf(`unsupported syntax for "%s"; expected 9 transformation arguments: tX tY tZ yaw pitch roll sX sY sZ; got %d`, lineTokens[0], len(args))
	}

	var values [9]float32
	for index, tok := range args {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return types.Mat4{}, err
		}
		values[index] = float32(v)
	}

	translation := types.Vec3{values[0], values[1], values[2]}
	scale := types.Vec3{values[6], values[7], values[8]}
	toRad := float32(math.Pi / 180.0)

	yawQuat := types.QuatFromAxisAngle(types.Vec3{1, 0, 0}, values[3]*toRad)
	pitchQuat := types.QuatFromAxisAngle(types.Vec3{0, 1, 0}, values[4]*toRad)
	rollQuat := types.QuatFromAxisAngle(types.Vec3{0, 0, 1}, values[5]*toRad)
	rotMat := rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize().Mat4()

	return types.Translate4(translation).Mul4(rotMat.Mul4(types.Scale4(scale))), nil
}

// Map a ray type name to a visibility flag.
func parseVisibility(name string) (scene.Visibility, error) {
	switch name {
	case "camera":
		return scene.VisibilityCamera, nil
	case "diffuse":
		return scene.VisibilityDiffuse, nil
	case "glossy":
		return scene.VisibilityGlossy, nil
	case "transmit":
		return scene.VisibilityTransmit, nil
	case "shadow":
		return scene.VisibilityShadow, nil
	case "scatter":
		return scene.VisibilityScatter, nil
	}
	return 0, fmt.Errorf(`unknown visibility "%s"`, name)
}

// Parse face definition. Each face definitions consists of 3 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// This method only works with triangular/quad faces and will return an error if a
// face with more than 4 vertices is encountered.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	mb := r.curMesh
	var meshVerts [4]uint32
	var uv [4]types.Vec2
	hasUVs := false
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := vertexKey{v: -1, n: -1}
		var err error
		key.v, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		if expIndices > 1 && vTokens[1] != "" {
			uvIndex, err := selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uv[arg] = r.uvList[uvIndex]
			hasUVs = true
		}

		if expIndices > 2 && vTokens[2] != "" {
			key.n, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}

		meshVerts[arg] = r.meshVertex(mb, key)
	}

	// If no material defined select the default. Also flag the current material
	// as being in use so we don't prune it later.
	if r.curMaterial < 0 {
		r.curMaterial = r.defaultMaterial()
	}
	r.materials[r.curMaterial].Used = true

	// Assemble one or two triangles depending on whether we are parsing a triangular or a quad face
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	mesh := mb.mesh
	for _, indices := range indiceList {
		tri := input.Triangle{Shader: r.curMaterial, Smooth: r.smooth}
		var triUV [3]types.Vec2
		for triIndex, selectIndex := range indices {
			tri.V[triIndex] = meshVerts[selectIndex]
			triUV[triIndex] = uv[selectIndex]
		}
		mesh.Triangles = append(mesh.Triangles, tri)
		mesh.UVs = append(mesh.UVs, triUV)
	}
	mb.hasUVs = mb.hasUVs || hasUVs

	return nil
}

// Get the mesh vertex for a position/normal pair, appending it if needed.
func (r *wavefrontSceneReader) meshVertex(mb *meshBuilder, key vertexKey) uint32 {
	if index, exists := mb.vertexMap[key]; exists {
		return index
	}

	mesh := mb.mesh
	index := uint32(len(mesh.Verts))
	mesh.Verts = append(mesh.Verts, r.vertexList[key.v])
	if key.n >= 0 {
		mesh.Normals = append(mesh.Normals, r.normalList[key.n])
		mb.hasNormals = true
	} else {
		mesh.Normals = append(mesh.Normals, types.Vec3{})
	}
	mb.missingNormal = append(mb.missingNormal, key.n < 0)
	mb.vertexMap[key] = index
	return index
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &wavefrontMaterial{Name: matName, D: 1}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial = *r.materials[baseMaterialIndex]
				curMaterial.Name = matName
				curMaterial.Used = false
			case "Kd":
				curMaterial.Kd, err = parseVec3(lineTokens)
			case "Ke":
				curMaterial.Ke, err = parseVec3(lineTokens)
			case "Tf":
				curMaterial.Tf, err = parseVec3(lineTokens)
			case "d":
				curMaterial.D, err = parseFloat32(lineTokens)
			case "Tr":
				var tr float32
				tr, err = parseFloat32(lineTokens)
				curMaterial.D = 1 - tr
			case "KeScaler":
				curMaterial.KeScaler, err = parseFloat32(lineTokens)
			default:
				r.logger.Debugf(`ignoring unsupported material property "%s"`, lineTokens[0])
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
