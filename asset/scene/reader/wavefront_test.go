package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/achilleasa/raykernel/asset"
	"github.com/achilleasa/raykernel/asset/compiler"
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("embedded", strings.NewReader(payload))
}

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"v", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec2Parser(t *testing.T) {
	expError := `unsupported syntax for "vt"; expected 2 arguments; got 0`
	_, err := parseVec2([]string{"vt"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec2([]string{"vt", "not-a-float", "2"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec2([]string{"vt", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""}, // included files are relative to their first vertex
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{
			"v 0 0 0\nv 1 0 0\nf 1 2",
			`[embedded: 3] error: unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got 2. Select the triangulation option in your exporter`,
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4",
			"[embedded: 4] error: could not parse vertex coord for face argument 2: index out of bounds",
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2 3",
			"[embedded: 5] error: expected each face argument to contain 2 indices; arg 1 contains 1 indices",
		},
		{
			"usemtl missing",
			`[embedded: 1] error: undefined material with name "missing"`,
		},
		{
			"instance missing 0 0 0 0 0 0 1 1 1",
			`[embedded: 1] error: unknown mesh with name "missing"`,
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\no tri\nf 1 2 3\ninstance tri 0 0 0 0 0 0 1 1 1 xray",
			`[embedded: 6] error: unknown visibility "xray"`,
		},
		{
			"motion 0 0 0 0 0 0 1 1 1",
			`[embedded: 1] error: got "motion" without an "instance"`,
		},
		{
			"o",
			`[embedded: 1] error: unsupported syntax for "o"; expected 1 argument for object name; got 0`,
		},
	}

	for specIndex, spec := range specs {
		err := newWavefrontReader(compiler.Options{}).parse(mockResource(spec.payload))
		if err == nil || err.Error() != spec.expError {
			t.Fatalf("[spec %d] expected to get error:\n%s\ngot:\n%v", specIndex, spec.expError, err)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`

	r := newWavefrontReader(compiler.Options{})
	raw, err := r.ReadRaw(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(raw.Meshes) != 1 {
		t.Fatalf("expected 1 mesh to be parsed; got %d", len(raw.Meshes))
	}

	mesh0 := raw.Meshes[0]
	if mesh0.Name != "testObj" {
		t.Fatalf("expected mesh[0] name to be 'testObj'; got %s", mesh0.Name)
	}
	if len(mesh0.Triangles) != 1 {
		t.Fatalf("expected mesh[0] to contain 1 triangle; got %d", len(mesh0.Triangles))
	}
	if len(raw.Shaders) != 1 || raw.Shaders[0].Name != "default" {
		t.Fatalf("expected scene to contain the default shader; got %d shaders", len(raw.Shaders))
	}

	expPoints := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	expNormals := []types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	expUVs := [3]types.Vec2{{0, 0}, {0, 1}, {1, 0}}
	tri := mesh0.Triangles[0]
	for idx, exp := range expPoints {
		if got := mesh0.Verts[tri.V[idx]]; got != exp {
			t.Fatalf("expected vertex %d to be %v; got %v", idx, exp, got)
		}
		if got := mesh0.Normals[tri.V[idx]]; got != expNormals[idx] {
			t.Fatalf("expected normal %d to be %v; got %v", idx, expNormals[idx], got)
		}
	}
	if mesh0.UVs[0] != expUVs {
		t.Fatalf("expected uvs to be %v; got %v", expUVs, mesh0.UVs[0])
	}

	// A default object is generated for the mesh
	if len(raw.Objects) != 1 {
		t.Fatalf("expected 1 default object; got %d", len(raw.Objects))
	}
	if !raw.Objects[0].Transform.IsIdentity() {
		t.Fatalf("expected default object transform to be identity; got %v", raw.Objects[0].Transform)
	}

	expBBox := [2]types.Vec3{{0, 0, 0}, {1, 1, 0}}
	if bbox := mesh0.BBox(); bbox != expBBox {
		t.Fatalf("expected bbox to be %v; got %v", expBBox, bbox)
	}
}

func TestQuadFacesShareVertices(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
s 1
f 1 3 4
`

	raw, err := newWavefrontReader(compiler.Options{}).ReadRaw(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	mesh := raw.Meshes[0]
	if mesh.Name != "default" {
		t.Fatalf("expected faces without an object to go into the default mesh; got %q", mesh.Name)
	}
	if len(mesh.Triangles) != 3 {
		t.Fatalf("expected quad to be split into 2 triangles plus 1; got %d", len(mesh.Triangles))
	}
	if len(mesh.Verts) != 4 {
		t.Fatalf("expected faces to share 4 vertices; got %d", len(mesh.Verts))
	}
	if mesh.Normals != nil || mesh.UVs != nil {
		t.Fatal("expected normals and uvs to be omitted when not specified")
	}

	expSmooth := []bool{false, false, true}
	for triIndex, exp := range expSmooth {
		if mesh.Triangles[triIndex].Smooth != exp {
			t.Fatalf("expected triangle %d smooth flag to be %t", triIndex, exp)
		}
	}
	if mesh.Triangles[1].V != [3]uint32{0, 2, 3} {
		t.Fatalf("expected second quad triangle to use vertices 0, 2, 3; got %v", mesh.Triangles[1].V)
	}
}

func TestMissingNormalsAreFilled(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
vn 0 0 1
f 1//1 2//1 3//1
f 1 4 2
`

	raw, err := newWavefrontReader(compiler.Options{}).ReadRaw(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	mesh := raw.Meshes[0]
	if len(mesh.Normals) != len(mesh.Verts) {
		t.Fatalf("expected %d normals; got %d", len(mesh.Verts), len(mesh.Normals))
	}

	// Positions referenced with and without a normal become separate vertices.
	if len(mesh.Verts) != 6 {
		t.Fatalf("expected 6 mesh vertices; got %d", len(mesh.Verts))
	}
	for _, vi := range mesh.Triangles[0].V {
		if mesh.Normals[vi] != (types.Vec3{0, 0, 1}) {
			t.Fatalf("expected explicit normal to be kept; got %v", mesh.Normals[vi])
		}
	}
	for _, vi := range mesh.Triangles[1].V {
		assert.InDelta(t, 1, mesh.Normals[vi][1], 1e-5)
	}
}

func TestInstances(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
# Objects
instance testObj 	1 0 1	0 0 0 	1 1 1
instance testObj 	0 0 0	0 90 0 	1 1 1	camera shadow
instance testObj 	0 1 0	90 0 0	10 10 10
motion 0 2 0 90 0 0 10 10 10
motion 0 3 0 90 0 0 10 10 10
`

	raw, err := newWavefrontReader(compiler.Options{}).ReadRaw(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(raw.Objects) != 3 {
		t.Fatalf("expected 3 objects; got %d", len(raw.Objects))
	}

	type spec struct {
		object     int
		in, expOut types.Vec3
	}
	specs := []spec{
		{0, types.Vec3{0, 0, 0}, types.Vec3{1, 0, 1}},
		{0, types.Vec3{-1, 0, -1}, types.Vec3{0, 0, 0}},
		{1, types.Vec3{1, 0, 0}, types.Vec3{0, 0, -1}},
		{1, types.Vec3{0, 0, -1}, types.Vec3{-1, 0, 0}},
		{2, types.Vec3{0, 1, 0}, types.Vec3{0, 1, 10}},
	}
	for idx, s := range specs {
		out := raw.Objects[s.object].Transform.TransformPoint(s.in)
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, s.expOut[axis], out[axis], 1e-4, "spec %d", idx)
		}
	}

	expVisibility := scene.VisibilityCamera | scene.VisibilityShadow
	if raw.Objects[1].Visibility != expVisibility {
		t.Fatalf("expected object 1 visibility to be %d; got %d", expVisibility, raw.Objects[1].Visibility)
	}
	if raw.Objects[0].Visibility != 0 {
		t.Fatalf("expected object 0 to be visible to all rays; got %d", raw.Objects[0].Visibility)
	}
	if len(raw.Objects[2].Motion) != 2 {
		t.Fatalf("expected object 2 to have 2 motion transforms; got %d", len(raw.Objects[2].Motion))
	}
	assert.InDelta(t, 3, raw.Objects[2].Motion[1].TransformPoint(types.Vec3{})[1], 1e-5)
}

func TestMaterialLoaderMissingNewMaterialCommand(t *testing.T) {
	payload := `Kd 1.0 1.0 1.0`
	err := newWavefrontReader(compiler.Options{}).parseMaterials(mockResource(payload))

	expError := `[embedded: 1] error: got "Kd" without a "newmtl"`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderInvalidVec3Param(t *testing.T) {
	payload := `
	newmtl foo
	Kd 1.0`
	err := newWavefrontReader(compiler.Options{}).parseMaterials(mockResource(payload))

	expError := `[embedded: 3] error: unsupported syntax for "Kd"; expected 3 arguments; got 1`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderDuplicateMaterial(t *testing.T) {
	payload := `
newmtl foo
newmtl foo`
	err := newWavefrontReader(compiler.Options{}).parseMaterials(mockResource(payload))

	expError := `[embedded: 3] error: material "foo" already defined`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderSuccess(t *testing.T) {
	payload := `
	# comment
	newmtl foo
	Kd 1.0 1.0 1.0
	Ke 0.4    0.5 0.6
	KeScaler 2
	Tr 0.25
	Ni 2.5
	newmtl bar
	include foo
	Kd 0.5 0.5 0.5
	d 1`
	r := newWavefrontReader(compiler.Options{})
	err := r.parseMaterials(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(r.materials) != 2 {
		t.Fatalf("expected to parse 2 materials; got %d", len(r.materials))
	}

	foo := r.materials[0].shader()
	if foo.Name != "foo" {
		t.Fatalf("expected material name to be 'foo'; got %s", foo.Name)
	}
	if foo.Albedo != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected albedo to be (1, 1, 1); got %v", foo.Albedo)
	}
	assert.InDelta(t, 0.8, foo.Emission[0], 1e-5)
	assert.InDelta(t, 1.2, foo.Emission[2], 1e-5)
	assert.InDelta(t, 0.25, foo.Transparency[1], 1e-5)

	bar := r.materials[1].shader()
	if bar.Name != "bar" {
		t.Fatalf("expected included material to keep its name; got %s", bar.Name)
	}
	if !bar.Transparency.IsZero() {
		t.Fatalf("expected opaque material; got transparency %v", bar.Transparency)
	}
	if bar.Emission.IsZero() {
		t.Fatal("expected included material to inherit emission")
	}
}

func TestReadCompiledScene(t *testing.T) {
	dir := t.TempDir()
	mtl := `
newmtl light
Ke 1 1 1
newmtl sky
Kd 0.2 0.3 0.8
newmtl unused
Kd 1 0 0
`
	obj := `
mtllib scene.mtl
background sky
camera_eye 0 0 5
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
o quad
usemtl light
f 1 2 3 4
`
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.obj"), []byte(obj), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"), compiler.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Shaders) != 2 {
		t.Fatalf("expected unused material to be pruned leaving 2 shaders; got %d", len(sc.Shaders))
	}
	if bg := sc.Kernel.BackgroundShader; bg < 0 || sc.Shaders[bg].Name != "sky" {
		t.Fatalf("expected background shader to be sky; got %d", bg)
	}
	if len(sc.Lights) != 2 {
		t.Fatalf("expected 2 emissive triangles; got %d", len(sc.Lights))
	}
	assert.InDelta(t, 0.25, sc.Kernel.PdfTriangles, 1e-5)
	if sc.Camera.Position != (types.Vec3{0, 0, 5}) {
		t.Fatalf("expected camera position (0, 0, 5); got %v", sc.Camera.Position)
	}

	_, err = ReadScene(filepath.Join(dir, "scene.mtl"), compiler.Options{})
	expError := `readScene: unsupported file format ".mtl"`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error %s; got %v", expError, err)
	}
}

func TestIncludeErrorStack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.mtl"), []byte("newmtl foo\nKd 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.obj"), []byte("\nmtllib bad.mtl"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadScene(filepath.Join(dir, "scene.obj"), compiler.Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected error to include the include stack; got %q", err.Error())
	}
	if !strings.HasSuffix(lines[1], "scene.obj:2 [mtllib]") {
		t.Fatalf("expected include frame to reference scene.obj:2; got %q", lines[1])
	}
}
