package cpu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/raykernel/asset/compiler"
	"github.com/achilleasa/raykernel/asset/compiler/input"
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/types"
)

const testFrameSize = 33

// A 2x2 slab at the origin lit by a small emissive quad hovering over
// (2, 2, 0). An optional blocker quad at y=1 sits between the slab center
// and the light. The camera looks straight down at the slab.
func testScene(t *testing.T, blocker *input.Shader) *scene.Scene {
	slab := input.NewMesh("slab")
	slab.Verts = []types.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1},
		{-1, -0.25, -1}, {1, -0.25, -1}, {1, -0.25, 1}, {-1, -0.25, 1},
	}
	slab.Triangles = []input.Triangle{
		{V: [3]uint32{0, 2, 1}},
		{V: [3]uint32{0, 3, 2}},
		{V: [3]uint32{4, 5, 6}},
		{V: [3]uint32{4, 6, 7}},
	}
	slab.UVs = [][3]types.Vec2{
		{{0, 0}, {1, 1}, {1, 0}},
		{{0, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {1, 1}},
		{{0, 0}, {1, 1}, {0, 1}},
	}

	lamp := input.NewMesh("lamp")
	lamp.Verts = []types.Vec3{{1.5, 2, -0.5}, {2.5, 2, -0.5}, {2.5, 2, 0.5}, {1.5, 2, 0.5}}
	lamp.Triangles = []input.Triangle{
		{V: [3]uint32{0, 1, 2}, Shader: 1},
		{V: [3]uint32{0, 2, 3}, Shader: 1},
	}

	in := input.NewScene()
	in.Meshes = append(in.Meshes, slab, lamp)
	in.Shaders = append(in.Shaders,
		&input.Shader{Name: "floor", Albedo: types.XYZ(0.5, 0.5, 0.5)},
		&input.Shader{Name: "light", Emission: types.XYZ(4, 4, 4)},
	)
	in.Objects = append(in.Objects,
		&input.Object{Name: "slab", MeshIndex: 0, Transform: types.Ident4()},
		&input.Object{Name: "lamp", MeshIndex: 1, Transform: types.Ident4()},
	)

	if blocker != nil {
		block := input.NewMesh("blocker")
		block.Verts = []types.Vec3{{0.5, 1, -0.5}, {1.5, 1, -0.5}, {1.5, 1, 0.5}, {0.5, 1, 0.5}}
		block.Triangles = []input.Triangle{
			{V: [3]uint32{0, 1, 2}, Shader: 2},
			{V: [3]uint32{0, 2, 3}, Shader: 2},
		}
		in.Meshes = append(in.Meshes, block)
		in.Shaders = append(in.Shaders, blocker)
		in.Objects = append(in.Objects, &input.Object{Name: "blocker", MeshIndex: 2, Transform: types.Ident4()})
	}

	in.Camera = &input.Camera{
		FOV:  45,
		Eye:  types.XYZ(0, 4, 0),
		Look: types.XYZ(0, 0, 0),
		Up:   types.XYZ(0, 0, -1),
	}

	sc, err := compiler.Compile(in, compiler.Options{})
	require.NoError(t, err)
	sc.Camera.SetupProjection(1)
	return sc
}

func renderFrame(t *testing.T, tr *Tracer, film *tracer.Film, divider, sample, numSamples int) {
	passSize := testFrameSize / divider
	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.TileRequest{
		Tile:              tracer.Tile{Index: 3, W: passSize, H: passSize},
		Sample:            sample,
		NumSamples:        numSamples,
		ResolutionDivider: divider,
		Buffer:            tracer.BufferParams{Width: passSize, Height: passSize},
		Seed:              42,
		DoneChan:          doneChan,
		ErrChan:           errChan,
	})

	select {
	case index := <-doneChan:
		require.Equal(t, 3, index)
	case err := <-errChan:
		t.Fatal(err)
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for tile")
	}
}

func render(t *testing.T, sc *scene.Scene, opts Options, numSamples int) (*tracer.Film, *tracer.Stats) {
	tr, err := NewTracer("test", opts)
	require.NoError(t, err)
	defer tr.Close()

	film := tracer.NewFilm(testFrameSize, testFrameSize)
	require.NoError(t, tr.Init(film))
	tr.Update(tracer.UpdateScene, sc)

	renderFrame(t, tr, film, 1, 0, numSamples)
	stats := *tr.Stats()
	return film, &stats
}

func assertVec3(t *testing.T, exp, got types.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, exp[i], got[i], delta, "component %d of %v", i, got)
	}
}

const center = testFrameSize / 2

func TestNormalsIntegrator(t *testing.T) {
	film, stats := render(t, testScene(t, nil), Options{Mode: Normals}, 1)

	assertVec3(t, types.XYZ(0.5, 1, 0.5), film.Radiance(center, center), 1e-3)
	assertVec3(t, types.Vec3{}, film.Radiance(0, 0), 0)

	c := film.Frame.RGBAAt(center, center)
	if c.A != 255 || c.G <= c.R {
		t.Fatalf("expected tonemapped normal to be dominated by green; got %v", c)
	}

	if stats.Tiles != 1 || stats.Pixels != testFrameSize*testFrameSize || stats.BlockH != testFrameSize {
		t.Fatalf("expected stats for 1 full frame tile; got %+v", stats)
	}
	if stats.CameraRays != testFrameSize*testFrameSize || stats.Samples != testFrameSize*testFrameSize {
		t.Fatalf("expected one camera ray per pixel; got %d rays and %d samples", stats.CameraRays, stats.Samples)
	}
}

func TestDepthIntegrator(t *testing.T) {
	film, _ := render(t, testScene(t, nil), Options{Mode: Depth}, 1)
	assertVec3(t, types.XYZ(0.2, 0.2, 0.2), film.Radiance(center, center), 1e-3)
}

func TestUVIntegrator(t *testing.T) {
	film, _ := render(t, testScene(t, nil), Options{Mode: UV}, 1)
	assertVec3(t, types.XYZ(0.5, 0.5, 0), film.Radiance(center, center), 0.03)
	assertVec3(t, types.Vec3{}, film.Radiance(0, 0), 0)
}

func TestDirectLightIntegrator(t *testing.T) {
	opts := Options{Mode: DirectLight, MaxShadowHits: 4}

	open, stats := render(t, testScene(t, nil), opts, 16)
	openL := open.Radiance(center, center)
	if openL[0] < 0.01 || openL[0] > 0.1 {
		t.Fatalf("expected unoccluded radiance in (0.01, 0.1); got %v", openL)
	}
	if stats.ShadowRays == 0 {
		t.Fatal("expected shadow rays to be traced")
	}

	opaque, _ := render(t, testScene(t, &input.Shader{Name: "wall"}), opts, 16)
	assertVec3(t, types.Vec3{}, opaque.Radiance(center, center), 0)

	glass, _ := render(t, testScene(t, &input.Shader{Name: "glass", Transparency: types.XYZ(0.5, 0.5, 0.5)}), opts, 16)
	assertVec3(t, openL.Mul(0.5), glass.Radiance(center, center), 1e-6)

	// Without room for transparent hits the glass blocks the light.
	opts.MaxShadowHits = 0
	blocked, _ := render(t, testScene(t, &input.Shader{Name: "glass", Transparency: types.XYZ(0.5, 0.5, 0.5)}), opts, 16)
	assertVec3(t, types.Vec3{}, blocked.Radiance(center, center), 0)
}

func TestAmbientOcclusionIntegrator(t *testing.T) {
	film, _ := render(t, testScene(t, nil), Options{Mode: AmbientOcclusion, AODistance: 0.5}, 4)
	assertVec3(t, types.XYZ(1, 1, 1), film.Radiance(center, center), 0)
}

func TestThicknessIntegrator(t *testing.T) {
	film, stats := render(t, testScene(t, nil), Options{Mode: Thickness}, 1)
	assertVec3(t, types.XYZ(0.2212, 0.2212, 0.2212), film.Radiance(center, center), 1e-3)
	if stats.LocalRays == 0 {
		t.Fatal("expected local rays to be traced")
	}
}

func TestReducedResolutionPass(t *testing.T) {
	tr, err := NewTracer("test", Options{Mode: Depth})
	require.NoError(t, err)
	defer tr.Close()

	film := tracer.NewFilm(testFrameSize, testFrameSize)
	require.NoError(t, tr.Init(film))
	tr.Update(tracer.UpdateScene, testScene(t, nil))

	renderFrame(t, tr, film, 4, 0, 1)
	for y := 0; y < testFrameSize; y++ {
		for x := 0; x < testFrameSize; x++ {
			if count := film.SampleCount(x, y); count != 1 {
				t.Fatalf("expected pixel (%d, %d) to be filled by the reduced pass; got %d samples", x, y, count)
			}
		}
	}

	// A new pass starting at sample 0 replaces the reduced resolution data.
	renderFrame(t, tr, film, 1, 0, 1)
	renderFrame(t, tr, film, 1, 1, 2)
	if count := film.SampleCount(center, center); count != 3 {
		t.Fatalf("expected 3 accumulated samples; got %d", count)
	}
}

func TestTracerErrors(t *testing.T) {
	if _, err := NewTracer("test", Options{Mode: Mode(99)}); err == nil {
		t.Fatal("expected an error for an unknown integrator")
	}

	tr, err := NewTracer("test", Options{})
	require.NoError(t, err)
	defer tr.Close()

	if err = tr.Init(nil); err != tracer.ErrNoFilm {
		t.Fatalf("expected ErrNoFilm; got %v", err)
	}
	film := tracer.NewFilm(4, 4)
	require.NoError(t, tr.Init(film))
	if err = tr.Init(film); err != ErrAlreadyAttached {
		t.Fatalf("expected ErrAlreadyAttached; got %v", err)
	}

	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.TileRequest{
		Tile:       tracer.Tile{W: 4, H: 4},
		NumSamples: 1,
		DoneChan:   doneChan,
		ErrChan:    errChan,
	})
	select {
	case <-doneChan:
		t.Fatal("expected render without a scene to fail")
	case err = <-errChan:
		if err != tracer.ErrNoSceneData {
			t.Fatalf("expected ErrNoSceneData; got %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for tile")
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{Normals, Depth, UV, DirectLight, AmbientOcclusion, Thickness} {
		parsed, err := ParseMode(mode.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != mode {
			t.Fatalf("expected to parse %s; got %s", mode, parsed)
		}
	}

	if _, err := ParseMode("pathtrace"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
