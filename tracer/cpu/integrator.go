package cpu

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/attribute"
	"github.com/achilleasa/raykernel/kernel/bvh"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/kernel/light"
	"github.com/achilleasa/raykernel/kernel/shader"
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/types"
)

// Mode selects the quantity that is integrated for each camera ray.
type Mode uint8

const (
	Normals Mode = iota
	Depth
	UV
	DirectLight
	AmbientOcclusion
	Thickness
)

var modeNames = []string{"normals", "depth", "uv", "direct", "ao", "thickness"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Parse an integrator mode name.
func ParseMode(name string) (Mode, error) {
	for index, modeName := range modeNames {
		if strings.EqualFold(name, modeName) {
			return Mode(index), nil
		}
	}
	return 0, fmt.Errorf("cpu tracer: unknown integrator %q; supported integrators: %s", name, strings.Join(modeNames, ", "))
}

// Offsets applied to secondary ray origins and cutoff distances to avoid
// self intersections.
const (
	rayOffsetEpsilon = 1e-4
	shadowEpsilon    = 1e-4
)

var missingUV = types.XYZ(1, 0, 1)

// The per worker state shared by all integrators.
type traceContext struct {
	sc        *scene.Scene
	traverser *bvh.Traverser
	interp    *attribute.Interpolator
	rng       *bvh.LCG
	sd        shader.ShaderData

	shadowHits []geom.Intersection
	opts       *Options
	stats      *tracer.Stats
}

func newTraceContext(sc *scene.Scene, opts *Options, stats *tracer.Stats) *traceContext {
	return &traceContext{
		sc:         sc,
		traverser:  bvh.NewTraverser(sc),
		interp:     attribute.NewInterpolator(sc, attribute.BilinearPatchEvaluator{}),
		rng:        bvh.NewLCG(0),
		shadowHits: make([]geom.Intersection, opts.MaxShadowHits),
		opts:       opts,
		stats:      stats,
	}
}

type integrator func(tc *traceContext, ray *geom.Ray) types.Vec3

func integratorFor(mode Mode) (integrator, error) {
	switch mode {
	case Normals:
		return integrateNormals, nil
	case Depth:
		return integrateDepth, nil
	case UV:
		return integrateUV, nil
	case DirectLight:
		return integrateDirectLight, nil
	case AmbientOcclusion:
		return integrateAO, nil
	case Thickness:
		return integrateThickness, nil
	}
	return nil, fmt.Errorf("cpu tracer: unsupported integrator %s", mode)
}

// Trace a camera ray and setup the shading point on hit.
func (tc *traceContext) shadeCameraRay(ray *geom.Ray) bool {
	tc.stats.CameraRays++
	isect, hit := tc.traverser.Closest(ray, scene.VisibilityCamera)
	if !hit {
		return false
	}
	shader.SetupFromRay(tc.sc, &tc.sd, &isect, ray)
	return true
}

func integrateNormals(tc *traceContext, ray *geom.Ray) types.Vec3 {
	if !tc.shadeCameraRay(ray) {
		return types.Vec3{}
	}
	return tc.sd.N.Mul(0.5).Add(types.XYZ(0.5, 0.5, 0.5))
}

func integrateDepth(tc *traceContext, ray *geom.Ray) types.Vec3 {
	if !tc.shadeCameraRay(ray) {
		return types.Vec3{}
	}
	d := 1 / (1 + tc.sd.RayLength)
	return types.XYZ(d, d, d)
}

func integrateUV(tc *traceContext, ray *geom.Ray) types.Vec3 {
	if !tc.shadeCameraRay(ray) {
		return types.Vec3{}
	}
	uv, ok := tc.interp.Lookup(&tc.sd, scene.AttrStdUV)
	if !ok {
		return missingUV
	}
	return types.XYZ(uv[0], uv[1], 0)
}

// Evaluate emission at the shading point plus a single light sample
// attenuated by transparent shadows. Rays leaving the scene pick up the
// background emission.
func integrateDirectLight(tc *traceContext, ray *geom.Ray) types.Vec3 {
	sd := &tc.sd
	if !tc.shadeCameraRay(ray) {
		shader.SetupFromBackground(tc.sc, sd, ray)
		return tc.emission(sd.Shader)
	}

	var out types.Vec3
	if sd.Flag&shader.FlagHasEmission != 0 && !sd.Backfacing() {
		out = tc.emission(sd.Shader)
	}

	if sd.Shader == scene.ShaderNone {
		return out
	}
	albedo := tc.sc.Shaders[sd.Shader].Albedo
	if albedo.IsZero() {
		return out
	}

	randl, randu, randv := tc.rng.Float32(), tc.rng.Float32(), tc.rng.Float32()
	ls, ok := light.SampleLights(tc.sc, randl, randu, randv, sd.Time, sd.P)
	if !ok {
		return out
	}

	// Triangle lights only emit from their front side.
	cosTheta := sd.N.Dot(ls.D)
	if cosTheta <= 0 || ls.Ng.Dot(ls.D) >= 0 {
		return out
	}

	transmittance, visible := tc.transmittance(sd, ls.D, ls.T)
	if !visible {
		return out
	}

	bsdf := albedo.Mul(1 / math32.Pi)
	contrib := tc.emission(ls.Shader).MulVec(bsdf).MulVec(transmittance).Mul(cosTheta * ls.EvalFac / ls.Pdf)
	return out.Add(contrib)
}

// Cosine weighted occlusion within Options.AODistance.
func integrateAO(tc *traceContext, ray *geom.Ray) types.Vec3 {
	sd := &tc.sd
	if !tc.shadeCameraRay(ray) {
		return types.Vec3{}
	}

	dir := cosineHemisphere(sd.N, tc.rng.Float32(), tc.rng.Float32())
	aoRay := geom.Ray{
		P:    offsetRayOrigin(sd.P, sd.Ng, dir),
		D:    dir,
		T:    tc.opts.AODistance,
		Time: sd.Time,
	}
	tc.stats.ShadowRays++
	if _, hit := tc.traverser.Closest(&aoRay, scene.VisibilityDiffuse); hit {
		return types.Vec3{}
	}
	return types.XYZ(1, 1, 1)
}

// Distance travelled inside the hit object along the inverted geometric
// normal, mapped to [0, 1). Open surfaces map to zero.
func integrateThickness(tc *traceContext, ray *geom.Ray) types.Vec3 {
	sd := &tc.sd
	if !tc.shadeCameraRay(ray) || sd.Object == scene.ObjectNone {
		return types.Vec3{}
	}

	dir := sd.Ng.Neg()
	probe := geom.Ray{
		P:    offsetRayOrigin(sd.P, sd.Ng, dir),
		D:    dir,
		T:    math32.MaxFloat32,
		Time: sd.Time,
	}
	tc.stats.LocalRays++
	local := tc.traverser.Local(&probe, sd.Object, 1, nil)
	if local.NumHits == 0 {
		return types.Vec3{}
	}

	// Local hit distances are measured in object space.
	t := local.Hits[0].T
	if xform := geom.ObjectXformAt(tc.sc, sd.Object, sd.Time); xform != nil {
		t /= xform.ITfm.TransformDirection(dir).Len()
	}

	v := 1 - math32.Exp(-t)
	return types.XYZ(v, v, v)
}

// Trace a shadow ray towards a light sample and accumulate the
// transparency of the surfaces along it. Returns false if the light is
// blocked or more transparent surfaces were found than could be recorded.
func (tc *traceContext) transmittance(sd *shader.ShaderData, dir types.Vec3, dist float32) (types.Vec3, bool) {
	shadowRay := geom.Ray{
		P:    offsetRayOrigin(sd.P, sd.Ng, dir),
		D:    dir,
		T:    dist - shadowEpsilon*math32.Max(1, dist),
		Time: sd.Time,
	}
	if shadowRay.T <= 0 {
		return types.XYZ(1, 1, 1), true
	}

	tc.stats.ShadowRays++
	res := tc.traverser.Shadow(&shadowRay, scene.VisibilityShadow, tc.opts.MaxShadowHits, tc.shadowHits)
	if res.Occluded || res.NumHits > res.NumRecorded {
		return types.Vec3{}, false
	}

	throughput := types.XYZ(1, 1, 1)
	for _, isect := range tc.shadowHits[:res.NumRecorded] {
		throughput = throughput.MulVec(tc.sc.Shaders[tc.hitShader(&isect)].Transparency)
	}
	return throughput, !throughput.IsZero()
}

func (tc *traceContext) hitShader(isect *geom.Intersection) int32 {
	if isect.Type.Base()&scene.PrimitiveAllCurve != 0 {
		return int32(tc.sc.Curves[isect.Prim].Shader)
	}
	shaderID, _ := tc.sc.TriShaderID(isect.Prim)
	return shaderID
}

func (tc *traceContext) emission(shaderID int32) types.Vec3 {
	if shaderID == scene.ShaderNone {
		return types.Vec3{}
	}
	return tc.sc.Shaders[shaderID].Emission
}

// Move a ray origin off the surface to the side that dir points to.
func offsetRayOrigin(p, ng, dir types.Vec3) types.Vec3 {
	if ng.Dot(dir) < 0 {
		ng = ng.Neg()
	}
	scale := math32.Max(1, p.Abs().MaxComponent())
	return p.Add(ng.Mul(rayOffsetEpsilon * scale))
}

// Sample a direction from the cosine weighted hemisphere around n.
func cosineHemisphere(n types.Vec3, u1, u2 float32) types.Vec3 {
	r := math32.Sqrt(u1)
	sinPhi, cosPhi := math32.Sincos(2 * math32.Pi * u2)
	t, b := tangentFrame(n)
	return t.Mul(r * cosPhi).Add(b.Mul(r * sinPhi)).Add(n.Mul(math32.Sqrt(math32.Max(0, 1-u1)))).Normalize()
}

// Build an orthonormal basis around the unit vector n.
func tangentFrame(n types.Vec3) (t, b types.Vec3) {
	if math32.Abs(n[0]) > math32.Abs(n[2]) {
		t = types.XYZ(-n[1], n[0], 0)
	} else {
		t = types.XYZ(0, -n[2], n[1])
	}
	t = t.Normalize()
	return t, n.Cross(t)
}
