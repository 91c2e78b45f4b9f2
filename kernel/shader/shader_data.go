package shader

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/types"
)

// A handle that does not reference a light.
const LampNone int32 = -1

// State flags of a shading point.
type Flag uint32

const (
	// The incoming ray hit the back side of the surface; normals and
	// tangents have been flipped to face the ray.
	FlagBackfacing Flag = 1 << iota

	// Flags inherited from the shader.
	FlagHasTransparentShadow
	FlagHasEmission
	FlagHasBSSRDF
	FlagHasVolume

	// Flags describing where the shading point came from.
	FlagBackground
	FlagVolume
)

// Map shader capability flags to shading point flags.
func shaderFlags(flags scene.ShaderFlag) Flag {
	var out Flag
	if flags&scene.ShaderHasTransparentShadow != 0 {
		out |= FlagHasTransparentShadow
	}
	if flags&scene.ShaderHasEmission != 0 {
		out |= FlagHasEmission
	}
	if flags&scene.ShaderHasSurfaceBSSRDF != 0 {
		out |= FlagHasBSSRDF
	}
	if flags&scene.ShaderHasVolume != 0 {
		out |= FlagHasVolume
	}
	return out
}

// ShaderData describes a single shading point. It is populated by one of
// the Setup* functions and handed to the integrator. A value should not be
// reused across shading points without going through setup again.
type ShaderData struct {
	// World space position.
	P types.Vec3

	// Shading and geometric normal.
	N  types.Vec3
	Ng types.Vec3

	// Incoming direction; points away from the surface.
	I types.Vec3

	Shader     int32
	Flag       Flag
	ObjectFlag scene.ObjectFlag
	Type       scene.PrimitiveType

	// Barycentric (triangles) or curve parameters.
	U float32
	V float32

	Object int32
	Prim   int32
	Lamp   int32

	// Distance from the ray origin and ray time.
	RayLength float32
	Time      float32

	// Screen space differentials.
	DP geom.Differential3
	DI geom.Differential3
	Du geom.Differential
	Dv geom.Differential

	// Position derivatives with respect to u and v.
	DPdu types.Vec3
	DPdv types.Vec3

	// Object transforms at the shading time. Nil when the object geometry
	// is already in world space.
	Xform *geom.ObjectXform
}

// Returns true if the shading point is on the back side of a surface.
func (sd *ShaderData) Backfacing() bool {
	return sd.Flag&FlagBackfacing != 0
}

// Flip the surface frame when the geometric normal faces away from I.
func (sd *ShaderData) flipBackfacing() {
	if sd.Ng.Dot(sd.I) >= 0 {
		return
	}

	sd.Flag |= FlagBackfacing
	sd.Ng = sd.Ng.Neg()
	sd.N = sd.N.Neg()
	sd.DPdu = sd.DPdu.Neg()
	sd.DPdv = sd.DPdv.Neg()
}

func (sd *ShaderData) objectToWorldNormal(n types.Vec3) types.Vec3 {
	if sd.Xform == nil {
		return n
	}
	return sd.Xform.ITfm.TransformDirectionTransposed(n).Normalize()
}

func (sd *ShaderData) objectToWorldDir(d types.Vec3) types.Vec3 {
	if sd.Xform == nil {
		return d
	}
	return sd.Xform.Tfm.TransformDirection(d)
}
