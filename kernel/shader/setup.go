package shader

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/types"
)

// Populate sd from a ray and one of its intersections.
func SetupFromRay(sc *scene.Scene, sd *ShaderData, isect *geom.Intersection, ray *geom.Ray) {
	sd.Object = isect.Object
	sd.ObjectFlag = sc.ObjectFlag(sd.Object)
	sd.Type = isect.Type
	sd.Flag = 0
	sd.U = isect.U
	sd.V = isect.V
	sd.Prim = isect.Prim
	sd.Lamp = LampNone
	sd.RayLength = isect.T
	sd.Time = ray.Time
	sd.Xform = geom.ObjectXformAt(sc, sd.Object, ray.Time)

	if sd.Type.Base()&scene.PrimitiveAllCurve != 0 {
		setupCurve(sc, sd, isect, ray)
	} else {
		setupTriangle(sc, sd, isect, ray)
	}

	sd.Flag |= shaderFlags(sc.ShaderFlags(sd.Shader))
	sd.I = ray.D.Neg()

	// Must run after all transforms have been applied.
	sd.flipBackfacing()

	sd.DP = geom.DifferentialTransfer(ray.DP, ray.D, ray.DD, sd.Ng, isect.T)
	sd.DI = geom.DifferentialIncoming(ray.DD)
	sd.Du, sd.Dv = geom.DifferentialDuDv(sd.DPdu, sd.DPdv, sd.DP, sd.Ng)
}

func setupTriangle(sc *scene.Scene, sd *ShaderData, isect *geom.Intersection, ray *geom.Ray) {
	shader, smooth := sc.TriShaderID(sd.Prim)
	sd.Shader = shader

	var v0, v1, v2 types.Vec3
	motion := sd.Type.Base() == scene.PrimitiveMotionTriangle
	if motion {
		verts := geom.MotionTriangleVertices(sc, sd.Object, sd.Prim, sd.Time)
		v0, v1, v2 = verts[0], verts[1], verts[2]
	} else {
		v0, v1, v2 = sc.TriVertices(sd.Prim)
	}

	sd.P = geom.TriangleRefine(ray.P, ray.D, isect.T, sd.Xform, v0, v1, v2)
	sd.Ng = geom.TriangleNormal(v0, v1, v2, sd.ObjectFlag)
	sd.N = sd.Ng

	if smooth {
		var n0, n1, n2 types.Vec3
		if motion {
			normals := geom.MotionTriangleNormals(sc, sd.Object, sd.Prim, sd.Time)
			n0, n1, n2 = normals[0], normals[1], normals[2]
		} else {
			n0, n1, n2 = sc.TriNormals(sd.Prim)
		}
		sd.N = geom.TriangleSmoothNormal(n0, n1, n2, sd.Ng, sd.U, sd.V)
	}

	sd.DPdu, sd.DPdv = geom.TriangleDPdUV(v0, v1, v2)

	sd.N = sd.objectToWorldNormal(sd.N)
	sd.Ng = sd.objectToWorldNormal(sd.Ng)
	sd.DPdu = sd.objectToWorldDir(sd.DPdu)
	sd.DPdv = sd.objectToWorldDir(sd.DPdv)
}

func setupCurve(sc *scene.Scene, sd *ShaderData, isect *geom.Intersection, ray *geom.Ray) {
	sd.Shader = int32(sc.Curves[sd.Prim].Shader)

	p, d := ray.P, ray.D
	local := *isect
	if sd.Xform != nil {
		var scale float32
		p = sd.Xform.ITfm.TransformPoint(p)
		d, scale = sd.Xform.ITfm.TransformDirection(d).NormalizeLen()
		local.T *= scale
	}

	surf := geom.CurveShaderSetup(sc, &local, p, d)
	sd.P = surf.P
	sd.N = surf.N
	sd.Ng = surf.Ng
	sd.DPdu = surf.DPdu
	sd.DPdv = surf.DPdv

	if sd.Xform != nil {
		sd.P = sd.Xform.Tfm.TransformPoint(sd.P)
		sd.N = sd.objectToWorldNormal(sd.N)
		sd.Ng = sd.objectToWorldNormal(sd.Ng)
		sd.DPdu = sd.objectToWorldDir(sd.DPdu)
		sd.DPdv = sd.objectToWorldDir(sd.DPdv)
	}
}

// A point to be shaded that was not produced by tracing a ray. Shader is
// a raw triangle shader id and may carry scene.ShaderSmoothNormal.
type Sample struct {
	P  types.Vec3
	Ng types.Vec3
	I  types.Vec3

	Shader uint32
	Object int32
	Prim   int32
	Lamp   int32

	U    float32
	V    float32
	T    float32
	Time float32
}

// Populate sd from a directly sampled point. When objectSpace is set the
// sample position, normal and direction are in the object space of
// s.Object and get transformed to world space.
func SetupFromSample(sc *scene.Scene, sd *ShaderData, s *Sample, objectSpace bool) {
	sd.P = s.P
	sd.N = s.Ng
	sd.Ng = s.Ng
	sd.I = s.I
	sd.Shader = int32(s.Shader & scene.ShaderIDMask)
	smooth := s.Shader&scene.ShaderSmoothNormal != 0

	switch {
	case s.Prim != scene.PrimNone:
		sd.Type = scene.PrimitiveTriangle
	case s.Lamp != LampNone:
		sd.Type = scene.PrimitiveLamp
	default:
		sd.Type = scene.PrimitiveNone
	}

	sd.Object = s.Object
	sd.Lamp = s.Lamp
	sd.Prim = s.Prim
	sd.U = s.U
	sd.V = s.V
	sd.Time = s.Time
	sd.RayLength = s.T
	sd.Flag = shaderFlags(sc.ShaderFlags(sd.Shader))
	sd.ObjectFlag = sc.ObjectFlag(sd.Object)
	sd.Xform = geom.ObjectXformAt(sc, sd.Object, s.Time)

	if objectSpace && sd.Xform != nil {
		sd.P = sd.Xform.Tfm.TransformPoint(sd.P)
		sd.Ng = sd.objectToWorldNormal(sd.Ng)
		sd.N = sd.Ng
		sd.I = sd.objectToWorldDir(sd.I)
	}

	if sd.Type == scene.PrimitiveTriangle {
		if smooth {
			n0, n1, n2 := sc.TriNormals(sd.Prim)
			sd.N = sd.objectToWorldNormal(geom.TriangleSmoothNormal(n0, n1, n2, sd.Ng, sd.U, sd.V))
		}

		v0, v1, v2 := sc.TriVertices(sd.Prim)
		sd.DPdu, sd.DPdv = geom.TriangleDPdUV(v0, v1, v2)
		sd.DPdu = sd.objectToWorldDir(sd.DPdu)
		sd.DPdv = sd.objectToWorldDir(sd.DPdv)
	} else {
		sd.DPdu = types.Vec3{}
		sd.DPdv = types.Vec3{}
	}

	if sd.Prim != scene.PrimNone {
		sd.flipBackfacing()
	}

	sd.DP = geom.Differential3{}
	sd.DI = geom.Differential3{}
	sd.Du = geom.Differential{}
	sd.Dv = geom.Differential{}
}

// Populate sd for displacement evaluation of a triangle at (u, v). Smooth
// normals are always used.
func SetupFromDisplace(sc *scene.Scene, sd *ShaderData, object, prim int32, u, v float32) {
	p, ng, shader := geom.TrianglePointNormal(sc, object, prim, u, v)
	SetupFromSample(sc, sd, &Sample{
		P:      p,
		Ng:     ng,
		Shader: shader | scene.ShaderSmoothNormal,
		Object: object,
		Prim:   prim,
		Lamp:   LampNone,
		U:      u,
		V:      v,
		Time:   0.5,
	}, sc.ObjectFlag(object)&scene.ObjectTransformApplied == 0)
}

// Populate sd for a ray that escaped the scene. The background is
// evaluated in the ray direction.
func SetupFromBackground(sc *scene.Scene, sd *ShaderData, ray *geom.Ray) {
	sd.P = ray.D
	sd.N = ray.D.Neg()
	sd.Ng = sd.N
	sd.I = sd.N
	sd.Shader = sc.Kernel.BackgroundShader
	sd.Flag = shaderFlags(sc.ShaderFlags(sd.Shader)) | FlagBackground
	sd.ObjectFlag = 0
	sd.Type = scene.PrimitiveNone
	sd.Time = ray.Time
	sd.RayLength = 0
	sd.Object = scene.ObjectNone
	sd.Lamp = LampNone
	sd.Prim = scene.PrimNone
	sd.U = 0
	sd.V = 0
	sd.Xform = nil

	sd.DPdu = types.Vec3{}
	sd.DPdv = types.Vec3{}

	// The position is a direction so it shares the direction differentials.
	sd.DP = ray.DD
	sd.DI = geom.DifferentialIncoming(sd.DP)
	sd.Du = geom.Differential{}
	sd.Dv = geom.Differential{}
}

// Populate sd for a point inside a volume along the ray.
func SetupFromVolume(sc *scene.Scene, sd *ShaderData, ray *geom.Ray) {
	sd.P = ray.P
	sd.N = ray.D.Neg()
	sd.Ng = sd.N
	sd.I = sd.N
	sd.Shader = scene.ShaderNone
	sd.Flag = FlagVolume
	sd.ObjectFlag = 0
	sd.Type = scene.PrimitiveNone
	sd.Time = ray.Time
	sd.RayLength = 0
	sd.Object = scene.ObjectNone
	sd.Lamp = LampNone
	sd.Prim = scene.PrimNone
	sd.U = 0
	sd.V = 0
	sd.Xform = nil

	sd.DPdu = types.Vec3{}
	sd.DPdv = types.Vec3{}
	sd.DP = ray.DP
	sd.DI = geom.DifferentialIncoming(ray.DD)
	sd.Du = geom.Differential{}
	sd.Dv = geom.Differential{}
}
