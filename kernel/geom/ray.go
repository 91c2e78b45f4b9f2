package geom

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// Screen space derivatives of a scalar.
type Differential struct {
	Dx float32
	Dy float32
}

// Screen space derivatives of a vector.
type Differential3 struct {
	Dx types.Vec3
	Dy types.Vec3
}

// A ray with an optional pair of ray differentials. T is the max distance
// for which intersections are reported.
type Ray struct {
	P    types.Vec3
	D    types.Vec3
	T    float32
	Time float32

	DP Differential3
	DD Differential3
}

// An intersection between a ray and a primitive. Prim is the triangle or
// curve index (not the primitive address); for curves Type also packs the
// segment index.
type Intersection struct {
	T float32
	U float32
	V float32

	Prim   int32
	Object int32
	Type   scene.PrimitiveType
}

// Returns an intersection that references no primitive.
func NoIntersection(t float32) Intersection {
	return Intersection{
		T:      t,
		Prim:   scene.PrimNone,
		Object: scene.ObjectNone,
		Type:   scene.PrimitiveNone,
	}
}

// Returns true if the intersection references a primitive.
func (isect *Intersection) Hit() bool {
	return isect.Prim != scene.PrimNone
}

// Object space transforms for a primitive whose geometry was not baked
// into world space. A nil *ObjectXform means world space.
type ObjectXform struct {
	Tfm  types.Mat4
	ITfm types.Mat4
}

// Lookup the transforms of object at the given ray time. Returns nil if the
// object geometry is already in world space.
func ObjectXformAt(sc *scene.Scene, object int32, time float32) *ObjectXform {
	if object == scene.ObjectNone || sc.ObjectFlag(object)&scene.ObjectTransformApplied != 0 {
		return nil
	}
	return &ObjectXform{
		Tfm:  sc.ObjectTransformAt(object, time, scene.ObjectTransform),
		ITfm: sc.ObjectTransformAt(object, time, scene.ObjectInverseTransform),
	}
}
