package compiler

import (
	"github.com/achilleasa/raykernel/asset/compiler/input"
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// A primitive awaiting partitioning.
type primitive struct {
	ptype      scene.PrimitiveType
	index      int32
	object     int32
	visibility scene.Visibility

	bbox   [2]types.Vec3
	center types.Vec3
}

func newPrimitive(ptype scene.PrimitiveType, index, object int32, visibility scene.Visibility, bbox [2]types.Vec3) *primitive {
	return &primitive{
		ptype:      ptype,
		index:      index,
		object:     object,
		visibility: visibility,
		bbox:       bbox,
		center:     bbox[0].Add(bbox[1]).Mul(0.5),
	}
}

// Get the primitive AABB.
func (p *primitive) BBox() [2]types.Vec3 {
	return p.bbox
}

// Get primitive AABB center.
func (p *primitive) Center() types.Vec3 {
	return p.center
}

// An object placed in the top level BVH.
type instance struct {
	object int32

	bbox   [2]types.Vec3
	center types.Vec3
}

// Create an instance whose bbox encloses the mesh bbox under every motion
// step transform.
func newInstance(object int32, obj *input.Object, mesh *input.Mesh) *instance {
	meshBBox := mesh.BBox()
	bbox := obj.Transform.TransformBBox(meshBBox)
	for _, tfm := range obj.Motion {
		bbox = input.UnionBBox(bbox, tfm.TransformBBox(meshBBox))
	}

	return &instance{
		object: object,
		bbox:   bbox,
		center: bbox[0].Add(bbox[1]).Mul(0.5),
	}
}

// Get the instance AABB.
func (i *instance) BBox() [2]types.Vec3 {
	return i.bbox
}

// Get the instance AABB center.
func (i *instance) Center() types.Vec3 {
	return i.center
}
