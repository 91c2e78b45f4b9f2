package attribute

import (
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// PatchEvaluator evaluates attributes stored per control point of a
// subdivision patch.
type PatchEvaluator interface {
	// Evaluate the attribute at patch coordinates (s, t). It returns the
	// value and its partial derivatives with respect to s and t.
	EvalPatch(sc *scene.Scene, object, patch int32, desc scene.AttributeDescriptor, s, t float32) (val, dds, ddt types.Vec4)
}

// BilinearPatchEvaluator treats every patch as a bilinear surface over its
// corner values.
type BilinearPatchEvaluator struct{}

func (BilinearPatchEvaluator) EvalPatch(sc *scene.Scene, object, patch int32, desc scene.AttributeDescriptor, s, t float32) (val, dds, ddt types.Vec4) {
	obj := &scene.Object{}
	if object != scene.ObjectNone {
		obj = &sc.Objects[object]
	}

	c := patchCorners(sc, obj, &sc.Patches[patch], desc)
	bottom := c[0].Lerp(c[1], s)
	top := c[3].Lerp(c[2], s)

	val = bottom.Lerp(top, t)
	dds = c[1].Sub(c[0]).Lerp(c[2].Sub(c[3]), t)
	ddt = top.Sub(bottom)
	return val, dds, ddt
}

// Fetch the 4 corner values of a patch. Non-quad patches are sub-quads of
// an n-gon whose second and fourth corners sit halfway along the edges
// leaving the first corner; corners a non-quad face lacks collapse onto
// its first corner.
func patchCorners(sc *scene.Scene, obj *scene.Object, patch *scene.Patch, desc scene.AttributeDescriptor) [4]types.Vec4 {
	var c [4]types.Vec4
	offset := int(desc.Offset)

	for i := 0; i < 4; i++ {
		if uint32(i) >= patch.NumCorners {
			c[i] = c[0]
			continue
		}

		switch desc.Element {
		case scene.AttrElementCorner, scene.AttrElementCornerByte:
			c[i] = fetch(sc, desc, offset+int(patch.Corner)+i)
		default:
			c[i] = fetch(sc, desc, offset+int(patch.V[i])-int(obj.VertexOffset))
		}
	}

	if patch.NumCorners != 4 {
		c[1] = c[1].Add(c[0]).Mul(0.5)
		c[3] = c[3].Add(c[0]).Mul(0.5)
	}
	return c
}

// Evaluate the bilinear surface over the patch corners at uv.
func bilinear(c [4]types.Vec4, uv types.Vec2) types.Vec4 {
	return c[0].Lerp(c[1], uv[0]).Lerp(c[3].Lerp(c[2], uv[0]), uv[1])
}
