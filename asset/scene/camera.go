package scene

import (
	"fmt"

	"github.com/achilleasa/raykernel/types"
)

// Stores the ray directions at the four corners of the camera frustrum. It
// is used as a shortcut for generating per pixel rays via interpolation of
// the corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	ViewMat  types.Mat4
	ProjMat  types.Mat4
	Frustrum Frustrum

	// Vertical field of view in degrees.
	FOV float32
}

// A primary ray generated by the camera. DdDx and DdDy are the changes of
// the normalized direction when moving one pixel along each image axis.
type CameraRay struct {
	Origin types.Vec3
	Dir    types.Vec3
	DdDx   types.Vec3
	DdDy   types.Vec3
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = types.Perspective4(c.FOV, aspect, 1, 1000)
	c.Update()
}

// Update the view matrix and the frustrum corner rays.
func (c *Camera) Update() {
	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)

	invProjViewMat := c.ProjMat.Mul4(c.ViewMat).Inv()
	corners := [4]types.Vec4{
		types.XYZW(-1, 1, -1, 1),
		types.XYZW(1, 1, -1, 1),
		types.XYZW(-1, -1, -1, 1),
		types.XYZW(1, -1, -1, 1),
	}
	for index, corner := range corners {
		v := invProjViewMat.Mul4x1(corner)
		c.Frustrum[index] = v.Mul(1.0 / v[3]).Vec3().Sub(c.Position)
	}
}

// Generate a primary ray through the image plane point (x, y) of a frame
// with dimensions (frameW, frameH). The point coordinates are in pixels and
// may contain a sub-pixel offset.
func (c *Camera) GenerateRay(x, y, frameW, frameH float32) CameraRay {
	dir := c.frustrumDir(x/frameW, y/frameH)
	dx := c.frustrumDir((x+1)/frameW, y/frameH)
	dy := c.frustrumDir(x/frameW, (y+1)/frameH)
	return CameraRay{
		Origin: c.Position,
		Dir:    dir,
		DdDx:   dx.Sub(dir),
		DdDy:   dy.Sub(dir),
	}
}

func (c *Camera) frustrumDir(s, t float32) types.Vec3 {
	top := c.Frustrum[0].Lerp(c.Frustrum[1], s)
	bottom := c.Frustrum[2].Lerp(c.Frustrum[3], s)
	return top.Lerp(bottom, t).Normalize()
}
