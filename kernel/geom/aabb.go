package geom

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/types"
)

// 2^-80; replaces direction components that are too close to zero before
// taking the reciprocal.
const ooeps float32 = 8.271806e-25

// Calculate the reciprocal ray direction for slab tests. Components that
// are zero (or nearly so) are replaced by a signed epsilon so that the
// reciprocal keeps the sign of the original component.
func InverseDirection(d types.Vec3) types.Vec3 {
	var idir types.Vec3
	for axis := 0; axis < 3; axis++ {
		c := d[axis]
		if math32.Abs(c) <= ooeps {
			c = math32.Copysign(ooeps, c)
		}
		idir[axis] = 1 / c
	}
	return idir
}

// Intersect a ray with an axis aligned box using the slab method. It
// returns the entry distance (clamped to 0) and whether the box overlaps
// the interval [0, tmax].
func IntersectAABB(min, max, p, idir types.Vec3, tmax float32) (float32, bool) {
	t0x, t1x := (min[0]-p[0])*idir[0], (max[0]-p[0])*idir[0]
	t0y, t1y := (min[1]-p[1])*idir[1], (max[1]-p[1])*idir[1]
	t0z, t1z := (min[2]-p[2])*idir[2], (max[2]-p[2])*idir[2]

	tnear := math32.Max(math32.Max(math32.Min(t0x, t1x), math32.Min(t0y, t1y)), math32.Max(math32.Min(t0z, t1z), 0))
	tfar := math32.Min(math32.Min(math32.Max(t0x, t1x), math32.Max(t0y, t1y)), math32.Min(math32.Max(t0z, t1z), tmax))
	return tnear, tfar >= tnear
}
