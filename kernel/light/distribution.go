package light

import (
	"sort"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

// Pick an emissive triangle from the scene light distribution with a
// probability proportional to its area. The second return value is false
// if the scene contains no emissive triangles.
func PickTriangle(sc *scene.Scene, randu float32) (scene.LightDistribution, bool) {
	if len(sc.Lights) == 0 {
		return scene.LightDistribution{}, false
	}

	index := sort.Search(len(sc.Lights), func(i int) bool {
		return sc.Lights[i].CDF > randu
	})
	if index == len(sc.Lights) {
		index--
	}
	return sc.Lights[index], true
}

// Sample a point on an emissive triangle picked from the light
// distribution. Since the distribution is area weighted the returned PDF
// already accounts for the light pick.
func SampleLights(sc *scene.Scene, randl, randu, randv, time float32, p types.Vec3) (LightSample, bool) {
	entry, ok := PickTriangle(sc, randl)
	if !ok {
		return LightSample{}, false
	}

	ls := TriangleLightSample(sc, entry.Prim, entry.Object, randu, randv, time, p)
	return ls, ls.Pdf > 0
}
