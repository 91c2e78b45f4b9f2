package tracer

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/types"
)

// A Film accumulates radiance samples for a frame and holds the tonemapped
// output image. Pass pixels rendered at a reduced resolution cover a block
// of film pixels. Concurrent writes are safe as long as they target
// disjoint tiles.
type Film struct {
	Width, Height int

	// Radiance sums in xyz and the sample count in w.
	accum []types.Vec4

	Frame *image.RGBA
}

// Create a film for a frame of the given size.
func NewFilm(width, height int) *Film {
	return &Film{
		Width:  width,
		Height: height,
		accum:  make([]types.Vec4, width*height),
		Frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Get the film region covered by pass pixel (x, y). Pixels on the last row
// or column of the pass also cover the remainder left by the integer
// division of the film size.
func (f *Film) PixelRegion(x, y, divider int) image.Rectangle {
	passW := maxInt(1, f.Width/divider)
	passH := maxInt(1, f.Height/divider)

	r := image.Rect(x*divider, y*divider, (x+1)*divider, (y+1)*divider)
	if x >= passW-1 {
		r.Max.X = f.Width
	}
	if y >= passH-1 {
		r.Max.Y = f.Height
	}
	return r.Intersect(image.Rect(0, 0, f.Width, f.Height))
}

// Get the film region covered by a pass tile.
func (f *Film) TileRegion(t *Tile, divider int) image.Rectangle {
	return f.PixelRegion(t.X, t.Y, divider).Union(f.PixelRegion(t.X+t.W-1, t.Y+t.H-1, divider))
}

// Reset the accumulated samples in a region.
func (f *Film) Clear(r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := f.accum[y*f.Width : (y+1)*f.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = types.Vec4{}
		}
	}
}

// Add the radiance sum of numSamples samples to all film pixels covered by
// pass pixel (x, y).
func (f *Film) Add(x, y, divider int, radiance types.Vec3, numSamples int) {
	sample := radiance.Vec4(float32(numSamples))
	r := f.PixelRegion(x, y, divider)
	for fy := r.Min.Y; fy < r.Max.Y; fy++ {
		row := f.accum[fy*f.Width : (fy+1)*f.Width]
		for fx := r.Min.X; fx < r.Max.X; fx++ {
			row[fx] = row[fx].Add(sample)
		}
	}
}

// Get the average radiance of a film pixel.
func (f *Film) Radiance(x, y int) types.Vec3 {
	acc := f.accum[y*f.Width+x]
	if acc[3] == 0 {
		return types.Vec3{}
	}
	return acc.Vec3().Mul(1.0 / acc[3])
}

// Get the number of samples accumulated by a film pixel.
func (f *Film) SampleCount(x, y int) int {
	return int(f.accum[y*f.Width+x][3])
}

// Apply simple Reinhard tone-mapping to a region and write the result to
// the output frame.
func (f *Film) TonemapSimpleReinhard(r image.Rectangle, exposure float32) {
	scale := math32.Pow(2, exposure)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := f.Radiance(x, y).Mul(scale)
			f.Frame.SetRGBA(x, y, color.RGBA{
				R: toByte(reinhard(c[0])),
				G: toByte(reinhard(c[1])),
				B: toByte(reinhard(c[2])),
				A: 255,
			})
		}
	}
}

func reinhard(c float32) float32 {
	if c <= 0 || math32.IsNaN(c) {
		return 0
	}
	if math32.IsInf(c, 1) {
		return 1
	}
	// gamma 2.2 encoding
	return math32.Pow(c/(1+c), 1.0/2.2)
}

func toByte(c float32) uint8 {
	return uint8(math32.Min(255, math32.Floor(c*255+0.5)))
}
