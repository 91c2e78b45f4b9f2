package renderer

import (
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/tracer/cpu"
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of samples.
	SamplesPerPixel uint32

	// Exposure for tonemapping.
	Exposure float32

	// Tile dims. Zero selects the tile manager defaults.
	TileW int
	TileH int

	// Render low resolution previews with a single sample each before
	// adding samples one pass at a time. StartResolution is the pixel count
	// per axis of the first preview; zero disables previews.
	Progressive     bool
	StartResolution int

	// Split the frame in a tile grid instead of one slice per tracer.
	Background bool

	// Prevent tracers from processing tiles assigned to other tracers.
	PreserveTileDevice bool

	TileOrder tracer.TileOrder

	// Number of cpu tracers. Zero uses one tracer per cpu.
	NumTracers int

	// Integrator settings.
	Integrator    cpu.Mode
	MaxShadowHits int
	AODistance    float32

	// Seed for the per pixel random number generators.
	Seed uint32
}
