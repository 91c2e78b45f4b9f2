package cpu

import (
	"time"

	"github.com/achilleasa/raykernel/kernel/bvh"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/types"
)

// An alias for functions that can be used as part of the rendering pipeline.
type PipelineStage func(tr *Tracer, req *tracer.TileRequest) (time.Duration, error)

// The list of pluggable of stages that are used to render a tile.
type Pipeline struct {
	// Reset the accumulated tile samples. This stage is executed when a
	// request starts at sample 0.
	Reset PipelineStage

	// This stage traces the camera rays of the tile and adds their
	// contribution to the film.
	Integrator PipelineStage

	// A set of post-processing stages that are executed after the
	// integrator.
	PostProcess []PipelineStage
}

// Build the pipeline for the given options.
func DefaultPipeline(opts Options) (*Pipeline, error) {
	integrate, err := integratorFor(opts.Mode)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Reset:      ClearAccumulator(),
		Integrator: MonteCarloIntegrator(integrate),
		PostProcess: []PipelineStage{
			TonemapSimpleReinhard(opts.Exposure),
		},
	}, nil
}

// Clear the film samples covered by the tile.
func ClearAccumulator() PipelineStage {
	return func(tr *Tracer, req *tracer.TileRequest) (time.Duration, error) {
		start := time.Now()
		tr.film.Clear(tr.film.TileRegion(&req.Tile, req.ResolutionDivider))
		return time.Since(start), nil
	}
}

// Apply simple Reinhard tone-mapping to the tile.
func TonemapSimpleReinhard(exposure float32) PipelineStage {
	return func(tr *Tracer, req *tracer.TileRequest) (time.Duration, error) {
		start := time.Now()
		tr.film.TonemapSimpleReinhard(tr.film.TileRegion(&req.Tile, req.ResolutionDivider), exposure)
		return time.Since(start), nil
	}
}

// Trace NumSamples jittered camera rays per tile pixel and add their
// average contribution to the film.
func MonteCarloIntegrator(integrate integrator) PipelineStage {
	return func(tr *Tracer, req *tracer.TileRequest) (time.Duration, error) {
		start := time.Now()

		tc := tr.ctx
		divider := float32(req.ResolutionDivider)
		frameW, frameH := float32(tr.film.Width), float32(tr.film.Height)
		shutterOpen, shutterClose := tr.sc.Kernel.ShutterOpen, tr.sc.Kernel.ShutterClose

		tile := &req.Tile
		for y := tile.Y; y < tile.Y+tile.H; y++ {
			for x := tile.X; x < tile.X+tile.W; x++ {
				var sum types.Vec3
				for sample := req.Sample; sample < req.Sample+req.NumSamples; sample++ {
					*tc.rng = bvh.LCG(pixelSeed(req.Seed, x, y, sample))

					camRay := tr.camera.GenerateRay(
						(float32(x)+tc.rng.Float32())*divider,
						(float32(y)+tc.rng.Float32())*divider,
						frameW, frameH,
					)
					ray := geom.Ray{
						P:    camRay.Origin,
						D:    camRay.Dir,
						T:    maxRayDistance,
						Time: 0.5,
						DD: geom.Differential3{
							Dx: camRay.DdDx.Mul(divider),
							Dy: camRay.DdDy.Mul(divider),
						},
					}
					if shutterClose > shutterOpen {
						ray.Time = shutterOpen + tc.rng.Float32()*(shutterClose-shutterOpen)
					}

					sum = sum.Add(integrate(tc, &ray))
				}

				tr.film.Add(x, y, req.ResolutionDivider, sum, req.NumSamples)
			}
		}

		tr.stats.Samples += int64(tile.W * tile.H * req.NumSamples)
		return time.Since(start), nil
	}
}

// Mix the request seed with the pixel coordinates and sample index.
func pixelSeed(seed uint32, x, y, sample int) uint32 {
	h := seed ^ uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ uint32(sample)*0xcb1ab31f
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}
