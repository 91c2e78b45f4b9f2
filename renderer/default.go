package renderer

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/log"
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/tracer/cpu"
)

// A renderer that splits frames in tiles and renders them on a pool of cpu
// tracers.
type defaultRenderer struct {
	logger log.Logger

	sc      *scene.Scene
	opts    Options
	film    *tracer.Film
	tracers []tracer.Tracer
	tiles   *tracer.TileManager

	// Guards the tile manager which is shared by the device loops.
	tileMu sync.Mutex

	stats FrameStats
}

// Create a new renderer for the given scene.
func NewDefault(sc *scene.Scene, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, ErrInvalidFrameSize
	}
	if opts.SamplesPerPixel == 0 {
		opts.SamplesPerPixel = 1
	}
	if opts.NumTracers <= 0 {
		opts.NumTracers = runtime.NumCPU()
	}

	r := &defaultRenderer{
		logger: log.New("renderer"),
		sc:     sc,
		opts:   opts,
		film:   tracer.NewFilm(int(opts.FrameW), int(opts.FrameH)),
	}

	sc.Camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	tracerOpts := cpu.Options{
		Mode:          opts.Integrator,
		Exposure:      opts.Exposure,
		MaxShadowHits: opts.MaxShadowHits,
		AODistance:    opts.AODistance,
	}
	for index := 0; index < opts.NumTracers; index++ {
		tr, err := cpu.NewTracer(fmt.Sprintf("cpu-%d", index), tracerOpts)
		if err == nil {
			err = tr.Init(r.film)
		}
		if err != nil {
			r.Close()
			return nil, err
		}
		tr.Update(tracer.UpdateScene, sc)
		r.tracers = append(r.tracers, tr)
	}

	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	startResolution := 0
	if opts.Progressive {
		startResolution = opts.StartResolution
	}
	r.tiles = tracer.NewTileManager(tracer.TileManagerOptions{
		Progressive:        opts.Progressive,
		Background:         opts.Background,
		TileW:              opts.TileW,
		TileH:              opts.TileH,
		StartResolution:    startResolution,
		PreserveTileDevice: opts.PreserveTileDevice,
		NumDevices:         len(r.tracers),
		Order:              opts.TileOrder,
		Scheduler:          tracer.PerfectScheduler(),
		Devices:            r.tracers,
	})

	r.logger.Noticef("using %d tracer(s) with the %s integrator", len(r.tracers), opts.Integrator)
	return r, nil
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Render frame.
func (r *defaultRenderer) Render(ctx context.Context) (*image.RGBA, error) {
	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	start := time.Now()
	r.resetStats()
	r.tiles.Reset(tracer.BufferParams{
		Width:      int(r.opts.FrameW),
		Height:     int(r.opts.FrameH),
		FullWidth:  int(r.opts.FrameW),
		FullHeight: int(r.opts.FrameH),
	}, int(r.opts.SamplesPerPixel))

	for r.tiles.Next() {
		if err := ctx.Err(); err != nil {
			return nil, ErrInterrupted
		}

		for _, tr := range r.tracers {
			tr.Stats().Reset()
		}

		err := r.renderPass(ctx)
		r.collectStats()
		if err != nil {
			return nil, err
		}

		r.logger.Debugf(
			"rendered pass %d at 1/%d resolution (samples %d-%d)",
			r.stats.Passes, r.tiles.ResolutionDivider(), r.tiles.Sample(), r.tiles.Sample()+r.tiles.NumSamples()-1,
		)
	}

	r.stats.RenderTime = time.Since(start)
	return r.film.Frame, nil
}

// Render the tiles of the current pass using one loop per tracer.
func (r *defaultRenderer) renderPass(ctx context.Context) error {
	req := tracer.TileRequest{
		Sample:            r.tiles.Sample(),
		NumSamples:        r.tiles.NumSamples(),
		ResolutionDivider: r.tiles.ResolutionDivider(),
		Buffer:            r.tiles.Buffer(),
		Seed:              r.opts.Seed,
	}

	var g errgroup.Group
	for device, tr := range r.tracers {
		device, tr := device, tr
		g.Go(func() error {
			return r.deviceLoop(ctx, device, tr, req)
		})
	}
	return g.Wait()
}

// Keep feeding tiles to a tracer until its queue runs dry. Cancellation is
// only checked between tiles.
func (r *defaultRenderer) deviceLoop(ctx context.Context, device int, tr tracer.Tracer, req tracer.TileRequest) error {
	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	req.DoneChan = doneChan
	req.ErrChan = errChan

	for {
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		r.tileMu.Lock()
		tile, ok := r.tiles.NextTile(device, tracer.TileTypePathTrace)
		if ok {
			req.Tile = *tile
		}
		r.tileMu.Unlock()
		if !ok {
			return nil
		}

		tr.Enqueue(req)
		select {
		case index := <-doneChan:
			r.tileMu.Lock()
			r.tiles.FinishTile(index, false)
			r.tileMu.Unlock()
		case err := <-errChan:
			r.logger.Errorf("tracer %s failed to render tile %d: %v", tr.Id(), req.Tile.Index, err)
			return err
		}
	}
}

func (r *defaultRenderer) resetStats() {
	r.stats = FrameStats{Tracers: make([]TracerStat, len(r.tracers))}
	for index, tr := range r.tracers {
		r.stats.Tracers[index].Id = tr.Id()
	}
}

// Merge the tracer statistics of the last pass into the frame statistics.
func (r *defaultRenderer) collectStats() {
	r.stats.Passes++
	buffer := r.tiles.Buffer()
	for index, tr := range r.tracers {
		trStats := tr.Stats()
		stat := &r.stats.Tracers[index]
		stat.BlockH = trStats.BlockH
		if buffer.Width > 0 && buffer.Height > 0 {
			stat.FramePercent = 100 * float32(trStats.Pixels) / float32(buffer.Width*buffer.Height)
		}
		stat.Tiles += trStats.Tiles
		stat.Samples += trStats.Samples
		stat.CameraRays += trStats.CameraRays
		stat.ShadowRays += trStats.ShadowRays
		stat.LocalRays += trStats.LocalRays
		stat.RenderTime += trStats.RenderTime
	}
}
