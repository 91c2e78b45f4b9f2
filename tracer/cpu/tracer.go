package cpu

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/log"
	"github.com/achilleasa/raykernel/tracer"
)

const maxRayDistance float32 = math.MaxFloat32

var (
	ErrNoCamera        = errors.New("cpu tracer: scene does not define a camera")
	ErrAlreadyAttached = errors.New("cpu tracer: tracer already attached to a film")
)

// Tracer options.
type Options struct {
	// The quantity to integrate.
	Mode Mode

	// Exposure used by the tonemapping stage.
	Exposure float32

	// Max number of transparent surfaces a shadow ray may pass through.
	MaxShadowHits int

	// Max distance of ambient occlusion rays.
	AODistance float32

	// Speed relative to other tracers. Defaults to 1.
	Speed float32
}

// A Tracer renders tiles on a single goroutine. Each tracer owns its BVH
// traversal state so several tracers can share the same scene.
type Tracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	opts     Options
	pipeline *Pipeline

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateMu     sync.Mutex
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving tile requests from the renderer.
	tileReqChan chan tracer.TileRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for the current frame.
	stats *tracer.Stats

	film   *tracer.Film
	sc     *scene.Scene
	camera *scene.Camera
	ctx    *traceContext
}

// Create a new cpu tracer.
func NewTracer(id string, opts Options) (*Tracer, error) {
	if opts.MaxShadowHits < 0 {
		opts.MaxShadowHits = 0
	}
	if opts.AODistance <= 0 {
		opts.AODistance = maxRayDistance
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}

	pipeline, err := DefaultPipeline(opts)
	if err != nil {
		return nil, err
	}

	return &Tracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		opts:         opts,
		pipeline:     pipeline,
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		tileReqChan:  make(chan tracer.TileRequest, 1),
		stats:        &tracer.Stats{},
	}, nil
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get the computation speed estimate.
func (tr *Tracer) SpeedEstimate() float32 {
	return tr.opts.Speed
}

// Attach the tracer to a film and start the worker.
func (tr *Tracer) Init(film *tracer.Film) error {
	tr.Lock()
	defer tr.Unlock()

	if film == nil {
		return tracer.ErrNoFilm
	}
	if tr.film != nil {
		return ErrAlreadyAttached
	}

	tr.film = film
	tr.startWorker()
	return nil
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.cleanup()
}

// Cleanup tracer. This method is meant to be called while holding tr.Lock()
func (tr *Tracer) cleanup() {
	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
		tr.wg.Wait()
	}

	tr.film = nil
	tr.sc = nil
	tr.camera = nil
	tr.ctx = nil
}

// Enqueue tile request.
func (tr *Tracer) Enqueue(req tracer.TileRequest) {
	select {
	case tr.tileReqChan <- req:
	default:
		tr.logger.Error("request processor did not receive tile request")
		req.ErrChan <- tracer.ErrBusy
	}
}

// Append a change to the tracer's update buffer.
func (tr *Tracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.updateMu.Lock()
	tr.updateBuffer[updateType] = data
	tr.updateMu.Unlock()
}

// Retrieve frame statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes.
func (tr *Tracer) commitUpdates() error {
	tr.updateMu.Lock()
	defer tr.updateMu.Unlock()

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.UpdateScene:
			sc, ok := data.(*scene.Scene)
			if !ok || sc == nil {
				return tracer.ErrNoSceneData
			}
			tr.sc = sc
			tr.ctx = newTraceContext(sc, &tr.opts, tr.stats)
			if tr.camera == nil {
				tr.camera = sc.Camera
			}
		case tracer.UpdateCamera:
			camera, ok := data.(*scene.Camera)
			if !ok || camera == nil {
				return ErrNoCamera
			}
			tr.camera = camera
		default:
			return fmt.Errorf("cpu tracer: unsupported update type %d", updateType)
		}
	}

	tr.updateBuffer = make(map[tracer.UpdateType]interface{})
	return nil
}

// Spawn a go-routine to process tile render requests.
func (tr *Tracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}

	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var req tracer.TileRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case req = <-tr.tileReqChan:
				// Apply any pending changes
				if tr.hasPendingUpdates() {
					startTime = time.Now()
					err = tr.commitUpdates()
					if err != nil {
						req.ErrChan <- err
						continue
					}
					tr.stats.UpdateTime += time.Since(startTime)
				}

				// Render tile and reply with our completion status
				startTime = time.Now()
				err = tr.renderTile(&req)
				if err != nil {
					req.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.RenderTime += time.Since(startTime)
				tr.stats.Tiles++
				tr.stats.Pixels += int64(req.Tile.W * req.Tile.H)
				if req.Buffer.Width > 0 {
					tr.stats.BlockH = uint32(tr.stats.Pixels / int64(req.Buffer.Width))
				}

				req.DoneChan <- req.Tile.Index
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

func (tr *Tracer) hasPendingUpdates() bool {
	tr.updateMu.Lock()
	defer tr.updateMu.Unlock()
	return len(tr.updateBuffer) != 0
}

// Render tile.
func (tr *Tracer) renderTile(req *tracer.TileRequest) error {
	if tr.sc == nil {
		return tracer.ErrNoSceneData
	}
	if tr.camera == nil {
		return ErrNoCamera
	}

	if req.ResolutionDivider < 1 {
		req.ResolutionDivider = 1
	}

	stages := make([]PipelineStage, 0, 2+len(tr.pipeline.PostProcess))
	if req.Sample == 0 && tr.pipeline.Reset != nil {
		stages = append(stages, tr.pipeline.Reset)
	}
	if tr.pipeline.Integrator != nil {
		stages = append(stages, tr.pipeline.Integrator)
	}
	stages = append(stages, tr.pipeline.PostProcess...)

	for _, stage := range stages {
		if _, err := stage(tr, req); err != nil {
			return err
		}
	}
	return nil
}
