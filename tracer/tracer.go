package tracer

import (
	"errors"
	"time"
)

var (
	ErrNoSceneData = errors.New("tracer: no scene data attached")
	ErrNoFilm      = errors.New("tracer: no film attached")
	ErrBusy        = errors.New("tracer: worker is busy")
)

type UpdateType uint8

const (
	UpdateScene UpdateType = iota
	UpdateCamera
)

// A unit of work that is processed by a tracer.
type TileRequest struct {
	// The tile to render. Its coordinates are expressed in the pass buffer
	// which is the frame scaled down by ResolutionDivider.
	Tile Tile

	// First sample and number of samples to render for each pixel.
	Sample     int
	NumSamples int

	ResolutionDivider int

	// Dimensions of the pass buffer.
	Buffer BufferParams

	// A random seed value for the tracer's random number generator.
	Seed uint32

	// A channel to signal on tile completion with the tile index.
	DoneChan chan<- int

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The number of rows rendered by the tracer, expressed as full rows of
	// the pass buffer.
	BlockH uint32

	// Time spent rendering tiles.
	RenderTime time.Duration

	// Time spent applying scene and camera updates.
	UpdateTime time.Duration

	Tiles   int
	Pixels  int64
	Samples int64

	// Rays traced against the BVH split by query type.
	CameraRays int64
	ShadowRays int64
	LocalRays  int64
}

// Reset all counters.
func (s *Stats) Reset() {
	*s = Stats{}
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (single core) implementation.
	SpeedEstimate() float32

	// Attach the tracer to a film and start processing requests.
	Init(film *Film) error

	// Enqueue tile request. The tracer replies on the request DoneChan or
	// ErrChan.
	Enqueue(TileRequest)

	// Queue an update that is applied before the next request.
	Update(UpdateType, interface{})

	// Retrieve statistics collected since the last Stats().Reset().
	Stats() *Stats
}
