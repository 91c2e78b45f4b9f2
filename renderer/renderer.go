package renderer

import (
	"context"
	"image"
)

type Renderer interface {
	// Render frame. Cancelling the context interrupts the render once the
	// in-flight tiles complete.
	Render(ctx context.Context) (*image.RGBA, error)

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
