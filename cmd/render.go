package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/achilleasa/raykernel/renderer"
	"github.com/achilleasa/raykernel/tracer"
	"github.com/achilleasa/raykernel/tracer/cpu"
	"github.com/urfave/cli"
)

var tileOrders = map[string]tracer.TileOrder{
	"center":        tracer.TileOrderCenter,
	"right-to-left": tracer.TileOrderRightToLeft,
	"left-to-right": tracer.TileOrderLeftToRight,
	"top-to-bottom": tracer.TileOrderTopToBottom,
	"bottom-to-top": tracer.TileOrderBottomToTop,
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errMissingScene
	}

	mode, err := cpu.ParseMode(ctx.String("integrator"))
	if err != nil {
		return err
	}

	order, ok := tileOrders[ctx.String("tile-order")]
	if !ok {
		return fmt.Errorf("unsupported tile order %q", ctx.String("tile-order"))
	}

	opts := renderer.Options{
		FrameW:             uint32(ctx.Int("width")),
		FrameH:             uint32(ctx.Int("height")),
		SamplesPerPixel:    uint32(ctx.Int("spp")),
		Exposure:           float32(ctx.Float64("exposure")),
		TileW:              ctx.Int("tile-size"),
		TileH:              ctx.Int("tile-size"),
		Progressive:        ctx.Bool("progressive"),
		StartResolution:    ctx.Int("start-resolution"),
		Background:         ctx.Bool("background"),
		PreserveTileDevice: ctx.Bool("preserve-tile-device"),
		TileOrder:          order,
		NumTracers:         ctx.Int("tracers"),
		Integrator:         mode,
		MaxShadowHits:      ctx.Int("max-shadow-hits"),
		AODistance:         float32(ctx.Float64("ao-distance")),
		Seed:               uint32(ctx.Int("seed")),
	}

	sc, err := loadScene(ctx, ctx.Args().First())
	if err != nil {
		return err
	}

	// Create renderer
	r, err := renderer.NewDefault(sc, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	// Interrupt the render on ctrl+c
	renderCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Noticef("rendering %dx%d frame (%d spp)", opts.FrameW, opts.FrameH, opts.SamplesPerPixel)
	frame, err := r.Render(renderCtx)
	if err != nil {
		return err
	}

	// Display stats
	logger.Noticef("frame statistics\n%s", r.Stats().Table())

	// Export PNG
	imgFile := ctx.String("out")
	start := time.Now()
	if err = renderer.SaveFrame(frame, imgFile); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	return nil
}
