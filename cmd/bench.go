package cmd

import (
	"bytes"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/kernel/bvh"
	"github.com/achilleasa/raykernel/kernel/geom"
	"github.com/achilleasa/raykernel/kernel/light"
	"github.com/achilleasa/raykernel/renderer"
)

// Ray counters for a traversal query.
type benchResult struct {
	rays    int64
	hits    int64
	elapsed time.Duration
}

// Camera hit points that seed the shadow and local queries.
type benchHit struct {
	ray   geom.Ray
	isect geom.Intersection
}

// Measure the throughput of the traversal queries for camera rays and
// their shadow and local rays.
func BenchTraversal(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errMissingScene
	}

	sc, err := loadScene(ctx, ctx.Args().First())
	if err != nil {
		return err
	}
	if sc.Camera == nil {
		return renderer.ErrCameraNotDefined
	}

	frameW, frameH := ctx.Int("width"), ctx.Int("height")
	numWorkers := ctx.Int("workers")
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	maxShadowHits := ctx.Int("max-shadow-hits")
	sc.Camera.SetupProjection(float32(frameW) / float32(frameH))

	// Split frame rows between workers.
	rowsPerWorker := (frameH + numWorkers - 1) / numWorkers
	workerHits := make([][]benchHit, numWorkers)

	var closest, shadow, local benchResult
	closest.elapsed, err = benchRun(sc, numWorkers, func(worker int, tr *bvh.Traverser) {
		var hits int64
		for y := worker * rowsPerWorker; y < frameH && y < (worker+1)*rowsPerWorker; y++ {
			for x := 0; x < frameW; x++ {
				camRay := sc.Camera.GenerateRay(float32(x)+0.5, float32(y)+0.5, float32(frameW), float32(frameH))
				ray := geom.Ray{P: camRay.Origin, D: camRay.Dir, T: math32.MaxFloat32, Time: 0.5}
				if isect, hit := tr.Closest(&ray, scene.VisibilityCamera); hit {
					hits++
					workerHits[worker] = append(workerHits[worker], benchHit{ray: ray, isect: isect})
				}
			}
		}
		atomic.AddInt64(&closest.hits, hits)
	})
	if err != nil {
		return err
	}
	closest.rays = int64(frameW * frameH)

	shadow.elapsed, err = benchRun(sc, numWorkers, func(worker int, tr *bvh.Traverser) {
		rng := bvh.NewLCG(uint32(worker + 1))
		hitBuf := make([]geom.Intersection, maxShadowHits)
		var rays, occluded int64
		for _, h := range workerHits[worker] {
			p := h.ray.P.Add(h.ray.D.Mul(h.isect.T * 0.9999))
			ls, ok := light.SampleLights(sc, rng.Float32(), rng.Float32(), rng.Float32(), h.ray.Time, p)
			if !ok {
				continue
			}
			shadowRay := geom.Ray{P: p, D: ls.D, T: ls.T * 0.999, Time: h.ray.Time}
			rays++
			if res := tr.Shadow(&shadowRay, scene.VisibilityShadow, maxShadowHits, hitBuf); res.Occluded {
				occluded++
			}
		}
		atomic.AddInt64(&shadow.rays, rays)
		atomic.AddInt64(&shadow.hits, occluded)
	})
	if err != nil {
		return err
	}

	local.elapsed, err = benchRun(sc, numWorkers, func(worker int, tr *bvh.Traverser) {
		rng := bvh.NewLCG(uint32(worker + 1))
		var rays, hits int64
		for _, h := range workerHits[worker] {
			if h.isect.Object == scene.ObjectNone {
				continue
			}
			p := h.ray.P.Add(h.ray.D.Mul(h.isect.T))
			probe := geom.Ray{P: p, D: h.ray.D, T: math32.MaxFloat32, Time: h.ray.Time}
			rays++
			hits += int64(tr.Local(&probe, h.isect.Object, 4, rng).NumHits)
		}
		atomic.AddInt64(&local.rays, rays)
		atomic.AddInt64(&local.hits, hits)
	})
	if err != nil {
		return err
	}

	displayBenchResults(numWorkers, map[string]benchResult{
		"closest": closest,
		"shadow":  shadow,
		"local":   local,
	})
	return nil
}

// Run fn on numWorkers goroutines, each with its own traverser, and report
// the wall clock time it took for all of them to complete.
func benchRun(sc *scene.Scene, numWorkers int, fn func(worker int, tr *bvh.Traverser)) (time.Duration, error) {
	var g errgroup.Group
	start := time.Now()
	for worker := 0; worker < numWorkers; worker++ {
		worker := worker
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("bench worker %d: %v", worker, r)
				}
			}()
			fn(worker, bvh.NewTraverser(sc))
			return nil
		})
	}
	err := g.Wait()
	return time.Since(start), err
}

func displayBenchResults(numWorkers int, results map[string]benchResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Query", "Rays", "Hits", "Time", "Mrays/sec"})
	for _, query := range []string{"closest", "shadow", "local"} {
		res := results[query]
		var mrays float64
		if res.elapsed > 0 {
			mrays = float64(res.rays) / res.elapsed.Seconds() / 1e6
		}
		table.Append([]string{
			query,
			fmt.Sprintf("%d", res.rays),
			fmt.Sprintf("%d", res.hits),
			res.elapsed.String(),
			fmt.Sprintf("%.3f", mrays),
		})
	}
	table.SetFooter([]string{"", "", "", "WORKERS", fmt.Sprintf("%d", numWorkers)})

	table.Render()
	logger.Noticef("traversal benchmark\n%s", buf.String())
}
