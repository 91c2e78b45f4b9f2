package cmd

import "github.com/urfave/cli"

// Build the cli application.
func NewApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	sceneFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  "flat",
			Usage: "bake objects into a single BVH instead of instancing meshes",
		},
		cli.IntFlag{
			Name:  "leaf-items",
			Value: 0,
			Usage: "min number of primitives per BVH leaf (0 selects the default)",
		},
	}

	app := cli.NewApp()
	app.Name = "raykernel"
	app.Usage = "trace rays through BVH accelerated scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file, build a BVH tree to optimize
ray intersection tests and package scene elements into flat arrays.

The compiled scene data is then written to a zip archive which can be supplied
as an argument to the render command.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags:     sceneFlags,
			Action:    CompileScene,
		},
		{
			Name:      "info",
			Usage:     "validate a scene and display its statistics",
			ArgsUsage: "scene_file.(obj|zip) or demo",
			Flags:     sceneFlags,
			Action:    SceneInfo,
		},
		{
			Name:  "render",
			Usage: "render single frame",
			Description: `
Render a single frame of a wavefront obj scene, a compiled zip scene or the
built-in demo scene and write it to a png file.`,
			ArgsUsage: "scene_file.(obj|zip) or demo",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.StringFlag{
					Name:  "integrator, i",
					Value: "direct",
					Usage: "integrator to use (normals, depth, uv, direct, ao, thickness)",
				},
				cli.IntFlag{
					Name:  "max-shadow-hits",
					Value: 8,
					Usage: "max number of transparent surfaces that shadow rays can pass through",
				},
				cli.Float64Flag{
					Name:  "ao-distance",
					Value: 0.5,
					Usage: "max distance of ambient occlusion rays",
				},
				cli.IntFlag{
					Name:  "tile-size",
					Value: 64,
					Usage: "tile width and height",
				},
				cli.StringFlag{
					Name:  "tile-order",
					Value: "center",
					Usage: "tile order (center, left-to-right, right-to-left, top-to-bottom, bottom-to-top)",
				},
				cli.BoolFlag{
					Name:  "background",
					Usage: "split the frame in a tile grid instead of one slice per tracer",
				},
				cli.BoolFlag{
					Name:  "progressive",
					Usage: "render reduced resolution previews and add one sample per pass",
				},
				cli.IntFlag{
					Name:  "start-resolution",
					Value: 64,
					Usage: "pixels per axis of the first progressive pass",
				},
				cli.BoolFlag{
					Name:  "preserve-tile-device",
					Usage: "prevent tracers from stealing tiles assigned to other tracers",
				},
				cli.IntFlag{
					Name:  "tracers",
					Value: 0,
					Usage: "number of cpu tracers (0 uses one tracer per cpu)",
				},
				cli.IntFlag{
					Name:  "seed",
					Value: 0,
					Usage: "random seed",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, sceneFlags...),
			Action: RenderFrame,
		},
		{
			Name:      "bench",
			Usage:     "measure ray traversal throughput",
			ArgsUsage: "scene_file.(obj|zip) or demo",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "number of camera rays per row",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "number of camera ray rows",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of workers (0 uses one worker per cpu)",
				},
				cli.IntFlag{
					Name:  "max-shadow-hits",
					Value: 8,
					Usage: "max number of transparent surfaces that shadow rays can pass through",
				},
			}, sceneFlags...),
			Action: BenchTraversal,
		},
	}

	return app
}
