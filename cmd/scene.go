package cmd

import (
	"errors"
	"strings"

	"github.com/achilleasa/raykernel/asset/compiler"
	"github.com/achilleasa/raykernel/asset/compiler/input"
	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/asset/scene/reader"
	"github.com/achilleasa/raykernel/asset/scene/writer"
	"github.com/urfave/cli"
)

// The scene argument that selects the built-in demo scene.
const demoSceneName = "demo"

var errMissingScene = errors.New("missing scene file argument")

// Get the scene compiler options from the command flags.
func compilerOptions(ctx *cli.Context) compiler.Options {
	return compiler.Options{
		Instancing:   !ctx.Bool("flat"),
		MinLeafItems: ctx.Int("leaf-items"),
	}
}

// Load a wavefront scene, a compiled scene archive or the built-in demo
// scene.
func loadScene(ctx *cli.Context, sceneFile string) (*scene.Scene, error) {
	opts := compilerOptions(ctx)
	if sceneFile == demoSceneName {
		logger.Noticef("compiling built-in demo scene")
		return compiler.Compile(input.DemoScene(), opts)
	}

	logger.Noticef("loading scene: %s", sceneFile)
	return reader.ReadScene(sceneFile, opts)
}

// Compile scene to binary format.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errMissingScene
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile, compilerOptions(ctx))
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		zipFile := strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		if err = writer.WriteScene(sc, zipFile); err != nil {
			return err
		}
		logger.Noticef("wrote compiled scene to %s", zipFile)
	}

	return nil
}

// Display information about a scene.
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errMissingScene
	}

	sc, err := loadScene(ctx, ctx.Args().First())
	if err != nil {
		return err
	}

	if err = sc.Validate(); err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	return nil
}
