package writer

import (
	"io"
	"os"

	"github.com/achilleasa/raykernel/asset/scene"
)

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition
	Write(*scene.Scene) error
}

// Write scene to a compiled scene archive.
func WriteScene(sc *scene.Scene, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	err = newZipSceneWriter(f).Write(sc)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Write scene archive to an arbitrary stream.
func WriteSceneTo(sc *scene.Scene, w io.Writer) error {
	return newZipSceneWriter(w).Write(sc)
}
