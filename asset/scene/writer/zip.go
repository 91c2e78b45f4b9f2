package writer

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/log"
)

const (
	dataFile = "scene.bin"
)

type zipSceneWriter struct {
	logger log.Logger
	out    io.Writer
}

// Create a new zip scene writer.
func newZipSceneWriter(out io.Writer) *zipSceneWriter {
	return &zipSceneWriter{
		logger: log.New("zip writer"),
		out:    out,
	}
}

// Write compiled scene to a zip archive.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Notice("writing compressed scene")
	start := time.Now()

	zw := zip.NewWriter(w.out)

	cw, err := zw.Create(dataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(sc); err != nil {
		zw.Close()
		return fmt.Errorf("zipSceneWriter: failed to encode scene: %s", err.Error())
	}

	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
