package renderer

import (
	"image"
	"image/png"
	"os"
)

// Write a rendered frame to a png file.
func SaveFrame(frame image.Image, imgFile string) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}

	err = png.Encode(f, frame)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
