package reader

import (
	"fmt"

	"github.com/achilleasa/raykernel/asset"
	"github.com/achilleasa/raykernel/asset/compiler"
	"github.com/achilleasa/raykernel/asset/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Wavefront scenes are compiled using the supplied
// options while compiled scene archives are loaded as-is.
func ReadScene(filename string, opts compiler.Options) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader(opts)
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format %q", res.Ext())
	}
	return reader.Read(res)
}
