// Package reader loads scene descriptions into a renderable scene.
package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/achilleasa/tileray/asset"
	"github.com/achilleasa/tileray/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(context.Context, *asset.Resource) (*scene.Scene, error)
}

// Read a scene from a local path or http(s) URL. The reader is selected by
// the file extension.
func ReadScene(ctx context.Context, location string) (*scene.Scene, error) {
	var reader Reader
	switch {
	case strings.HasSuffix(strings.ToLower(location), ".obj"):
		reader = NewWavefrontReader()
	default:
		return nil, fmt.Errorf("reader: unsupported file format for %q", location)
	}

	res, err := asset.Open(ctx, location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(ctx, res)
}
