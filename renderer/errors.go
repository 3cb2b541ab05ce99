package renderer

import "errors"

var (
	ErrSceneNotDefined   = errors.New("renderer: no scene defined")
	ErrSurfaceNotDefined = errors.New("renderer: no target surface defined")
	ErrInvalidSurface    = errors.New("renderer: target surface has invalid dimensions")
	ErrInvalidTileSize   = errors.New("renderer: tile dimensions must be positive")
	ErrInvalidOptions    = errors.New("renderer: invalid options")
)
