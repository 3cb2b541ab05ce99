package tracer

import (
	"image"
	"time"

	"github.com/achilleasa/tileray/types"
)

// Tile is a rectangular region of the frame. Tiles produced by NewTileGrid
// never overlap.
type Tile struct {
	ID     int
	Bounds image.Rectangle
}

// Get the number of pixels in the tile.
func (t Tile) Pixels() int {
	return t.Bounds.Dx() * t.Bounds.Dy()
}

// Partition a width x height frame into tiles of at most tileW x tileH
// pixels. Tiles along the right and bottom edges are clipped to the frame.
func NewTileGrid(width, height, tileW, tileH int) []Tile {
	if width <= 0 || height <= 0 || tileW <= 0 || tileH <= 0 {
		return nil
	}

	tilesX := (width + tileW - 1) / tileW
	tilesY := (height + tileH - 1) / tileH
	tiles := make([]Tile, 0, tilesX*tilesY)
	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileW
			y0 := tileY * tileH
			tiles = append(tiles, Tile{
				ID:     len(tiles),
				Bounds: image.Rect(x0, y0, min(x0+tileW, width), min(y0+tileH, height)),
			})
		}
	}

	return tiles
}

// TileTask is one unit of work: trace one sample for every pixel of a tile.
// Accum is the tile's own accumulation slice laid out row-major with the
// tile width as stride; no other task ever references it.
type TileTask struct {
	Tile Tile

	// Sample index within the current progressive sequence. The pixel
	// average written to the surface is sum / (Sample+1).
	Sample int

	// Seed for the task's random stream.
	Seed uint32

	Accum []types.Vec3
}

// Per-task tracer statistics.
type Stats struct {
	Pixels      int
	PrimaryRays int
	ShadowRays  int
	Hits        int

	// Time spent rendering the tile.
	TileTime time.Duration
}

// Add another set of statistics to s.
func (s *Stats) Add(other Stats) {
	s.Pixels += other.Pixels
	s.PrimaryRays += other.PrimaryRays
	s.ShadowRays += other.ShadowRays
	s.Hits += other.Hits
	s.TileTime += other.TileTime
}
