package renderer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/achilleasa/tileray/types"
)

// Options controls the progressive renderer. Fields map to keys of the JSON
// options file accepted by LoadOptions.
type Options struct {
	// Tile dimensions in pixels.
	TileW int `json:"tile_width"`
	TileH int `json:"tile_height"`

	// Number of samples per pixel after which rendering stops. A value of
	// 0 renders forever.
	MaxSamples int `json:"max_samples"`

	// Number of worker goroutines; <= 0 uses all CPUs.
	Workers int `json:"workers"`

	// Base seed for per-tile random streams.
	Seed uint32 `json:"seed"`

	// Vertical field of view in degrees.
	FOV float32 `json:"fov"`

	// Lens radius and focus distance for depth of field.
	Aperture      float32 `json:"aperture"`
	FocusDistance float32 `json:"focus_distance"`

	// Exposure for tone-mapping.
	Exposure float32 `json:"exposure"`

	// Offset along the surface normal for shadow ray origins.
	ShadowBias float32 `json:"shadow_bias"`

	// Color returned by rays that escape the scene.
	Background types.Vec3 `json:"background"`
}

// Get the default render options.
func DefaultOptions() Options {
	return Options{
		TileW:         32,
		TileH:         32,
		MaxSamples:    64,
		FOV:           60,
		FocusDistance: 1,
		Exposure:      1,
		ShadowBias:    1e-3,
	}
}

// Load options from a JSON file. Keys missing from the file keep their
// default values.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	opts := DefaultOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return opts, nil
}

// Merge returns a copy of o where the fields named by keys, using the JSON
// option names, are replaced by the values in override. Fields are copied
// even when the override value is zero. Unknown keys are reported as an
// error.
func (o Options) Merge(override Options, keys ...string) (Options, error) {
	for _, key := range keys {
		switch key {
		case "tile_width":
			o.TileW = override.TileW
		case "tile_height":
			o.TileH = override.TileH
		case "max_samples":
			o.MaxSamples = override.MaxSamples
		case "workers":
			o.Workers = override.Workers
		case "seed":
			o.Seed = override.Seed
		case "fov":
			o.FOV = override.FOV
		case "aperture":
			o.Aperture = override.Aperture
		case "focus_distance":
			o.FocusDistance = override.FocusDistance
		case "exposure":
			o.Exposure = override.Exposure
		case "shadow_bias":
			o.ShadowBias = override.ShadowBias
		case "background":
			o.Background = override.Background
		default:
			return o, fmt.Errorf("%w: unknown option %q", ErrInvalidOptions, key)
		}
	}
	return o, nil
}

// Validate checks that the options describe a renderable configuration.
func (o Options) Validate() error {
	if o.TileW <= 0 || o.TileH <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidTileSize, o.TileW, o.TileH)
	}
	if o.MaxSamples < 0 {
		return fmt.Errorf("%w: max samples must be >= 0; got %d", ErrInvalidOptions, o.MaxSamples)
	}
	if o.FOV <= 0 || o.FOV >= 180 {
		return fmt.Errorf("%w: fov must be in (0, 180); got %f", ErrInvalidOptions, o.FOV)
	}
	if o.Exposure <= 0 {
		return fmt.Errorf("%w: exposure must be positive; got %f", ErrInvalidOptions, o.Exposure)
	}
	if o.Aperture < 0 || o.ShadowBias < 0 {
		return fmt.Errorf("%w: aperture and shadow bias must not be negative", ErrInvalidOptions)
	}
	return nil
}
