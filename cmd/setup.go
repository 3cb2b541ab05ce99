package cmd

import (
	"context"
	"errors"

	"github.com/achilleasa/tileray/asset/reader"
	"github.com/achilleasa/tileray/renderer"
	"github.com/achilleasa/tileray/scene"
	"github.com/urfave/cli"
)

// Flags for the render command.
var FrameFlags = append(renderFlags(),
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame (.png, .webp or .tga)",
	},
)

// Flags for the orbit command.
var OrbitFlags = append(renderFlags(),
	cli.IntFlag{
		Name:  "frames",
		Value: 36,
		Usage: "number of frames in a full orbit",
	},
	cli.IntFlag{
		Name:  "delay",
		Value: 80,
		Usage: "delay between animation frames in milliseconds",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "orbit.webp",
		Usage: "filename for the animated webp",
	},
)

// Flags shared by the render and orbit commands.
func renderFlags() []cli.Flag {
	return []cli.Flag{
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
			Usage: "samples per pixel (default: options file or 64)",
		},
		cli.IntFlag{
			Name:  "tile",
			Usage: "tile width and height in pixels",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of render workers (default: number of CPUs)",
		},
		cli.IntFlag{
			Name:  "seed",
			Usage: "base seed for the per-tile random streams",
		},
		cli.Float64Flag{
			Name:  "fov",
			Usage: "vertical field of view in degrees (default: scene camera or 60)",
		},
		cli.Float64Flag{
			Name:  "aperture",
			Usage: "lens radius for depth of field",
		},
		cli.Float64Flag{
			Name:  "focus-dist",
			Usage: "distance to the plane in focus",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Usage: "camera exposure for tone-mapping (default: options file or 1)",
		},
		cli.Float64Flag{
			Name:  "scale",
			Value: 1.0,
			Usage: "rescale the output image by this factor",
		},
		cli.StringFlag{
			Name:  "options",
			Usage: "load render options from a JSON file; flags override file values",
		},
	}
}

// Options file keys set by each render flag.
var flagOptionKeys = map[string][]string{
	"tile":       {"tile_width", "tile_height"},
	"spp":        {"max_samples"},
	"workers":    {"workers"},
	"seed":       {"seed"},
	"fov":        {"fov"},
	"aperture":   {"aperture"},
	"focus-dist": {"focus_distance"},
	"exposure":   {"exposure"},
}

// Build render options from an optional options file and the command flags.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()
	if path := ctx.String("options"); path != "" {
		var err error
		if opts, err = renderer.LoadOptions(path); err != nil {
			return opts, err
		}
	}

	override := renderer.Options{
		TileW:         ctx.Int("tile"),
		TileH:         ctx.Int("tile"),
		MaxSamples:    ctx.Int("spp"),
		Workers:       ctx.Int("workers"),
		Seed:          uint32(ctx.Int("seed")),
		FOV:           float32(ctx.Float64("fov")),
		Aperture:      float32(ctx.Float64("aperture")),
		FocusDistance: float32(ctx.Float64("focus-dist")),
		Exposure:      float32(ctx.Float64("exposure")),
	}

	// Only flags given on the command line override the options file.
	var keys []string
	for flagName, optionKeys := range flagOptionKeys {
		if ctx.IsSet(flagName) {
			keys = append(keys, optionKeys...)
		}
	}

	opts, err := opts.Merge(override, keys...)
	if err != nil {
		return opts, err
	}

	// Offline renders must terminate.
	if opts.MaxSamples <= 0 {
		return opts, errors.New("samples per pixel must be positive")
	}
	return opts, opts.Validate()
}

// Load the scene named by the first command argument and pick a camera for
// it. Scenes without a camera get one framing their bounding box.
func loadScene(ctx *cli.Context, opts *renderer.Options) (*scene.Scene, *scene.Camera, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(context.Background(), ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("scene information:\n%s", sc.Stats())

	camera := sc.Camera
	if camera == nil {
		camera = scene.NewCamera(opts.FOV)
		camera.Frame(sc.BBox())
		logger.Infof("scene defines no camera; framing bbox from %v", camera.Position)
	} else if !ctx.IsSet("fov") && camera.FOV > 0 {
		opts.FOV = camera.FOV
	}
	return sc, camera, nil
}

func displayFrameStats(stats renderer.FrameStats) {
	logger.Noticef("frame statistics\n%s", stats.Table())
}
