package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/tileray/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "tileray"
	app.Usage = "progressive tile-parallel ray tracing of triangle mesh scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringSliceFlag{
			Name:  "log-module",
			Value: &cli.StringSlice{},
			Usage: "set the log level of a single module, e.g. bvh=debug",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a still frame",
			Description: `
Load a wavefront obj scene, build a BVH for each model and progressively
accumulate samples until the requested samples per pixel are reached.

The frame is written as png, webp or tga depending on the output extension.`,
			ArgsUsage: "scene_file.obj",
			Flags:     cmd.FrameFlags,
			Action:    cmd.RenderFrame,
		},
		{
			Name:  "orbit",
			Usage: "render an animation of the camera orbiting the scene",
			Description: `
Render a sequence of frames while the camera orbits its look-at point and
write them as an animated webp. Accumulation restarts for every frame.`,
			ArgsUsage: "scene_file.obj",
			Flags:     cmd.OrbitFlags,
			Action:    cmd.RenderOrbit,
		},
		{
			Name:      "info",
			Usage:     "display scene statistics",
			ArgsUsage: "scene_file.obj",
			Action:    cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
