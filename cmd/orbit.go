package cmd

import (
	"context"
	"image"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/achilleasa/tileray/asset/writer"
	"github.com/achilleasa/tileray/renderer"
	"github.com/urfave/cli"
)

// Render an animation of the camera orbiting its look-at point.
func RenderOrbit(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	sc, camera, err := loadScene(ctx, &opts)
	if err != nil {
		return err
	}

	r, err := renderer.New(opts, nil)
	if err != nil {
		return err
	}
	defer r.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	numFrames := max(1, ctx.Int("frames"))
	step := float32(2 * math.Pi / float64(numFrames))
	scale := float32(ctx.Float64("scale"))
	surface := renderer.NewImageSurface(ctx.Int("width"), ctx.Int("height"))
	frames := make([]image.Image, 0, numFrames)

	start := time.Now()
	for frame := 0; frame < numFrames && sigCtx.Err() == nil; frame++ {
		if frame > 0 {
			camera.Orbit(step)
			r.OnCameraMoved()
		}

		if err := converge(sigCtx, r, camera, surface, sc); err != nil {
			return err
		}
		frames = append(frames, writer.Scale(surface.Image(), scale))
		logger.Infof("rendered orbit frame %d/%d", frame+1, numFrames)
	}
	logger.Noticef("rendered %d frames in %d ms", len(frames), time.Since(start).Milliseconds())
	displayFrameStats(r.Stats())

	out := ctx.String("out")
	delay := time.Duration(ctx.Int("delay")) * time.Millisecond
	if err := writer.WriteAnimation(out, frames, delay); err != nil {
		return err
	}
	logger.Noticef("wrote %d frame animation to %s", len(frames), out)
	return nil
}
