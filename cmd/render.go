package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/achilleasa/tileray/asset/writer"
	"github.com/achilleasa/tileray/renderer"
	"github.com/achilleasa/tileray/scene"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
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

	surface := renderer.NewImageSurface(ctx.Int("width"), ctx.Int("height"))
	logger.Noticef("rendering %dx%d frame with %d samples per pixel", surface.Width(), surface.Height(), opts.MaxSamples)
	start := time.Now()
	if err := converge(sigCtx, r, camera, surface, sc); err != nil {
		return err
	}
	logger.Noticef("rendered frame in %d ms", time.Since(start).Milliseconds())
	displayFrameStats(r.Stats())

	out := ctx.String("out")
	start = time.Now()
	if err := writer.WriteImage(out, surface.Image(), float32(ctx.Float64("scale"))); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", out, time.Since(start).Milliseconds())
	return nil
}

// Keep rendering until the renderer reaches its sample budget. A canceled
// ctx stops early and keeps the partially converged frame.
func converge(ctx context.Context, r *renderer.Renderer, camera *scene.Camera, surface renderer.Surface, sc *scene.Scene) error {
	view := camera.ViewMatrix()
	for !r.Converged() {
		if ctx.Err() != nil {
			logger.Warningf("interrupted after %d samples per pixel", r.SampleCount())
			return nil
		}
		if err := r.Render(view, surface, sc); err != nil {
			return err
		}
	}
	return nil
}
