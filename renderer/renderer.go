// Package renderer drives progressive, tile-parallel rendering of a scene
// into a display surface.
package renderer

import (
	"sync"
	"time"

	"github.com/achilleasa/tileray/log"
	"github.com/achilleasa/tileray/sampler"
	"github.com/achilleasa/tileray/scene"
	"github.com/achilleasa/tileray/tracer"
	"github.com/achilleasa/tileray/types"
)

// Renderer accumulates one sample per pixel on every Render call until
// MaxSamples is reached. Each tile owns a private accumulation slice so tile
// tasks never share mutable state.
type Renderer struct {
	mu sync.Mutex

	logger log.Logger
	opts   Options
	sched  tracer.Scheduler

	width, height int
	tiles         []tracer.Tile
	accum         [][]types.Vec3

	// Number of samples accumulated into every pixel.
	sampleCount int

	lastView types.Mat4
	hasView  bool

	stats FrameStats
}

// Create a renderer that dispatches tile tasks to sched. If sched is nil a
// worker pool with opts.Workers workers is created.
func New(opts Options, sched tracer.Scheduler) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if sched == nil {
		sched = tracer.NewPoolScheduler(opts.Workers)
	}

	return &Renderer{
		logger: log.New("renderer"),
		opts:   opts,
		sched:  sched,
	}, nil
}

// Render traces one more sample for every pixel of target as seen from the
// camera-to-world matrix view and refreshes target with the running average.
// The accumulation is reset when view or the surface size differs from the
// previous call. Once MaxSamples have been accumulated Render returns
// without touching target.
func (r *Renderer) Render(view types.Mat4, target Surface, sc *scene.Scene) error {
	if sc == nil {
		return ErrSceneNotDefined
	}
	if target == nil {
		return ErrSurfaceNotDefined
	}

	width, height := target.Width(), target.Height()
	pixels := target.Pixels()
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return ErrInvalidSurface
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if width != r.width || height != r.height {
		r.resize(width, height)
	} else if r.hasView && view != r.lastView {
		r.reset()
	}
	r.lastView = view
	r.hasView = true

	if r.converged() {
		return nil
	}

	frustum := scene.FrustumFromView(view, r.opts.FOV, float32(width)/float32(height))
	tr := tracer.New(sc, frustum, width, height, tracer.Config{
		ShadowBias:    r.opts.ShadowBias,
		Background:    r.opts.Background,
		Aperture:      r.opts.Aperture,
		FocusDistance: r.opts.FocusDistance,
		Exposure:      r.opts.Exposure,
	})

	tasks := make([]tracer.TileTask, len(r.tiles))
	for i, tile := range r.tiles {
		tasks[i] = tracer.TileTask{
			Tile:   tile,
			Sample: r.sampleCount,
			Seed:   sampler.TileSeed(r.opts.Seed, tile.Bounds.Min.X, tile.Bounds.Min.Y, r.sampleCount),
			Accum:  r.accum[i],
		}
	}

	// Each task writes only its own slot.
	taskStats := make([]tracer.Stats, len(tasks))
	start := time.Now()
	r.sched.Run(tasks, func(task tracer.TileTask) {
		taskStats[task.Tile.ID] = tr.RenderTile(task, pixels, width)
	})
	r.sampleCount++

	stats := FrameStats{
		SampleCount: r.sampleCount,
		Tiles:       len(tasks),
		Workers:     r.sched.Workers(),
		RenderTime:  time.Since(start),
		Converged:   r.converged(),
	}
	for _, ts := range taskStats {
		stats.Pixels += ts.Pixels
		stats.PrimaryRays += ts.PrimaryRays
		stats.ShadowRays += ts.ShadowRays
		stats.Hits += ts.Hits
		if ts.TileTime > stats.SlowestTile {
			stats.SlowestTile = ts.TileTime
		}
	}
	r.stats = stats

	r.logger.Debugf("sample %d: %d tiles in %s", r.sampleCount, len(tasks), stats.RenderTime)
	if stats.Converged {
		r.logger.Noticef("converged after %d samples per pixel", r.sampleCount)
	}

	return nil
}

// OnCameraMoved discards all accumulated samples so the next Render starts
// a fresh progressive sequence.
func (r *Renderer) OnCameraMoved() {
	r.mu.Lock()
	r.reset()
	r.mu.Unlock()
}

// Get the number of samples accumulated per pixel.
func (r *Renderer) SampleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleCount
}

// Check whether the configured sample budget has been reached.
func (r *Renderer) Converged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.converged()
}

// Get statistics for the last rendered frame.
func (r *Renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Get the renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Shutdown the renderer and its scheduler.
func (r *Renderer) Close() {
	r.sched.Close()
}

func (r *Renderer) converged() bool {
	return r.opts.MaxSamples > 0 && r.sampleCount >= r.opts.MaxSamples
}

func (r *Renderer) reset() {
	for _, buf := range r.accum {
		clear(buf)
	}
	r.sampleCount = 0
	r.stats = FrameStats{}
}

func (r *Renderer) resize(width, height int) {
	r.width = width
	r.height = height
	r.tiles = tracer.NewTileGrid(width, height, r.opts.TileW, r.opts.TileH)
	r.accum = make([][]types.Vec3, len(r.tiles))
	for i, tile := range r.tiles {
		r.accum[i] = make([]types.Vec3, tile.Pixels())
	}
	r.sampleCount = 0
	r.stats = FrameStats{}
	r.logger.Infof("resized to %dx%d (%d tiles of %dx%d)", width, height, len(r.tiles), r.opts.TileW, r.opts.TileH)
}
