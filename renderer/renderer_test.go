package renderer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/scene"
	"github.com/achilleasa/tileray/tracer"
	"github.com/achilleasa/tileray/types"
)

var wallColor = types.XYZ(1, 0, 0.25)

// Build a large emissive wall at z = 5 that covers the whole view of a
// camera at the origin looking down +Z.
func wallScene() *scene.Scene {
	faces := [][3]types.Vec3{
		{types.XYZ(-100, -100, 5), types.XYZ(100, -100, 5), types.XYZ(100, 100, 5)},
		{types.XYZ(-100, -100, 5), types.XYZ(100, 100, 5), types.XYZ(-100, 100, 5)},
	}
	normals := []types.Vec3{types.XYZ(0, 0, -1), types.XYZ(0, 0, -1)}
	mesh, err := geometry.NewMesh("wall", faces, normals, geometry.Material{Color: wallColor, Emissive: true})
	if err != nil {
		panic(err)
	}

	sc := scene.New()
	if err := sc.AddModel(geometry.NewModel("wall", mesh)); err != nil {
		panic(err)
	}
	return sc
}

// Build a diffuse floor lit by a point light.
func litScene() *scene.Scene {
	faces := [][3]types.Vec3{
		{types.XYZ(-10, -1, -10), types.XYZ(-10, -1, 10), types.XYZ(10, -1, 10)},
		{types.XYZ(-10, -1, -10), types.XYZ(10, -1, 10), types.XYZ(10, -1, -10)},
	}
	normals := []types.Vec3{types.XYZ(0, 1, 0), types.XYZ(0, 1, 0)}
	mesh, err := geometry.NewMesh("floor", faces, normals, geometry.Material{Color: types.XYZ(0.8, 0.6, 0.4)})
	if err != nil {
		panic(err)
	}

	sc := scene.New()
	if err := sc.AddModel(geometry.NewModel("floor", mesh)); err != nil {
		panic(err)
	}
	sc.AddPointLight(scene.PointLight{Position: types.XYZ(0, 3, 0), Color: types.Splat3(1), Intensity: 1})
	return sc
}

func litView() types.Mat4 {
	return types.LookAtV(types.XYZ(0, 1, 4), types.XYZ(0, -1, 0), types.XYZ(0, 1, 0))
}

func testOptions(maxSamples int) Options {
	opts := DefaultOptions()
	opts.TileW = 8
	opts.TileH = 8
	opts.MaxSamples = maxSamples
	opts.Seed = 42
	return opts
}

func newSerialRenderer(t *testing.T, opts Options) *Renderer {
	r, err := New(opts, tracer.NewSerialScheduler())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func snapshotAccum(r *Renderer) [][]types.Vec3 {
	out := make([][]types.Vec3, len(r.accum))
	for i, buf := range r.accum {
		out[i] = append([]types.Vec3(nil), buf...)
	}
	return out
}

func TestRenderErrors(t *testing.T) {
	r := newSerialRenderer(t, testOptions(0))
	sc := wallScene()

	if err := r.Render(types.Ident4(), NewImageSurface(4, 4), nil); !errors.Is(err, ErrSceneNotDefined) {
		t.Fatalf("expected ErrSceneNotDefined; got %v", err)
	}
	if err := r.Render(types.Ident4(), nil, sc); !errors.Is(err, ErrSurfaceNotDefined) {
		t.Fatalf("expected ErrSurfaceNotDefined; got %v", err)
	}
	if err := r.Render(types.Ident4(), NewImageSurface(0, 4), sc); !errors.Is(err, ErrInvalidSurface) {
		t.Fatalf("expected ErrInvalidSurface; got %v", err)
	}

	opts := testOptions(0)
	opts.TileW = 0
	if _, err := New(opts, nil); !errors.Is(err, ErrInvalidTileSize) {
		t.Fatalf("expected ErrInvalidTileSize; got %v", err)
	}
}

func TestProgressiveAccumulation(t *testing.T) {
	r := newSerialRenderer(t, testOptions(0))
	sc := wallScene()
	surface := NewImageSurface(19, 13)
	expPixel := uint32(0xFF0040)

	for frame := 1; frame <= 4; frame++ {
		if err := r.Render(types.Ident4(), surface, sc); err != nil {
			t.Fatal(err)
		}

		if got := r.SampleCount(); got != frame {
			t.Fatalf("[frame %d] expected sample count %d; got %d", frame, frame, got)
		}

		expAccum := wallColor.Mul(float32(frame))
		for tileIndex, buf := range r.accum {
			for pixIndex, sum := range buf {
				if sum != expAccum {
					t.Fatalf("[frame %d] expected tile %d pixel %d accumulation %v; got %v", frame, tileIndex, pixIndex, expAccum, sum)
				}
			}
		}

		for i, p := range surface.Pixels() {
			if p != expPixel {
				t.Fatalf("[frame %d] expected pixel %d to be 0x%06X; got 0x%06X", frame, i, expPixel, p)
			}
		}

		stats := r.Stats()
		if stats.Pixels != 19*13 || stats.PrimaryRays != 19*13 || stats.Hits != 19*13 {
			t.Fatalf("[frame %d] expected %d pixels, rays and hits; got %+v", frame, 19*13, stats)
		}
		if stats.Tiles != 3*2 {
			t.Fatalf("[frame %d] expected 6 tiles; got %d", frame, stats.Tiles)
		}
	}
}

func TestConvergenceStopsRendering(t *testing.T) {
	r := newSerialRenderer(t, testOptions(2))
	sc := wallScene()
	surface := NewImageSurface(8, 8)

	for i := 0; i < 2; i++ {
		if err := r.Render(types.Ident4(), surface, sc); err != nil {
			t.Fatal(err)
		}
	}
	if !r.Converged() || !r.Stats().Converged {
		t.Fatal("expected renderer to be converged after 2 samples")
	}

	accum := snapshotAccum(r)
	for i := range surface.Pixels() {
		surface.Pixels()[i] = 0xDEADBEEF
	}

	if err := r.Render(types.Ident4(), surface, sc); err != nil {
		t.Fatal(err)
	}
	if got := r.SampleCount(); got != 2 {
		t.Fatalf("expected sample count to stay at 2; got %d", got)
	}
	for i, p := range surface.Pixels() {
		if p != 0xDEADBEEF {
			t.Fatalf("expected converged render not to touch pixel %d; got 0x%08X", i, p)
		}
	}
	for tileIndex := range accum {
		for pixIndex := range accum[tileIndex] {
			if accum[tileIndex][pixIndex] != r.accum[tileIndex][pixIndex] {
				t.Fatalf("expected converged render not to touch accumulation of tile %d pixel %d", tileIndex, pixIndex)
			}
		}
	}
}

func TestOnCameraMovedResets(t *testing.T) {
	sc := litScene()

	fresh := newSerialRenderer(t, testOptions(0))
	if err := fresh.Render(litView(), NewImageSurface(24, 16), sc); err != nil {
		t.Fatal(err)
	}
	firstSample := snapshotAccum(fresh)

	r := newSerialRenderer(t, testOptions(0))
	surface := NewImageSurface(24, 16)
	for i := 0; i < 3; i++ {
		if err := r.Render(litView(), surface, sc); err != nil {
			t.Fatal(err)
		}
	}
	beforeReset := snapshotAccum(r)

	r.OnCameraMoved()
	if got := r.SampleCount(); got != 0 {
		t.Fatalf("expected sample count 0 after reset; got %d", got)
	}
	for tileIndex, buf := range r.accum {
		for pixIndex, sum := range buf {
			if sum != (types.Vec3{}) {
				t.Fatalf("expected tile %d pixel %d to be cleared; got %v", tileIndex, pixIndex, sum)
			}
		}
	}

	if err := r.Render(litView(), surface, sc); err != nil {
		t.Fatal(err)
	}
	if got := r.SampleCount(); got != 1 {
		t.Fatalf("expected sample count 1; got %d", got)
	}

	differs := false
	for tileIndex := range r.accum {
		for pixIndex, sum := range r.accum[tileIndex] {
			if sum != firstSample[tileIndex][pixIndex] {
				t.Fatalf("expected tile %d pixel %d to match a fresh first sample; got %v, want %v", tileIndex, pixIndex, sum, firstSample[tileIndex][pixIndex])
			}
			if sum != beforeReset[tileIndex][pixIndex] {
				differs = true
			}
		}
	}
	if !differs {
		t.Fatal("expected post-reset accumulation to differ from the pre-reset state")
	}
}

func TestViewAndSizeChangesReset(t *testing.T) {
	r := newSerialRenderer(t, testOptions(0))
	sc := litScene()
	surface := NewImageSurface(16, 16)

	for i := 0; i < 3; i++ {
		if err := r.Render(litView(), surface, sc); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.SampleCount(); got != 3 {
		t.Fatalf("expected sample count 3; got %d", got)
	}

	moved := types.LookAtV(types.XYZ(1, 1, 4), types.XYZ(0, -1, 0), types.XYZ(0, 1, 0))
	if err := r.Render(moved, surface, sc); err != nil {
		t.Fatal(err)
	}
	if got := r.SampleCount(); got != 1 {
		t.Fatalf("expected view change to restart accumulation; got sample count %d", got)
	}

	if err := r.Render(moved, NewImageSurface(20, 10), sc); err != nil {
		t.Fatal(err)
	}
	if got := r.SampleCount(); got != 1 {
		t.Fatalf("expected resize to restart accumulation; got sample count %d", got)
	}
	if got := len(r.tiles); got != 3*2 {
		t.Fatalf("expected 6 tiles after resize; got %d", got)
	}
}

func TestSerialAndPoolRenderersMatch(t *testing.T) {
	sc := litScene()

	serial := newSerialRenderer(t, testOptions(0))
	pooled, err := New(testOptions(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pooled.Close()

	serialSurface := NewImageSurface(45, 30)
	pooledSurface := NewImageSurface(45, 30)
	for frame := 0; frame < 3; frame++ {
		if err := serial.Render(litView(), serialSurface, sc); err != nil {
			t.Fatal(err)
		}
		if err := pooled.Render(litView(), pooledSurface, sc); err != nil {
			t.Fatal(err)
		}

		for i, p := range serialSurface.Pixels() {
			if p != pooledSurface.Pixels()[i] {
				t.Fatalf("[frame %d] expected identical pixel %d; got 0x%06X (serial) and 0x%06X (pool)", frame, i, p, pooledSurface.Pixels()[i])
			}
		}
	}
}

func TestImageSurface(t *testing.T) {
	s := NewImageSurface(2, 1)
	s.Pixels()[0] = 0x102030
	s.Pixels()[1] = 0xFF00FF

	img := s.Image()
	exp := []uint8{0x10, 0x20, 0x30, 0xFF, 0xFF, 0x00, 0xFF, 0xFF}
	for i, v := range exp {
		if img.Pix[i] != v {
			t.Fatalf("expected Pix[%d] to be 0x%02X; got 0x%02X", i, v, img.Pix[i])
		}
	}
}

func TestFrameStatsTable(t *testing.T) {
	table := FrameStats{SampleCount: 3, Tiles: 4, PrimaryRays: 10, Hits: 5, Converged: true}.Table()
	for _, exp := range []string{"Samples", "Primary rays", "50.0 %", "Converged", "true"} {
		if !strings.Contains(table, exp) {
			t.Fatalf("expected table to contain %q; got\n%s", exp, table)
		}
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "opts.json")
	data := `{"tile_width": 16, "max_samples": 128, "background": [0.1, 0.2, 0.3]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatal(err)
	}
	defaults := DefaultOptions()
	if opts.TileW != 16 || opts.MaxSamples != 128 {
		t.Fatalf("expected tile width 16 and 128 samples; got %d and %d", opts.TileW, opts.MaxSamples)
	}
	if opts.TileH != defaults.TileH || opts.FOV != defaults.FOV || opts.ShadowBias != defaults.ShadowBias {
		t.Fatalf("expected missing keys to keep their defaults; got %+v", opts)
	}
	if opts.Background != types.XYZ(0.1, 0.2, 0.3) {
		t.Fatalf("expected background (0.1, 0.2, 0.3); got %v", opts.Background)
	}

	if _, err := LoadOptions(filepath.Join(dir, "missing.json")); err == nil || !strings.Contains(err.Error(), "config: read") {
		t.Fatalf("expected read error; got %v", err)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOptions(badPath); err == nil || !strings.Contains(err.Error(), "config: parse") {
		t.Fatalf("expected parse error; got %v", err)
	}
}

func TestMergeAndValidateOptions(t *testing.T) {
	base := DefaultOptions()
	base.Aperture = 0.1
	merged, err := base.Merge(Options{TileW: 64, Exposure: 2, Seed: 9}, "tile_width", "exposure", "seed", "aperture")
	if err != nil {
		t.Fatal(err)
	}
	if merged.TileW != 64 || merged.TileH != 32 || merged.Exposure != 2 || merged.Seed != 9 {
		t.Fatalf("expected only the named fields to override; got %+v", merged)
	}
	if merged.Aperture != 0 {
		t.Fatalf("expected a zero override to reset aperture; got %f", merged.Aperture)
	}
	if _, err := base.Merge(Options{}, "tile"); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for an unknown key; got %v", err)
	}

	specs := []struct {
		mutate func(*Options)
		expErr error
	}{
		{func(o *Options) {}, nil},
		{func(o *Options) { o.TileH = -1 }, ErrInvalidTileSize},
		{func(o *Options) { o.MaxSamples = -1 }, ErrInvalidOptions},
		{func(o *Options) { o.FOV = 180 }, ErrInvalidOptions},
		{func(o *Options) { o.Exposure = 0 }, ErrInvalidOptions},
		{func(o *Options) { o.Aperture = -0.1 }, ErrInvalidOptions},
	}

	for specIndex, spec := range specs {
		opts := DefaultOptions()
		spec.mutate(&opts)
		err := opts.Validate()
		if spec.expErr == nil {
			if err != nil {
				t.Fatalf("[spec %d] expected no error; got %v", specIndex, err)
			}
			continue
		}
		if !errors.Is(err, spec.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}
}
