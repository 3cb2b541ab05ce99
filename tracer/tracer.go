// Package tracer turns tile tasks into pixels: it generates camera rays,
// resolves them against a scene and shades hits with one direct light
// sample per pixel.
package tracer

import (
	"math"
	"time"

	"github.com/achilleasa/tileray/bvh"
	"github.com/achilleasa/tileray/sampler"
	"github.com/achilleasa/tileray/scene"
	"github.com/achilleasa/tileray/types"
)

var posInf = float32(math.Inf(1))

// Config holds the per-frame shading and lens parameters.
type Config struct {
	// Offset applied along the surface normal to shadow ray origins.
	ShadowBias float32

	// Radiance returned for rays that escape the scene.
	Background types.Vec3

	// Lens radius; depth of field is disabled when <= 0.
	Aperture float32

	// Distance from the eye to the plane in perfect focus.
	FocusDistance float32

	// Multiplier applied to radiance before packing.
	Exposure float32
}

// Tracer renders tiles of a single frame. It only reads from the scene and
// frustum so one Tracer may serve every task of a frame concurrently.
type Tracer struct {
	scene   *scene.Scene
	frustum scene.Frustum
	cfg     Config

	width, height int

	// Unit camera axes used for lens sampling.
	lensRight types.Vec3
	lensUp    types.Vec3
}

// Create a tracer for a width x height frame seen through frustum.
func New(sc *scene.Scene, frustum scene.Frustum, width, height int, cfg Config) *Tracer {
	return &Tracer{
		scene:     sc,
		frustum:   frustum,
		cfg:       cfg,
		width:     width,
		height:    height,
		lensRight: frustum.TopRight.Sub(frustum.TopLeft).Normalize(),
		lensUp:    frustum.TopLeft.Sub(frustum.BottomLeft).Normalize(),
	}
}

// RenderTile traces one jittered sample per pixel of task.Tile, adds it to
// the tile accumulation slice and writes the packed running average into
// pixels, a row-major buffer with the given stride.
func (tr *Tracer) RenderTile(task TileTask, pixels []uint32, stride int) Stats {
	start := time.Now()
	rng := sampler.New(task.Seed)
	stats := Stats{}

	bounds := task.Tile.Bounds
	tileW := bounds.Dx()
	scale := 1.0 / float32(task.Sample+1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		accumRow := task.Accum[(y-bounds.Min.Y)*tileW : (y-bounds.Min.Y+1)*tileW]
		pixelRow := pixels[y*stride+bounds.Min.X : y*stride+bounds.Max.X]
		for x := range accumRow {
			ray := tr.CameraRay(float32(bounds.Min.X+x)+rng.Float32(), float32(y)+rng.Float32(), rng)
			accumRow[x] = accumRow[x].Add(tr.Radiance(ray, rng, &stats))
			pixelRow[x] = PackColor(accumRow[x].Mul(scale), tr.cfg.Exposure)
		}
	}

	stats.Pixels = task.Tile.Pixels()
	stats.TileTime = time.Since(start)
	return stats
}

// CameraRay builds the primary ray through film position (px, py) given in
// pixels from the top-left corner. With a positive aperture the origin is
// jittered on the lens and the ray is aimed at the focus plane.
func (tr *Tracer) CameraRay(px, py float32, rng *sampler.Xorshift96) bvh.Ray {
	eye := tr.frustum.Eye
	target := tr.frustum.PlanePoint(px/float32(tr.width), py/float32(tr.height))
	if tr.cfg.Aperture <= 0 {
		return bvh.NewRay(eye, target.Sub(eye))
	}

	focusDist := tr.cfg.FocusDistance
	if focusDist <= 0 {
		focusDist = 1
	}
	// The image plane sits at camera depth 1 so scaling its offset from the
	// eye by the focus distance lands on the focus plane.
	focusPoint := eye.Add(target.Sub(eye).Mul(focusDist))

	lens := rng.UnitDisk()
	origin := eye.Add(tr.lensRight.Mul(lens[0] * tr.cfg.Aperture)).Add(tr.lensUp.Mul(lens[1] * tr.cfg.Aperture))
	return bvh.NewRay(origin, focusPoint.Sub(origin))
}

// Radiance traces ray into the scene and shades the nearest hit.
func (tr *Tracer) Radiance(ray bvh.Ray, rng *sampler.Xorshift96, stats *Stats) types.Vec3 {
	stats.PrimaryRays++
	hit, ok := tr.scene.Trace(ray, posInf)
	if !ok {
		return tr.cfg.Background
	}
	stats.Hits++
	return tr.Shade(ray, hit, rng, stats)
}

// Shade computes the direct lighting at hit. Emissive surfaces return their
// own color. Otherwise one light is sampled and, if visible, contributes
// color * lightColor * cos(theta) * lightCount with no distance falloff.
func (tr *Tracer) Shade(ray bvh.Ray, hit scene.Hit, rng *sampler.Xorshift96, stats *Stats) types.Vec3 {
	if hit.Material.Emissive {
		return hit.Material.Color
	}

	light, ok := tr.scene.SampleLight(rng)
	if !ok {
		return types.Vec3{}
	}

	normal := hit.Normal
	if normal.Dot(ray.Dir) > 0 {
		normal = normal.Neg()
	}

	origin := hit.Point.Add(normal.Mul(tr.cfg.ShadowBias))
	toLight := light.Position.Sub(origin)
	dist := toLight.Len()
	if dist <= tr.cfg.ShadowBias {
		return types.Vec3{}
	}
	lightDir := toLight.Mul(1 / dist)

	cosTheta := normal.Dot(lightDir)
	if cosTheta <= 0 {
		return types.Vec3{}
	}

	stats.ShadowRays++
	if tr.scene.Occluded(bvh.NewRay(origin, lightDir), dist-tr.cfg.ShadowBias) {
		return types.Vec3{}
	}

	return hit.Material.Color.MulVec(light.Color).Mul(cosTheta * float32(tr.scene.LightCount()))
}

// PackColor scales c by exposure, clamps it to [0, 1] and packs it as
// 0x00RRGGBB.
func PackColor(c types.Vec3, exposure float32) uint32 {
	var packed uint32
	for _, v := range c {
		v *= exposure
		switch {
		case math.IsNaN(float64(v)) || v <= 0:
			v = 0
		case v > 1:
			v = 1
		}
		packed = packed<<8 | uint32(v*255+0.5)
	}
	return packed
}
