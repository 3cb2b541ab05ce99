// Package sampler provides the deterministic random streams used by render
// tasks. Every tile task owns its own stream so no state is shared between
// workers.
package sampler

import (
	"math"

	"github.com/achilleasa/tileray/types"
)

// Xorshift96 is a small, fast xorshift generator with 96 bits of state. It
// is not safe for concurrent use.
type Xorshift96 struct {
	x, y, z uint32
}

// Create a generator seeded with seed.
func New(seed uint32) *Xorshift96 {
	rng := &Xorshift96{}
	rng.Seed(seed)
	return rng
}

// Reset the generator state. The three words are scrambled with distinct
// masks so that no seed yields an all-zero state.
func (r *Xorshift96) Seed(seed uint32) {
	r.x = seed ^ 0xFF00FF00
	r.y = seed ^ 0xF0F0F0F0
	r.z = seed ^ 0x00FF00FF
}

// Return the next 32-bit value.
func (r *Xorshift96) Uint32() uint32 {
	r.x ^= r.x << 16
	r.x ^= r.x >> 5
	r.x ^= r.x << 1

	t := r.x
	r.x = r.y
	r.y = r.z
	r.z = t ^ r.x ^ r.y
	return r.z
}

// Return a float in [0, 1). Only the top 24 bits are used so the result is
// exactly representable and never rounds up to 1.
func (r *Xorshift96) Float32() float32 {
	return float32(r.Uint32()>>8) / (1 << 24)
}

// Return an int in [0, n). It panics if n <= 0.
func (r *Xorshift96) Intn(n int) int {
	if n <= 0 {
		panic("sampler: Intn called with non-positive n")
	}
	return int(uint64(r.Uint32()) * uint64(n) >> 32)
}

// Return a uniformly distributed point on the unit disk using the concentric
// mapping.
func (r *Xorshift96) UnitDisk() types.Vec2 {
	sx := 2*r.Float32() - 1
	sy := 2*r.Float32() - 1
	if sx == 0 && sy == 0 {
		return types.Vec2{}
	}

	var radius, theta float64
	if math.Abs(float64(sx)) > math.Abs(float64(sy)) {
		radius = float64(sx)
		theta = (math.Pi / 4) * float64(sy/sx)
	} else {
		radius = float64(sy)
		theta = math.Pi/2 - (math.Pi/4)*float64(sx/sy)
	}

	sin, cos := math.Sincos(theta)
	return types.XY(float32(radius*cos), float32(radius*sin))
}

// Derive the seed for a tile task. Tiles at different origins or sample
// indices get unrelated streams while the mapping stays reproducible for a
// given base seed.
func TileSeed(base uint32, x, y, sample int) uint32 {
	return base ^ uint32(x)*73856093 ^ uint32(y)*19349663 ^ uint32(sample)*83492791
}
