package bvh

import (
	"math"

	"github.com/achilleasa/tileray/types"
)

// Determinant threshold below which a ray is treated as parallel to a
// triangle. Also the minimum accepted hit distance.
const triangleEpsilon = 1e-7

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// Ray is a half-line with a normalized direction. The reciprocal direction is
// cached for slab tests; zero direction components become signed infinities.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
	InvDir types.Vec3
}

// Create a ray. The direction is normalized.
func NewRay(origin, dir types.Vec3) Ray {
	dir = dir.Normalize()
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: dir.Recip(),
	}
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

func minf(a, b float32) float32 {
	if b < a {
		return b
	}
	return a
}

func maxf(a, b float32) float32 {
	if b > a {
		return b
	}
	return a
}

// SlabDistance returns the distance at which ray enters the box [bmin, bmax]
// or +Inf if the ray misses it. The entry distance is negative when the
// origin is inside the box.
func SlabDistance(ray *Ray, bmin, bmax types.Vec3) float32 {
	tmin, tmax := negInf, posInf
	for axis := 0; axis < 3; axis++ {
		t1 := (bmin[axis] - ray.Origin[axis]) * ray.InvDir[axis]
		t2 := (bmax[axis] - ray.Origin[axis]) * ray.InvDir[axis]

		// A ray parallel to the axis that starts on one of the slab planes
		// yields NaN; it lies inside the closed slab so the axis imposes no
		// constraint.
		if t1 != t1 || t2 != t2 {
			continue
		}

		tmin = maxf(tmin, minf(t1, t2))
		tmax = minf(tmax, maxf(t1, t2))
	}

	if tmax < tmin || tmax < 0 {
		return posInf
	}
	return tmin
}

// IntersectTriangle runs the Möller–Trumbore test against triangle
// (v0, v1, v2). On a hit it returns the distance and the barycentric
// coordinates of the hit point relative to v1 and v2.
func IntersectTriangle(ray *Ray, v0, v1, v2 types.Vec3) (t, u, v float32, ok bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)

	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	s := ray.Origin.Sub(v0)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	if t <= triangleEpsilon {
		return 0, 0, 0, false
	}

	return t, u, v, true
}
