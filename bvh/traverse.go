package bvh

import "github.com/achilleasa/tileray/types"

// Hit describes the nearest intersection found by a query.
type Hit struct {
	T      float32
	Point  types.Vec3
	Normal types.Vec3

	// Barycentric coordinates of the hit point.
	U, V float32

	// Index into Triangles() and the source mesh/face of the hit triangle.
	TriangleIndex int
	MeshIndex     uint32
	FaceIndex     uint32
}

// Intersect finds the nearest triangle hit by ray with T < tMax.
func (bvh *BVH) Intersect(ray Ray, tMax float32) (Hit, bool) {
	if len(bvh.triangles) == 0 {
		return Hit{}, false
	}

	best := Hit{T: tMax, TriangleIndex: -1}
	root := &bvh.nodes[0]
	if SlabDistance(&ray, root.Min, root.Max) >= best.T {
		return Hit{}, false
	}
	bvh.traverse(0, &ray, &best, false)

	if best.TriangleIndex < 0 {
		return Hit{}, false
	}

	tri := &bvh.triangles[best.TriangleIndex]
	best.Point = ray.At(best.T)
	best.Normal = tri.Normal
	best.MeshIndex = tri.MeshIndex
	best.FaceIndex = tri.FaceIndex
	return best, true
}

// Occluded reports whether any triangle intersects ray closer than maxDist.
// It returns as soon as the first such triangle is found.
func (bvh *BVH) Occluded(ray Ray, maxDist float32) bool {
	if len(bvh.triangles) == 0 {
		return false
	}

	best := Hit{T: maxDist, TriangleIndex: -1}
	root := &bvh.nodes[0]
	if SlabDistance(&ray, root.Min, root.Max) >= best.T {
		return false
	}
	return bvh.traverse(0, &ray, &best, true)
}

// Visit nodeIndex and its subtree updating best with any closer hit. Children
// are visited front to back and a child is skipped when its entry distance
// is not closer than the best hit so far. When anyHit is set the walk stops
// at the first accepted hit and returns true.
func (bvh *BVH) traverse(nodeIndex uint32, ray *Ray, best *Hit, anyHit bool) bool {
	node := &bvh.nodes[nodeIndex]

	if node.Count > 0 {
		for triIndex := node.LeftFirst; triIndex < node.LeftFirst+node.Count; triIndex++ {
			tri := &bvh.triangles[triIndex]
			t, u, v, ok := IntersectTriangle(ray, tri.Vertices[0], tri.Vertices[1], tri.Vertices[2])
			if !ok || t >= best.T {
				continue
			}

			best.T, best.U, best.V = t, u, v
			best.TriangleIndex = int(triIndex)
			if anyHit {
				return true
			}
		}
		return false
	}

	near, far := node.LeftFirst, node.LeftFirst+1
	nearDist := SlabDistance(ray, bvh.nodes[near].Min, bvh.nodes[near].Max)
	farDist := SlabDistance(ray, bvh.nodes[far].Min, bvh.nodes[far].Max)
	if farDist < nearDist {
		near, far = far, near
		nearDist, farDist = farDist, nearDist
	}

	if nearDist < best.T && bvh.traverse(near, ray, best, anyHit) {
		return true
	}

	// best.T may have shrunk while visiting the near child.
	if farDist < best.T {
		return bvh.traverse(far, ray, best, anyHit)
	}
	return false
}

// Candidates returns every triangle stored in a leaf whose box is entered by
// ray. No triangle tests are performed and no pruning by distance happens,
// so the result is a superset of the triangles the ray can hit.
func (bvh *BVH) Candidates(ray Ray) []Triangle {
	if len(bvh.triangles) == 0 {
		return nil
	}

	var out []Triangle
	stack := []uint32{0}
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.nodes[nodeIndex]
		if SlabDistance(&ray, node.Min, node.Max) == posInf {
			continue
		}

		if node.Count > 0 {
			out = append(out, bvh.triangles[node.LeftFirst:node.LeftFirst+node.Count]...)
			continue
		}
		stack = append(stack, node.LeftFirst+1, node.LeftFirst)
	}

	return out
}
