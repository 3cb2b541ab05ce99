// Package bvh implements a flat bounding volume hierarchy over the
// triangles of a model together with the ray queries that run on it.
package bvh

import (
	"math"
	"sort"
	"time"

	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/log"
	"github.com/achilleasa/tileray/types"
)

// Ranges with fewer triangles than this become leaves.
const maxLeafTriangles = 3

// BVH stores the nodes of the hierarchy and the triangles they reference in
// two flat slices. Node 0 is the root; node 1 is unused so that every pair of
// siblings starts at an even index. A built BVH is immutable and safe for
// concurrent queries.
type BVH struct {
	nodes     []Node
	triangles []Triangle

	stats Stats
}

type builder struct {
	logger log.Logger

	nodes     []Node
	triangles []Triangle

	stats Stats
}

// Build a BVH over the world-space triangles of model. Vertices are
// transformed by the model transform and normals by its inverse-transpose.
// A zero transform is treated as the identity.
func Build(model *geometry.Model) *BVH {
	xform := model.WorldTransform()
	normalXform := xform.NormalMat()

	triangles := make([]Triangle, 0, model.FaceCount())
	for meshIndex, mesh := range model.Meshes {
		for faceIndex, face := range mesh.Faces {
			triangles = append(triangles, Triangle{
				Vertices: [3]types.Vec3{
					xform.TransformPoint(face[0]),
					xform.TransformPoint(face[1]),
					xform.TransformPoint(face[2]),
				},
				Normal:    normalXform.TransformVector(mesh.Normals[faceIndex]).Normalize(),
				MeshIndex: uint32(meshIndex),
				FaceIndex: uint32(faceIndex),
			})
		}
	}

	return BuildTriangles(triangles)
}

// Build a BVH over a list of world-space triangles. The BVH takes ownership
// of the slice and reorders it.
func BuildTriangles(triangles []Triangle) *BVH {
	b := &builder{
		logger:    log.New("bvh"),
		nodes:     make([]Node, 2, max(2, 2*len(triangles))),
		triangles: triangles,
		stats: Stats{
			Triangles: len(triangles),
		},
	}

	start := time.Now()
	b.subdivide(0, 0, uint32(len(triangles)), 0)
	b.stats.Nodes = len(b.nodes)
	b.stats.MemoryBytes = sizeOf(b.nodes, b.triangles)
	b.logger.Debugf(
		"BVH build time: %d ms, triangles: %d, nodes: %d, leaves: %d, maxDepth: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.Triangles, b.stats.Nodes, b.stats.Leaves, b.stats.MaxDepth,
	)

	return &BVH{
		nodes:     b.nodes,
		triangles: b.triangles,
		stats:     b.stats,
	}
}

// Compute the box of triangles [begin, begin+count) and either turn the node
// into a leaf or split the range at its median along the longest axis.
func (b *builder) subdivide(nodeIndex, begin, count uint32, depth int) {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	bmin := types.Splat3(math.MaxFloat32)
	bmax := types.Splat3(-math.MaxFloat32)
	work := b.triangles[begin : begin+count]
	for i := range work {
		bbox := work[i].BBox()
		bmin = types.MinVec3(bmin, bbox[0])
		bmax = types.MaxVec3(bmax, bbox[1])
	}
	b.nodes[nodeIndex].Min = bmin
	b.nodes[nodeIndex].Max = bmax

	if count < maxLeafTriangles {
		b.nodes[nodeIndex].LeftFirst = begin
		b.nodes[nodeIndex].Count = count
		b.stats.Leaves++
		return
	}

	axis := longestAxis(bmax.Sub(bmin))
	sort.SliceStable(work, func(i, j int) bool {
		return work[i].minAlong(axis) < work[j].minAlong(axis)
	})

	leftIndex := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{}, Node{})
	b.nodes[nodeIndex].LeftFirst = leftIndex
	b.nodes[nodeIndex].Count = 0

	mid := count / 2
	b.subdivide(leftIndex, begin, mid, depth+1)
	b.subdivide(leftIndex+1, begin+mid, count-mid, depth+1)
}

func longestAxis(side types.Vec3) int {
	axis := 0
	if side[1] > side[axis] {
		axis = 1
	}
	if side[2] > side[axis] {
		axis = 2
	}
	return axis
}

// Get the flat node list.
func (bvh *BVH) Nodes() []Node {
	return bvh.nodes
}

// Get the reordered triangle list referenced by leaf nodes.
func (bvh *BVH) Triangles() []Triangle {
	return bvh.triangles
}

// Get the world-space bounds of all triangles. For an empty BVH the box is
// inverted (Min > Max).
func (bvh *BVH) BBox() [2]types.Vec3 {
	return bvh.nodes[0].BBox()
}
