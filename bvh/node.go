package bvh

import "github.com/achilleasa/tileray/types"

// Node is a 32 byte BVH node. The meaning of LeftFirst depends on Count:
//
//   - Count == 0: internal node; children live at LeftFirst and LeftFirst+1
//   - Count > 0: leaf spanning triangles [LeftFirst, LeftFirst+Count)
//
// The only exception is the root of an empty tree which is a leaf with no
// triangles.
type Node struct {
	Min       types.Vec3
	LeftFirst uint32

	Max   types.Vec3
	Count uint32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Count > 0
}

// Get bounding box.
func (n *Node) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Triangle is a world-space triangle with a flat normal. MeshIndex and
// FaceIndex point back at the face it was built from in the source model.
type Triangle struct {
	Vertices [3]types.Vec3
	Normal   types.Vec3

	MeshIndex uint32
	FaceIndex uint32
}

// Get triangle bounding box.
func (t *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(types.MinVec3(t.Vertices[0], t.Vertices[1]), t.Vertices[2]),
		types.MaxVec3(types.MaxVec3(t.Vertices[0], t.Vertices[1]), t.Vertices[2]),
	}
}

// Get the minimum vertex coordinate along axis.
func (t *Triangle) minAlong(axis int) float32 {
	return min(t.Vertices[0][axis], t.Vertices[1][axis], t.Vertices[2][axis])
}
