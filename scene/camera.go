package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/tileray/types"
)

// Frustum stores the eye position and the camera-space image plane corners
// (at distance 1) transformed to world space. Per pixel rays are generated
// by interpolating between the corners.
type Frustum struct {
	Eye         types.Vec3
	TopLeft     types.Vec3
	TopRight    types.Vec3
	BottomLeft  types.Vec3
	BottomRight types.Vec3
}

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum:\nEye: (%3.3f, %3.3f, %3.3f)\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr.Eye[0], fr.Eye[1], fr.Eye[2],
		fr.TopLeft[0], fr.TopLeft[1], fr.TopLeft[2],
		fr.TopRight[0], fr.TopRight[1], fr.TopRight[2],
		fr.BottomLeft[0], fr.BottomLeft[1], fr.BottomLeft[2],
		fr.BottomRight[0], fr.BottomRight[1], fr.BottomRight[2],
	)
}

// Get the world-space point on the image plane for normalized image
// coordinates u (left to right) and v (top to bottom), both in [0, 1].
func (fr *Frustum) PlanePoint(u, v float32) types.Vec3 {
	right := fr.TopRight.Sub(fr.TopLeft)
	down := fr.BottomLeft.Sub(fr.TopLeft)
	return fr.TopLeft.Add(right.Mul(u)).Add(down.Mul(v))
}

// Build the frustum for a camera-to-world view matrix. The camera looks
// down its local +Z axis; fov is the vertical field of view in degrees and
// aspect is width / height.
func FrustumFromView(view types.Mat4, fov, aspect float32) Frustum {
	s := float32(math.Tan(float64(fov) * math.Pi / 360.0))
	a := aspect * s

	return Frustum{
		Eye:         view.TransformPoint(types.Vec3{}),
		TopLeft:     view.TransformPoint(types.XYZ(-a, s, 1)),
		TopRight:    view.TransformPoint(types.XYZ(a, s, 1)),
		BottomLeft:  view.TransformPoint(types.XYZ(-a, -s, 1)),
		BottomRight: view.TransformPoint(types.XYZ(a, -s, 1)),
	}
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32
}

// Create a camera at the origin looking down -Z.
func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Get the camera-to-world matrix.
func (c *Camera) ViewMatrix() types.Mat4 {
	return types.LookAtV(c.Position, c.LookAt, c.Up)
}

// Rotate the view direction in place by pitch (around the camera right
// axis) and yaw (around the up axis). Angles are in radians.
func (c *Camera) Rotate(pitch, yaw float32) {
	dir := c.LookAt.Sub(c.Position)
	dist := dir.Len()
	dir = dir.Normalize()

	pitchAxis := dir.Cross(c.Up)
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, yaw)
	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	c.LookAt = c.Position.Add(orientQuat.Rotate(dir).Mul(dist))
}

// Move the camera around its look-at target by angle radians about the up
// axis. The distance to the target is preserved.
func (c *Camera) Orbit(angle float32) {
	q := types.QuatFromAxisAngle(c.Up, angle)
	c.Position = c.LookAt.Add(q.Rotate(c.Position.Sub(c.LookAt)))
}

// Place the camera so that the box [bmin, bmax] is in view, looking at its
// center from the +Z side.
func (c *Camera) Frame(bbox [2]types.Vec3) {
	center := bbox[0].Add(bbox[1]).Mul(0.5)
	radius := bbox[1].Sub(bbox[0]).Len() * 0.5
	if radius == 0 {
		radius = 1
	}

	fov := c.FOV
	if fov <= 0 {
		fov = 60
	}
	dist := radius / float32(math.Tan(float64(fov)*math.Pi/360.0))

	c.LookAt = center
	c.Position = center.Add(types.XYZ(0, radius*0.25, dist+radius))
}
