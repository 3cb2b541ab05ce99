package geometry

import (
	"fmt"

	"github.com/achilleasa/tileray/types"
)

// RandomSource supplies uniform random numbers for surface sampling.
type RandomSource interface {
	// Return a float in [0, 1).
	Float32() float32

	// Return an int in [0, n).
	Intn(n int) int
}

// Mesh is a list of triangles sharing a material. Faces and Normals are
// parallel slices; Normals[i] is the flat normal of Faces[i].
type Mesh struct {
	Name     string
	Faces    [][3]types.Vec3
	Normals  []types.Vec3
	Material Material
}

// Create a mesh and validate its contents.
func NewMesh(name string, faces [][3]types.Vec3, normals []types.Vec3, material Material) (*Mesh, error) {
	mesh := &Mesh{
		Name:     name,
		Faces:    faces,
		Normals:  normals,
		Material: material,
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// Validate checks that the mesh is non-empty, that every face has a normal
// and that all vertex data is finite.
func (m *Mesh) Validate() error {
	if len(m.Faces) == 0 {
		return fmt.Errorf("geometry: mesh %q: %w", m.Name, ErrEmptyMesh)
	}
	if len(m.Faces) != len(m.Normals) {
		return fmt.Errorf("geometry: mesh %q: %d faces, %d normals: %w", m.Name, len(m.Faces), len(m.Normals), ErrFaceNormalMismatch)
	}

	for faceIndex, face := range m.Faces {
		if !face[0].IsFinite() || !face[1].IsFinite() || !face[2].IsFinite() || !m.Normals[faceIndex].IsFinite() {
			return fmt.Errorf("geometry: mesh %q: face %d: %w", m.Name, faceIndex, ErrNonFiniteVertex)
		}
	}

	return nil
}

// Compute the total surface area of the mesh.
func (m *Mesh) Area() float32 {
	var area float32
	for _, face := range m.Faces {
		area += FaceArea(face)
	}
	return area
}

// Pick a face uniformly and return a uniformly distributed point on it.
// Larger faces are not favored so the result is not area-uniform over the
// whole mesh.
func (m *Mesh) RandomPoint(rng RandomSource) types.Vec3 {
	face := m.Faces[rng.Intn(len(m.Faces))]
	u, v := rng.Float32(), rng.Float32()

	// Fold samples from the upper half of the unit square back into the
	// triangle.
	if u+v > 1 {
		u = 1 - u
		v = 1 - v
	}

	e1 := face[1].Sub(face[0])
	e2 := face[2].Sub(face[0])
	return face[0].Add(e1.Mul(u)).Add(e2.Mul(v))
}

// Compute the flat normal of a face assuming counter-clockwise winding.
func FaceNormal(face [3]types.Vec3) types.Vec3 {
	return face[1].Sub(face[0]).Cross(face[2].Sub(face[0])).Normalize()
}

// Compute the area of a face.
func FaceArea(face [3]types.Vec3) float32 {
	return 0.5 * face[1].Sub(face[0]).Cross(face[2].Sub(face[0])).Len()
}
