package geometry

import "github.com/achilleasa/tileray/types"

// Model groups meshes under a single local-to-world transform.
type Model struct {
	Name      string
	Transform types.Mat4
	Meshes    []*Mesh
}

// Create a model with an identity transform.
func NewModel(name string, meshes ...*Mesh) *Model {
	return &Model{
		Name:      name,
		Transform: types.Ident4(),
		Meshes:    meshes,
	}
}

// Get the local-to-world transform. A zero transform, as left by a Model
// literal, is treated as the identity.
func (m *Model) WorldTransform() types.Mat4 {
	if m.Transform == (types.Mat4{}) {
		return types.Ident4()
	}
	return m.Transform
}

// Validate every mesh in the model. A model without meshes is valid.
func (m *Model) Validate() error {
	for _, mesh := range m.Meshes {
		if err := mesh.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Count faces across all meshes.
func (m *Model) FaceCount() int {
	count := 0
	for _, mesh := range m.Meshes {
		count += len(mesh.Faces)
	}
	return count
}

// Return the indices of meshes with an emissive material.
func (m *Model) EmissiveMeshes() []int {
	var out []int
	for meshIndex, mesh := range m.Meshes {
		if mesh.Material.Emissive {
			out = append(out, meshIndex)
		}
	}
	return out
}

// Return true if at least one mesh emits light.
func (m *Model) IsEmissive() bool {
	for _, mesh := range m.Meshes {
		if mesh.Material.Emissive {
			return true
		}
	}
	return false
}

// Sample a world-space point on one of the model's emissive meshes. The
// mesh is chosen uniformly. The second return value is the index of the
// sampled mesh; it is -1 if the model has no emissive meshes.
func (m *Model) RandomEmissivePoint(rng RandomSource) (types.Vec3, int) {
	emissive := m.EmissiveMeshes()
	if len(emissive) == 0 {
		return types.Vec3{}, -1
	}

	meshIndex := emissive[rng.Intn(len(emissive))]
	return m.WorldTransform().TransformPoint(m.Meshes[meshIndex].RandomPoint(rng)), meshIndex
}
