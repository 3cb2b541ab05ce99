package scene

import (
	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/types"
)

// LightSample is a point on a light source together with its radiance.
type LightSample struct {
	Position types.Vec3
	Color    types.Vec3

	// ModelIndex is the index of the sampled emissive model or -1 for a
	// point light.
	ModelIndex int
}

// SampleLight picks one light uniformly among the point lights and the
// emissive models. For an emissive model a point is chosen uniformly on a
// uniformly chosen emissive mesh. It returns false if the scene has no
// lights.
func (s *Scene) SampleLight(rng geometry.RandomSource) (LightSample, bool) {
	lightCount := s.LightCount()
	if lightCount == 0 {
		return LightSample{}, false
	}

	lightIndex := rng.Intn(lightCount)
	if lightIndex < len(s.pointLights) {
		light := &s.pointLights[lightIndex]
		return LightSample{
			Position:   light.Position,
			Color:      light.Color.Mul(light.Intensity),
			ModelIndex: -1,
		}, true
	}

	modelIndex := s.emissive[lightIndex-len(s.pointLights)]
	model := s.entries[modelIndex].Model
	pos, meshIndex := model.RandomEmissivePoint(rng)
	return LightSample{
		Position:   pos,
		Color:      model.Meshes[meshIndex].Material.Color,
		ModelIndex: modelIndex,
	}, true
}
