package scene

import (
	"math"

	"github.com/achilleasa/tileray/bvh"
	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/log"
	"github.com/achilleasa/tileray/types"
)

// PointLight is an infinitesimal light source. Its emitted radiance is
// Color * Intensity with no distance falloff.
type PointLight struct {
	Position  types.Vec3
	Color     types.Vec3
	Intensity float32
}

// Entry pairs a model with the BVH built over its world-space triangles.
type Entry struct {
	Model *geometry.Model
	BVH   *bvh.BVH
}

// Hit extends a BVH hit with the model and material that were hit.
type Hit struct {
	bvh.Hit

	ModelIndex int
	Material   geometry.Material
}

// Scene owns the renderable models and the lights that illuminate them. It
// is mutated only during setup; once rendering starts it must be treated as
// read-only and may then be shared by any number of goroutines.
type Scene struct {
	logger log.Logger

	entries     []Entry
	pointLights []PointLight

	// Indices into entries for models with at least one emissive mesh.
	emissive []int

	// Optional camera loaded together with the scene geometry.
	Camera *Camera
}

// Create an empty scene.
func New() *Scene {
	return &Scene{
		logger: log.New("scene"),
	}
}

// Validate model, build its BVH and add it to the scene. Models with
// emissive meshes are also registered as area lights.
func (s *Scene) AddModel(model *geometry.Model) error {
	if err := model.Validate(); err != nil {
		return err
	}

	tree := bvh.Build(model)
	s.entries = append(s.entries, Entry{Model: model, BVH: tree})
	if model.IsEmissive() {
		s.emissive = append(s.emissive, len(s.entries)-1)
	}

	stats := tree.Stats()
	s.logger.Infof("added model %q: %d meshes, %d triangles, %d BVH nodes", model.Name, len(model.Meshes), stats.Triangles, stats.Nodes)
	return nil
}

// Add a point light to the scene.
func (s *Scene) AddPointLight(light PointLight) {
	s.pointLights = append(s.pointLights, light)
}

// Remove all models, lights and the camera.
func (s *Scene) Clear() {
	s.entries = nil
	s.pointLights = nil
	s.emissive = nil
	s.Camera = nil
}

// Get the scene models and their BVHs.
func (s *Scene) Entries() []Entry {
	return s.entries
}

// Get the scene point lights.
func (s *Scene) PointLights() []PointLight {
	return s.pointLights
}

// Get the number of light sources: point lights plus emissive models.
func (s *Scene) LightCount() int {
	return len(s.pointLights) + len(s.emissive)
}

// Trace finds the nearest hit across all models with T < tMax.
func (s *Scene) Trace(ray bvh.Ray, tMax float32) (Hit, bool) {
	var (
		best  Hit
		found bool
	)

	for modelIndex, entry := range s.entries {
		hit, ok := entry.BVH.Intersect(ray, tMax)
		if !ok {
			continue
		}

		tMax = hit.T
		best = Hit{
			Hit:        hit,
			ModelIndex: modelIndex,
			Material:   entry.Model.Meshes[hit.MeshIndex].Material,
		}
		found = true
	}

	return best, found
}

// Occluded reports whether any model blocks ray closer than maxDist.
func (s *Scene) Occluded(ray bvh.Ray, maxDist float32) bool {
	for _, entry := range s.entries {
		if entry.BVH.Occluded(ray, maxDist) {
			return true
		}
	}
	return false
}

// Get the total world-space bounds of the scene. The box is inverted if the
// scene has no geometry.
func (s *Scene) BBox() [2]types.Vec3 {
	bbox := [2]types.Vec3{
		types.Splat3(math.MaxFloat32),
		types.Splat3(-math.MaxFloat32),
	}
	for _, entry := range s.entries {
		if len(entry.BVH.Triangles()) == 0 {
			continue
		}
		modelBox := entry.BVH.BBox()
		bbox[0] = types.MinVec3(bbox[0], modelBox[0])
		bbox[1] = types.MaxVec3(bbox[1], modelBox[1])
	}
	return bbox
}
