package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/tileray/bvh"
	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/sampler"
	"github.com/achilleasa/tileray/types"
)

var inf = float32(math.Inf(1))

// Build a unit quad in the XZ plane centered at the origin, facing +Y.
func floorModel(name string, y float32, material geometry.Material) *geometry.Model {
	faces := [][3]types.Vec3{
		{types.XYZ(-1, y, -1), types.XYZ(-1, y, 1), types.XYZ(1, y, 1)},
		{types.XYZ(-1, y, -1), types.XYZ(1, y, 1), types.XYZ(1, y, -1)},
	}
	normals := []types.Vec3{types.XYZ(0, 1, 0), types.XYZ(0, 1, 0)}
	mesh, err := geometry.NewMesh(name, faces, normals, material)
	if err != nil {
		panic(err)
	}
	return geometry.NewModel(name, mesh)
}

func TestAddModelValidates(t *testing.T) {
	sc := New()
	bad := geometry.NewModel("bad", &geometry.Mesh{
		Name:    "bad",
		Faces:   [][3]types.Vec3{{}},
		Normals: nil,
	})

	if err := sc.AddModel(bad); !errors.Is(err, geometry.ErrFaceNormalMismatch) {
		t.Fatalf("expected ErrFaceNormalMismatch; got %v", err)
	}
	if len(sc.Entries()) != 0 {
		t.Fatalf("expected rejected model not to be added; got %d entries", len(sc.Entries()))
	}

	if err := sc.AddModel(geometry.NewModel("empty")); err != nil {
		t.Fatalf("expected empty model to be accepted; got %v", err)
	}
}

func TestTraceNearestAcrossModels(t *testing.T) {
	sc := New()
	low := geometry.Material{Color: types.XYZ(1, 0, 0)}
	high := geometry.Material{Color: types.XYZ(0, 1, 0)}
	if err := sc.AddModel(floorModel("low", 0, low)); err != nil {
		t.Fatal(err)
	}
	if err := sc.AddModel(floorModel("high", 2, high)); err != nil {
		t.Fatal(err)
	}

	ray := bvh.NewRay(types.XYZ(0.1, 5, 0.2), types.XYZ(0, -1, 0))
	hit, ok := sc.Trace(ray, inf)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.ModelIndex != 1 || hit.Material.Color != high.Color {
		t.Fatalf("expected nearest model 1 (high); got model %d", hit.ModelIndex)
	}
	if math.Abs(float64(hit.T-3)) > 1e-5 {
		t.Fatalf("expected t = 3; got %f", hit.T)
	}

	if !sc.Occluded(ray, 4) {
		t.Fatal("expected ray to be occluded within distance 4")
	}
	if sc.Occluded(ray, 2.5) {
		t.Fatal("expected ray not to be occluded within distance 2.5")
	}

	sc.Clear()
	if _, ok := sc.Trace(ray, inf); ok {
		t.Fatal("expected cleared scene to report no hits")
	}
	if sc.LightCount() != 0 {
		t.Fatalf("expected no lights after Clear; got %d", sc.LightCount())
	}
}

func TestSampleLight(t *testing.T) {
	sc := New()
	rng := sampler.New(11)

	if _, ok := sc.SampleLight(rng); ok {
		t.Fatal("expected no light sample for a dark scene")
	}

	sc.AddPointLight(PointLight{Position: types.XYZ(0, 10, 0), Color: types.Splat3(1), Intensity: 2})
	lamp := geometry.Material{Color: types.XYZ(4, 4, 4), Emissive: true}
	if err := sc.AddModel(floorModel("lamp", 5, lamp)); err != nil {
		t.Fatal(err)
	}
	if err := sc.AddModel(floorModel("floor", 0, geometry.DefaultMaterial())); err != nil {
		t.Fatal(err)
	}

	if got := sc.LightCount(); got != 2 {
		t.Fatalf("expected 2 lights; got %d", got)
	}

	var pointSamples, areaSamples int
	for i := 0; i < 2000; i++ {
		sample, ok := sc.SampleLight(rng)
		if !ok {
			t.Fatal("expected a light sample")
		}

		switch sample.ModelIndex {
		case -1:
			pointSamples++
			if sample.Position != types.XYZ(0, 10, 0) || sample.Color != types.Splat3(2) {
				t.Fatalf("unexpected point light sample %+v", sample)
			}
		case 0:
			areaSamples++
			if sample.Position[1] != 5 || sample.Color != lamp.Color {
				t.Fatalf("unexpected area light sample %+v", sample)
			}
		default:
			t.Fatalf("expected non-emissive model never to be sampled; got model %d", sample.ModelIndex)
		}
	}

	if pointSamples < 800 || areaSamples < 800 {
		t.Fatalf("expected lights to be sampled uniformly; got %d point and %d area samples", pointSamples, areaSamples)
	}
}

func TestSampleLightOnModelLiteral(t *testing.T) {
	lamp := floorModel("lamp", 5, geometry.Material{Color: types.Splat3(1), Emissive: true})
	sc := New()
	if err := sc.AddModel(&geometry.Model{Name: "lamp", Meshes: lamp.Meshes}); err != nil {
		t.Fatal(err)
	}

	bbox := sc.BBox()
	rng := sampler.New(4)
	for i := 0; i < 100; i++ {
		sample, ok := sc.SampleLight(rng)
		if !ok {
			t.Fatal("expected a light sample")
		}
		for axis := 0; axis < 3; axis++ {
			if sample.Position[axis] < bbox[0][axis] || sample.Position[axis] > bbox[1][axis] {
				t.Fatalf("expected light sample %v inside emissive bounds %v", sample.Position, bbox)
			}
		}
	}
}

func TestFrustumFromView(t *testing.T) {
	// A camera at the origin looking down +Z with a 90 degree FOV and a
	// square frame has its image plane corners at (+-1, +-1, 1).
	fr := FrustumFromView(types.Ident4(), 90, 1)

	specs := []struct {
		name string
		got  types.Vec3
		exp  types.Vec3
	}{
		{"eye", fr.Eye, types.XYZ(0, 0, 0)},
		{"top left", fr.TopLeft, types.XYZ(-1, 1, 1)},
		{"top right", fr.TopRight, types.XYZ(1, 1, 1)},
		{"bottom left", fr.BottomLeft, types.XYZ(-1, -1, 1)},
		{"bottom right", fr.BottomRight, types.XYZ(1, -1, 1)},
		{"center", fr.PlanePoint(0.5, 0.5), types.XYZ(0, 0, 1)},
	}

	for _, spec := range specs {
		if !spec.got.ApproxEqual(spec.exp) {
			t.Fatalf("[%s] expected %v; got %v", spec.name, spec.exp, spec.got)
		}
	}

	wide := FrustumFromView(types.Translate4(types.XYZ(0, 0, -5)), 90, 2)
	if !wide.TopRight.ApproxEqual(types.XYZ(2, 1, -4)) {
		t.Fatalf("expected top right (2, 1, -4); got %v", wide.TopRight)
	}
}

func TestCameraOrbit(t *testing.T) {
	cam := NewCamera(60)
	cam.Position = types.XYZ(0, 0, 5)
	cam.LookAt = types.XYZ(0, 0, 0)

	cam.Orbit(math.Pi / 2)
	if !cam.Position.ApproxEqual(types.XYZ(5, 0, 0)) {
		t.Fatalf("expected camera at (5, 0, 0) after a quarter turn; got %v", cam.Position)
	}

	view := cam.ViewMatrix()
	if fwd := view.TransformVector(types.XYZ(0, 0, 1)); !fwd.ApproxEqual(types.XYZ(-1, 0, 0)) {
		t.Fatalf("expected camera to keep looking at the target; forward = %v", fwd)
	}

	cam.Rotate(0, math.Pi)
	if !cam.LookAt.ApproxEqual(types.XYZ(10, 0, 0)) {
		t.Fatalf("expected look-at (10, 0, 0) after a half turn yaw; got %v", cam.LookAt)
	}
}

func TestCameraFrame(t *testing.T) {
	cam := NewCamera(90)
	cam.Frame([2]types.Vec3{types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)})

	if cam.LookAt != types.XYZ(0, 0, 0) {
		t.Fatalf("expected camera to look at the box center; got %v", cam.LookAt)
	}
	if cam.Position[2] <= 1 {
		t.Fatalf("expected camera to be placed outside the box; got %v", cam.Position)
	}
}

func TestStatsTable(t *testing.T) {
	sc := New()
	if err := sc.AddModel(floorModel("floor", 0, geometry.DefaultMaterial())); err != nil {
		t.Fatal(err)
	}
	sc.AddPointLight(PointLight{Position: types.XYZ(0, 1, 0), Color: types.Splat3(1), Intensity: 1})

	out := sc.Stats()
	for _, exp := range []string{"floor", "Triangles", "Point lights", "Total"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, out)
		}
	}
}
