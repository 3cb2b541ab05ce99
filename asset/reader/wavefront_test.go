package reader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/tileray/asset"
	"github.com/achilleasa/tileray/scene"
	"github.com/achilleasa/tileray/types"
)

func readString(t *testing.T, payload string) (*scene.Scene, error) {
	t.Helper()
	res := asset.FromStream("embedded", strings.NewReader(payload))
	return NewWavefrontReader().Read(context.Background(), res)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFanTriangulation(t *testing.T) {
	payload := `
o poly
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
f 1 2 3 4
f 1 2 3 4 5
`
	sc, err := readString(t, payload)
	if err != nil {
		t.Fatal(err)
	}

	entries := sc.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 model; got %d", len(entries))
	}
	meshes := entries[0].Model.Meshes
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh; got %d", len(meshes))
	}

	faces := meshes[0].Faces
	if len(faces) != 2+3 {
		t.Fatalf("expected 5 triangles; got %d", len(faces))
	}

	v := []types.Vec3{
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(1, 1, 0), types.XYZ(0, 1, 0), types.XYZ(-1, 1, 0),
	}
	expFaces := [][3]types.Vec3{
		{v[0], v[1], v[2]},
		{v[0], v[2], v[3]},
		{v[0], v[1], v[2]},
		{v[0], v[2], v[3]},
		{v[0], v[3], v[4]},
	}
	for faceIndex, exp := range expFaces {
		if faces[faceIndex] != exp {
			t.Fatalf("expected face %d to be %v; got %v", faceIndex, exp, faces[faceIndex])
		}
		if n := meshes[0].Normals[faceIndex]; !n.ApproxEqual(types.XYZ(0, 0, 1)) {
			t.Fatalf("expected face %d geometric normal (0, 0, 1); got %v", faceIndex, n)
		}
	}

	if meshes[0].Material.Name != "default" {
		t.Fatalf("expected faces without usemtl to get the default material; got %q", meshes[0].Material.Name)
	}
}

func TestVertexNormalsAndNegativeIndices(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 0 1
vn 0 1 0
vn 0 2 0
f -3//1 -2//2 -1//1
`
	sc, err := readString(t, payload)
	if err != nil {
		t.Fatal(err)
	}

	mesh := sc.Entries()[0].Model.Meshes[0]
	if sc.Entries()[0].Model.Name != "default" {
		t.Fatalf("expected faces outside an object to land in the default object; got %q", sc.Entries()[0].Model.Name)
	}
	if mesh.Faces[0][0] != types.XYZ(0, 0, 0) || mesh.Faces[0][2] != types.XYZ(0, 0, 1) {
		t.Fatalf("expected negative indices to resolve from the end of the vertex list; got %v", mesh.Faces[0])
	}
	if !mesh.Normals[0].ApproxEqual(types.XYZ(0, 1, 0)) {
		t.Fatalf("expected averaged vertex normal (0, 1, 0); got %v", mesh.Normals[0])
	}
}

func TestMaterialsLightsAndCamera(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scene.mtl": `
newmtl red
Kd 1 0 0
Ks 0.5 0.5 0.5

newmtl lamp
Kd 0 0 0
Ke 4 4 4

newmtl red_copy
include red
`,
		"scene.obj": `
mtllib scene.mtl
light 0 5 0 1 0.5 0.25 2
camera_eye 0 1 5
camera_look 0 0 0
camera_fov 45

o box
v 0 0 0
v 1 0 0
v 1 1 0
usemtl red
f 1 2 3
usemtl lamp
f 1 3 2

o empty

o floor
usemtl red_copy
f 1 2 3
`,
	})

	sc, err := ReadScene(context.Background(), filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	entries := sc.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected empty object to be dropped leaving 2 models; got %d", len(entries))
	}

	box := entries[0].Model
	if box.Name != "box" || len(box.Meshes) != 2 {
		t.Fatalf("expected box model with 2 meshes; got %q with %d", box.Name, len(box.Meshes))
	}
	if mat := box.Meshes[0].Material; mat.Name != "red" || mat.Color != types.XYZ(1, 0, 0) || mat.Emissive {
		t.Fatalf("expected diffuse red material; got %+v", mat)
	}
	if mat := box.Meshes[1].Material; !mat.Emissive || mat.Color != types.Splat3(4) {
		t.Fatalf("expected emissive lamp material; got %+v", mat)
	}
	if mat := entries[1].Model.Meshes[0].Material; mat.Name != "red_copy" || mat.Color != types.XYZ(1, 0, 0) {
		t.Fatalf("expected included material to inherit its color; got %+v", mat)
	}

	lights := sc.PointLights()
	if len(lights) != 1 {
		t.Fatalf("expected 1 point light; got %d", len(lights))
	}
	expLight := scene.PointLight{Position: types.XYZ(0, 5, 0), Color: types.XYZ(1, 0.5, 0.25), Intensity: 2}
	if lights[0] != expLight {
		t.Fatalf("expected light %+v; got %+v", expLight, lights[0])
	}
	if got := sc.LightCount(); got != 2 {
		t.Fatalf("expected point light and emissive box to give 2 lights; got %d", got)
	}

	if sc.Camera == nil {
		t.Fatal("expected camera to be defined")
	}
	if sc.Camera.Position != types.XYZ(0, 1, 5) || sc.Camera.LookAt != types.XYZ(0, 0, 0) || sc.Camera.FOV != 45 {
		t.Fatalf("unexpected camera %+v", sc.Camera)
	}
	if sc.Camera.Up != types.XYZ(0, 1, 0) {
		t.Fatalf("expected default camera up vector; got %v", sc.Camera.Up)
	}
}

func TestCallAndInstances(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"tri.obj": `
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`,
		"scene.obj": `
v 9 9 9
call tri.obj
instance tri 0 0 0 0 0 0 1 1 1
instance tri 10 0 0 0 0 0 2 2 2
`,
	})

	sc, err := ReadScene(context.Background(), filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	entries := sc.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 instances; got %d", len(entries))
	}
	if entries[0].Model.Meshes[0].Faces[0][1] != types.XYZ(1, 0, 0) {
		t.Fatalf("expected included file indices to be relative to the file; got %v", entries[0].Model.Meshes[0].Faces[0])
	}
	if entries[0].Model.Name != "tri#0" || entries[1].Model.Name != "tri#1" {
		t.Fatalf("unexpected instance names %q, %q", entries[0].Model.Name, entries[1].Model.Name)
	}

	bbox := entries[1].BVH.BBox()
	if !bbox[0].ApproxEqual(types.XYZ(10, 0, 0)) || !bbox[1].ApproxEqual(types.XYZ(12, 2, 0)) {
		t.Fatalf("expected instance bbox [(10, 0, 0), (12, 2, 0)]; got %v", bbox)
	}
}

func TestReaderErrors(t *testing.T) {
	specs := []struct {
		payload string
		expErr  string
	}{
		{"v 0 0 0\nusemtl missing", `[embedded: 2] error: undefined material with name "missing"`},
		{"v 0 0 0\nv 1 0 0\nf 1 2", `[embedded: 3] error: unsupported syntax for "f"; expected at least 3 arguments; got 2`},
		{"v 0 0 0\nv 1 0 0\nf 1 2 7", `[embedded: 3] error: could not parse vertex coord for face argument 2: index 7 out of bounds`},
		{"v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1/1 2 3", `[embedded: 4] error: expected each face argument to contain 2 indices; arg 1 contains 1 indices`},
		{"v 0 0", `[embedded: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"light 0 0 0 1 1 1", `[embedded: 1] error: unsupported syntax for "light"; expected 7 arguments: x y z r g b intensity; got 6`},
		{"instance nope 0 0 0 0 0 0 1 1 1", `[embedded: 1] error: unknown object with name "nope"`},
		{"o", `[embedded: 1] error: unsupported syntax for "o"; expected 1 argument for object name; got 0`},
	}

	for specIndex, spec := range specs {
		_, err := readString(t, spec.payload)
		if err == nil || err.Error() != spec.expErr {
			t.Fatalf("[spec %d] expected error %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestIncludeErrorsCarryStack(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bad.mtl":   "Kd 1 1 1\n",
		"scene.obj": "# comment\nmtllib bad.mtl\n",
	})

	_, err := ReadScene(context.Background(), filepath.Join(dir, "scene.obj"))
	if err == nil {
		t.Fatal("expected an error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `bad.mtl: 1] error: got "Kd" without a "newmtl"`) {
		t.Fatalf("expected material library error; got %q", msg)
	}
	if !strings.Contains(msg, "scene.obj:2 [mtllib]") {
		t.Fatalf("expected error stack to reference the including file; got %q", msg)
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	if _, err := ReadScene(context.Background(), "scene.gltf"); err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}
