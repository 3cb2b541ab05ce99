package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/tileray/asset"
	"github.com/achilleasa/tileray/geometry"
	"github.com/achilleasa/tileray/log"
	"github.com/achilleasa/tileray/scene"
	"github.com/achilleasa/tileray/types"
)

// A group of faces introduced by an "o" or "g" directive. Faces are split
// into one mesh per material.
type wavefrontObject struct {
	name   string
	meshes []*geometry.Mesh
}

// Get the mesh collecting faces for material, creating it if needed.
func (obj *wavefrontObject) meshFor(mat geometry.Material) *geometry.Mesh {
	if n := len(obj.meshes); n > 0 && obj.meshes[n-1].Material == mat {
		return obj.meshes[n-1]
	}
	mesh := &geometry.Mesh{
		Name:     fmt.Sprintf("%s/%s", obj.name, mat.Name),
		Material: mat,
	}
	obj.meshes = append(obj.meshes, mesh)
	return mesh
}

// WavefrontReader parses wavefront .obj scenes and their .mtl material
// libraries. On top of the geometry directives it understands:
//
//	light x y z r g b intensity
//	camera_eye x y z / camera_look x y z / camera_up x y z / camera_fov deg
//	instance object_name tX tY tZ yaw pitch roll sX sY sZ
//	call other.obj
type WavefrontReader struct {
	logger log.Logger
	ctx    context.Context

	materials  map[string]geometry.Material
	curMat     geometry.Material
	vertexList []types.Vec3
	normalList []types.Vec3

	objects   []*wavefrontObject
	instances []*geometry.Model
	lights    []scene.PointLight
	camera    *scene.Camera

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func NewWavefrontReader() *WavefrontReader {
	return &WavefrontReader{
		logger:    log.New("wavefront reader"),
		materials: make(map[string]geometry.Material),
		curMat:    geometry.DefaultMaterial(),
	}
}

// Read scene definition.
func (r *WavefrontReader) Read(ctx context.Context, res *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, res.Path())
	start := time.Now()

	r.ctx = ctx
	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.dropEmptyObject()

	sc := scene.New()
	models := r.instances
	if len(models) == 0 {
		for _, obj := range r.objects {
			models = append(models, geometry.NewModel(obj.name, obj.meshes...))
		}
	}
	for _, model := range models {
		if err := sc.AddModel(model); err != nil {
			return nil, fmt.Errorf("reader: %s: %w", res.Path(), err)
		}
	}
	for _, light := range r.lights {
		sc.AddPointLight(light)
	}
	sc.Camera = r.camera

	r.logger.Noticef("parsed scene in %d ms: %d models, %d point lights", time.Since(start).Milliseconds(), len(models), len(r.lights))
	return sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *WavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return errors.New(strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

// Push a frame to the error stack.
func (r *WavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *WavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *WavefrontReader) currentObject() *wavefrontObject {
	if len(r.objects) == 0 {
		r.objects = append(r.objects, &wavefrontObject{name: "default"})
	}
	return r.objects[len(r.objects)-1]
}

// Drop the last parsed object if it contains no faces.
func (r *WavefrontReader) dropEmptyObject() {
	last := len(r.objects) - 1
	if last >= 0 && len(r.objects[last].meshes) == 0 {
		r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.objects[last].name)
		r.objects = r.objects[:last]
	}
}

// Open a file referenced by res and parse it with parseFn.
func (r *WavefrontReader) include(res *asset.Resource, lineNum int, directive, location string, parseFn func(*asset.Resource) error) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, directive))

	incRes, err := asset.Open(r.ctx, location, res)
	if err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	defer incRes.Close()

	if err := parseFn(incRes); err != nil {
		return err
	}
	r.popFrame()
	return nil
}

// Parse wavefront object scene format.
func (r *WavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	// Included object files use 1-based indices relative to their own
	// vertex lists.
	relVertexOffset := len(r.vertexList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		var err error
		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			parseFn := r.parse
			if lineTokens[0] == "mtllib" {
				parseFn = r.parseMaterials
			}
			if err := r.include(res, lineNum, lineTokens[0], lineTokens[1], parseFn); err != nil {
				return err
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			mat, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMat = mat
		case "v":
			var v types.Vec3
			if v, err = parseVec3(lineTokens); err == nil {
				r.vertexList = append(r.vertexList, v)
			}
		case "vn":
			var v types.Vec3
			if v, err = parseVec3(lineTokens); err == nil {
				r.normalList = append(r.normalList, v)
			}
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.dropEmptyObject()
			r.objects = append(r.objects, &wavefrontObject{name: lineTokens[1]})
		case "f":
			err = r.parseFace(lineTokens, relVertexOffset, relNormalOffset)
		case "light":
			var light scene.PointLight
			if light, err = parseLight(lineTokens); err == nil {
				r.lights = append(r.lights, light)
			}
		case "camera_fov":
			r.sceneCamera().FOV, err = parseFloat32(lineTokens)
		case "camera_eye":
			r.sceneCamera().Position, err = parseVec3(lineTokens)
		case "camera_look":
			r.sceneCamera().LookAt, err = parseVec3(lineTokens)
		case "camera_up":
			r.sceneCamera().Up, err = parseVec3(lineTokens)
		case "instance":
			var inst *geometry.Model
			if inst, err = r.parseInstance(lineTokens); err == nil {
				r.instances = append(r.instances, inst)
			}
		default:
			r.logger.Debugf(`[%s: %d] ignoring unsupported directive "%s"`, res.Path(), lineNum, lineTokens[0])
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%s", err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

func (r *WavefrontReader) sceneCamera() *scene.Camera {
	if r.camera == nil {
		r.camera = scene.NewCamera(60)
	}
	return r.camera
}

// Parse face definition. Each face argument is a vertex reference in one of
// the formats v, v/vt, v//vn or v/vt/vn. Indices start from 1 and may be
// negative to reference elements from the end of the coordinate list.
// Polygons with more than 3 vertices are triangulated as a fan around the
// first vertex.
func (r *WavefrontReader) parseFace(lineTokens []string, relVertexOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1
	vertices := make([]types.Vec3, argCount)
	normals := make([]types.Vec3, argCount)
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < argCount; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		offset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		vertices[arg] = r.vertexList[offset]

		if expIndices > 2 && vTokens[2] != "" {
			offset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
			normals[arg] = r.normalList[offset]
			hasNormals = true
		}
	}

	mesh := r.currentObject().meshFor(r.curMat)
	for i := 1; i+1 < argCount; i++ {
		tri := [3]types.Vec3{vertices[0], vertices[i], vertices[i+1]}

		var normal types.Vec3
		if hasNormals {
			normal = normals[0].Add(normals[i]).Add(normals[i+1]).Normalize()
		}
		if normal.LenSq() == 0 {
			normal = tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])).Normalize()
		}

		mesh.Faces = append(mesh.Faces, tri)
		mesh.Normals = append(mesh.Normals, normal)
	}
	return nil
}

// Parse an instance definition:
// instance object_name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees about X, Y and Z
// - sX, sY, sZ	      : scale
func (r *WavefrontReader) parseInstance(lineTokens []string) (*geometry.Model, error) {
	if len(lineTokens) != 11 {
		return nil, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: object_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	r.dropEmptyObject()
	var obj *wavefrontObject
	for _, candidate := range r.objects {
		if candidate.name == lineTokens[1] {
			obj = candidate
			break
		}
	}
	if obj == nil {
		return nil, fmt.Errorf(`unknown object with name "%s"`, lineTokens[1])
	}

	var args [9]float32
	for index := range args {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return nil, err
		}
		args[index] = float32(v)
	}

	translation := types.XYZ(args[0], args[1], args[2])
	toRad := float32(math.Pi / 180.0)
	yawQuat := types.QuatFromAxisAngle(types.XYZ(1, 0, 0), args[3]*toRad)
	pitchQuat := types.QuatFromAxisAngle(types.XYZ(0, 1, 0), args[4]*toRad)
	rollQuat := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), args[5]*toRad)
	rotMat := rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize().Mat4()
	scale := types.XYZ(args[6], args[7], args[8])

	// M = T * R * S
	model := geometry.NewModel(fmt.Sprintf("%s#%d", obj.name, len(r.instances)), obj.meshes...)
	model.Transform = types.Translate4(translation).Mul4(rotMat.Mul4(types.Scale4(scale)))
	return model, nil
}

// Parse a wavefront material library.
func (r *WavefrontReader) parseMaterials(res *asset.Resource) error {
	var lineNum int

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)
	var curName string
	var kd, ke types.Vec3
	flush := func() {
		if curName == "" {
			return
		}
		mat := geometry.Material{Name: curName, Color: kd}
		if ke.MaxComponent() > 0 {
			mat.Color = ke
			mat.Emissive = true
		}
		r.materials[curName] = mat
	}

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			flush()
			curName = lineTokens[1]
			if _, exists := r.materials[curName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, curName)
			}
			kd, ke = types.Vec3{}, types.Vec3{}
			continue
		}

		if curName == "" {
			return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
		}

		var err error
		switch lineTokens[0] {
		case "include":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "include"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			base, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
			}
			kd, ke = base.Color, types.Vec3{}
			if base.Emissive {
				ke = base.Color
			}
		case "Kd":
			kd, err = parseVec3(lineTokens)
		case "Ke":
			ke, err = parseVec3(lineTokens)
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%s", err.Error())
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Given an index for a face coord type (vertex, normal) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var offset int
	if index < 0 {
		offset = coordListLen + int(index)
	} else {
		offset = relOffset + int(index-1)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds", index)
	}
	return offset, nil
}

// Parse a light definition: light x y z r g b intensity
func parseLight(lineTokens []string) (scene.PointLight, error) {
	if len(lineTokens) != 8 {
		return scene.PointLight{}, fmt.Errorf(`unsupported syntax for "light"; expected 7 arguments: x y z r g b intensity; got %d`, len(lineTokens)-1)
	}

	pos, err := parseVec3(lineTokens[0:4])
	if err != nil {
		return scene.PointLight{}, err
	}
	color, err := parseVec3(lineTokens[3:7])
	if err != nil {
		return scene.PointLight{}, err
	}
	intensity, err := parseFloat32(lineTokens[6:8])
	if err != nil {
		return scene.PointLight{}, err
	}

	return scene.PointLight{Position: pos, Color: color, Intensity: intensity}, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
