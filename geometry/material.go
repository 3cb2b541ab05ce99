package geometry

import "github.com/achilleasa/tileray/types"

// Material describes how a mesh responds to light. Emissive materials act as
// area lights and are shaded with their own color.
type Material struct {
	Name     string
	Color    types.Vec3
	Emissive bool
}

// The material assigned to meshes that do not reference one.
func DefaultMaterial() Material {
	return Material{
		Name:  "default",
		Color: types.XYZ(0.67, 0, 0.67),
	}
}

// Unpack a 0x00RRGGBB color into a linear [0, 1] color vector.
func ColorFromRGB(packed uint32) types.Vec3 {
	return types.XYZ(
		float32((packed>>16)&0xFF)/255.0,
		float32((packed>>8)&0xFF)/255.0,
		float32(packed&0xFF)/255.0,
	)
}
