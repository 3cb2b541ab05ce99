package geometry

import "errors"

var (
	ErrEmptyMesh          = errors.New("geometry: mesh has no faces")
	ErrFaceNormalMismatch = errors.New("geometry: face and normal counts differ")
	ErrNonFiniteVertex    = errors.New("geometry: vertex or normal is not finite")
)
