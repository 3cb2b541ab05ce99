package renderer

import "image"

// Surface is the display target of the renderer: a row-major buffer of
// width*height pixels packed as 0x00RRGGBB.
type Surface interface {
	Width() int
	Height() int
	Pixels() []uint32
}

// ImageSurface is an in-memory Surface that can be converted to an image.
type ImageSurface struct {
	width, height int
	pixels        []uint32
}

// Create an in-memory surface.
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{
		width:  width,
		height: height,
		pixels: make([]uint32, width*height),
	}
}

func (s *ImageSurface) Width() int       { return s.width }
func (s *ImageSurface) Height() int      { return s.height }
func (s *ImageSurface) Pixels() []uint32 { return s.pixels }

// Copy the surface contents into an opaque RGBA image.
func (s *ImageSurface) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i, p := range s.pixels {
		img.Pix[i*4+0] = uint8(p >> 16)
		img.Pix[i*4+1] = uint8(p >> 8)
		img.Pix[i*4+2] = uint8(p)
		img.Pix[i*4+3] = 0xFF
	}
	return img
}
