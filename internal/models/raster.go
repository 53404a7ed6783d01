package models

// RGBA is one pixel of a decoded raster: red, green, blue and alpha as
// floating point samples, nominally in [0, 1].
type RGBA [4]float64

// Raster is the exchange format between the image codecs and the
// frequency-domain pipeline.
type Raster struct {
	// Width and Height are the dimensions in pixels
	Width  int
	Height int

	// Pixels holds Width*Height samples in row-major order
	Pixels []RGBA

	// Source is the file the raster was decoded from, if any
	Source string
}

// NewRaster allocates a zeroed raster of the given size.
func NewRaster(width, height int) Raster {
	return Raster{
		Width:  width,
		Height: height,
		Pixels: make([]RGBA, width*height),
	}
}

// At returns the pixel at (x, y).
func (r Raster) At(x, y int) RGBA {
	return r.Pixels[y*r.Width+x]
}

// Set overwrites the pixel at (x, y).
func (r Raster) Set(x, y int, p RGBA) {
	r.Pixels[y*r.Width+x] = p
}

// Empty reports whether the raster has no pixels.
func (r Raster) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Mode selects what the pipeline does with the kernel.
type Mode int

const (
	// Deconvolve removes the kernel's blur with a Wiener filter
	Deconvolve Mode = iota

	// Blur convolves the image with the kernel
	Blur
)

func (m Mode) String() string {
	if m == Blur {
		return "blur"
	}
	return "deconvolve"
}
