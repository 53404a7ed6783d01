// Package sized implements the power-of-two padded pixel buffer that the
// frequency-domain pipeline operates on.
//
// An Image carries its domain (Spatial or Frequency) as a type parameter. The
// tag costs nothing at runtime, but it means spectral operations only accept
// frequency images and the only way to obtain a frequency image is Forward.
package sized

import (
	"fmt"
	"math/bits"

	"deconvolve/pkg/vector"
)

// Domain is the sealed set of domain tags. It cannot be implemented outside
// this package.
type Domain interface {
	domain()
}

// Spatial tags pixel values indexed by image coordinate.
type Spatial struct{}

// Frequency tags pixel values indexed by spatial frequency.
type Frequency struct{}

func (Spatial) domain()   {}
func (Frequency) domain() {}

// Image is a dense row-major buffer of pixels whose width and height are
// powers of two. The buffer is exclusively owned; converting between domains
// moves it into the result and leaves the source empty.
type Image[D Domain] struct {
	widthLog2  uint32
	heightLog2 uint32
	pixels     []vector.Cvec4
}

// Log2Ceil returns the exponent of the smallest power of two >= n.
// A dimension of zero or less is a programming error and panics.
func Log2Ceil(n int) uint32 {
	if n <= 0 {
		panic(fmt.Sprintf("sized: invalid dimension %d", n))
	}
	return uint32(bits.Len(uint(n - 1)))
}

// New creates a spatial image whose dimensions are width and height rounded
// up to powers of two, with every pixel set to init.
func New(width, height int, init vector.Cvec4) *Image[Spatial] {
	wl := Log2Ceil(width)
	hl := Log2Ceil(height)
	pixels := make([]vector.Cvec4, (1<<wl)*(1<<hl))
	for i := range pixels {
		pixels[i] = init
	}
	return &Image[Spatial]{widthLog2: wl, heightLog2: hl, pixels: pixels}
}

// From creates a spatial image and copies src, an unpadded row-major
// width*height buffer, into its top-left corner. The rest is filled with init.
func From(width, height int, src []vector.Cvec4, init vector.Cvec4) *Image[Spatial] {
	if len(src) != width*height {
		panic(fmt.Sprintf("sized: source has %d pixels, want %dx%d", len(src), width, height))
	}
	img := New(width, height, init)
	for y := 0; y < height; y++ {
		copy(img.pixels[img.IndexOf(0, y):img.IndexOf(width, y)], src[y*width:(y+1)*width])
	}
	return img
}

// Width returns the padded width, 2^widthLog2.
func (img *Image[D]) Width() int {
	return 1 << img.widthLog2
}

// Height returns the padded height, 2^heightLog2.
func (img *Image[D]) Height() int {
	return 1 << img.heightLog2
}

// WidthLog2 returns the width exponent.
func (img *Image[D]) WidthLog2() uint32 {
	return img.widthLog2
}

// HeightLog2 returns the height exponent.
func (img *Image[D]) HeightLog2() uint32 {
	return img.heightLog2
}

// IndexOf maps a coordinate to its position in the row-major buffer.
func (img *Image[D]) IndexOf(x, y int) int {
	return y*img.Width() + x
}

// At returns the pixel at (x, y).
func (img *Image[D]) At(x, y int) vector.Cvec4 {
	img.mustBeLive()
	return img.pixels[img.IndexOf(x, y)]
}

// StoreData overwrites the pixel at (x, y).
func (img *Image[D]) StoreData(x, y int, p vector.Cvec4) {
	img.mustBeLive()
	img.pixels[img.IndexOf(x, y)] = p
}

// Pixels returns a copy of the underlying buffer.
func (img *Image[D]) Pixels() []vector.Cvec4 {
	img.mustBeLive()
	out := make([]vector.Cvec4, len(img.pixels))
	copy(out, img.pixels)
	return out
}

// SameSize reports whether img and other have identical padded dimensions.
func SameSize[A, B Domain](img *Image[A], other *Image[B]) bool {
	return img.widthLog2 == other.widthLog2 && img.heightLog2 == other.heightLog2
}

func (img *Image[D]) mustBeLive() {
	if img.pixels == nil {
		panic("sized: image buffer has been consumed")
	}
}

// PadToNewSize returns a new image of at least newWidth x newHeight with the
// source copied to the top-left corner and init everywhere else. The source is
// left untouched.
func PadToNewSize(img *Image[Spatial], newWidth, newHeight int, init vector.Cvec4) *Image[Spatial] {
	img.mustBeLive()
	if newWidth < img.Width() || newHeight < img.Height() {
		panic(fmt.Sprintf("sized: cannot pad %dx%d down to %dx%d",
			img.Width(), img.Height(), newWidth, newHeight))
	}
	out := New(newWidth, newHeight, init)
	w := img.Width()
	for y := 0; y < img.Height(); y++ {
		copy(out.pixels[out.IndexOf(0, y):out.IndexOf(w, y)], img.pixels[img.IndexOf(0, y):img.IndexOf(w, y)])
	}
	return out
}

// Crop returns the top-left width x height region as an unpadded row-major
// buffer.
func Crop(img *Image[Spatial], width, height int) []vector.Cvec4 {
	img.mustBeLive()
	if width > img.Width() || height > img.Height() {
		panic(fmt.Sprintf("sized: cannot crop %dx%d from %dx%d",
			width, height, img.Width(), img.Height()))
	}
	out := make([]vector.Cvec4, 0, width*height)
	for y := 0; y < height; y++ {
		out = append(out, img.pixels[img.IndexOf(0, y):img.IndexOf(width, y)]...)
	}
	return out
}

// Recenter returns a copy of img circularly shifted so that the logical centre
// (Width/2, Height/2) lands on the origin. A kernel sampled around its centre
// must be recentred before it is transformed, otherwise filtering translates
// the image by half its size.
func Recenter(img *Image[Spatial]) *Image[Spatial] {
	img.mustBeLive()
	w, h := img.Width(), img.Height()
	out := &Image[Spatial]{
		widthLog2:  img.widthLog2,
		heightLog2: img.heightLog2,
		pixels:     make([]vector.Cvec4, len(img.pixels)),
	}
	for y := 0; y < h; y++ {
		dy := (y - h/2) & (h - 1)
		for x := 0; x < w; x++ {
			dx := (x - w/2) & (w - 1)
			out.pixels[out.IndexOf(dx, dy)] = img.pixels[img.IndexOf(x, y)]
		}
	}
	return out
}
