package sized

import (
	"fmt"

	"deconvolve/pkg/vector"
)

// Transformer is an in-place 2D Fourier transform over a row-major buffer of
// 2^log2Width * 2^log2Height pixels. The inverse direction must undo the
// forward one, including normalisation.
type Transformer interface {
	Transform(data []vector.Cvec4, log2Width, log2Height uint32, inverse bool) error
}

// Forward consumes a spatial image and returns its spectrum. On error the
// input is still consumed and no partial result is returned.
func Forward(img *Image[Spatial], t Transformer) (*Image[Frequency], error) {
	return relabel[Spatial, Frequency](img, t, false)
}

// Inverse consumes a spectrum and returns the spatial image it describes.
func Inverse(img *Image[Frequency], t Transformer) (*Image[Spatial], error) {
	return relabel[Frequency, Spatial](img, t, true)
}

func relabel[From, To Domain](img *Image[From], t Transformer, inverse bool) (*Image[To], error) {
	img.mustBeLive()
	out := &Image[To]{
		widthLog2:  img.widthLog2,
		heightLog2: img.heightLog2,
		pixels:     img.pixels,
	}
	img.pixels = nil
	if err := t.Transform(out.pixels, out.widthLog2, out.heightLog2, inverse); err != nil {
		return nil, err
	}
	return out, nil
}

// PowerSum returns the squared magnitude of every bin summed per channel.
func PowerSum(img *Image[Frequency]) vector.Cvec4 {
	img.mustBeLive()
	var sum vector.Cvec4
	for _, p := range img.pixels {
		sum = sum.Add(vector.AbsSq(p))
	}
	return sum
}

// MapSpectrum replaces every bin with f(bin). It consumes img and returns it
// under a new handle.
func MapSpectrum(img *Image[Frequency], f func(vector.Cvec4) vector.Cvec4) *Image[Frequency] {
	img.mustBeLive()
	out := &Image[Frequency]{widthLog2: img.widthLog2, heightLog2: img.heightLog2, pixels: img.pixels}
	img.pixels = nil
	for i, p := range out.pixels {
		out.pixels[i] = f(p)
	}
	return out
}

// MulSpectrum multiplies a by b bin by bin. It consumes a; b is only read.
func MulSpectrum(a, b *Image[Frequency]) *Image[Frequency] {
	b.mustBeLive()
	if !SameSize(a, b) {
		panic(fmt.Sprintf("sized: spectrum size mismatch %dx%d vs %dx%d",
			a.Width(), a.Height(), b.Width(), b.Height()))
	}
	a.mustBeLive()
	rhs := b.pixels
	out := &Image[Frequency]{widthLog2: a.widthLog2, heightLog2: a.heightLog2, pixels: a.pixels}
	a.pixels = nil
	for i := range out.pixels {
		out.pixels[i] = out.pixels[i].Mul(rhs[i])
	}
	return out
}
