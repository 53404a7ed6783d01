// Package kernel generates the spatial-domain filter kernels that images are
// blurred with or deconvolved against.
package kernel

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"deconvolve/internal/models"
	"deconvolve/pkg/sized"
	"deconvolve/pkg/vector"
)

// Config holds the parameters shared by all generators.
type Config struct {
	// Size is the box half-width or the gaussian standard deviation
	Size float64
}

// Generator samples a kernel at an offset (x, y) from its centre.
type Generator interface {
	Sample(x, y int, cfg Config) vector.Cvec4
}

// Box is a uniform square kernel normalised to unit total weight.
type Box struct{}

// Sample returns 1/(2s-1)^2 on every channel inside the box |x|,|y| < s, with
// s = floor(cfg.Size), and zero outside it.
func (Box) Sample(x, y int, cfg Config) vector.Cvec4 {
	s := int(math.Floor(cfg.Size))
	if abs(x) >= s || abs(y) >= s {
		return vector.Cvec4{}
	}
	side := float64(2*s - 1)
	return vector.Splat(complex(1/(side*side), 0))
}

// Gaussian is a normalised 2D gaussian with standard deviation cfg.Size.
type Gaussian struct{}

// Sample returns the gaussian weight on the colour channels. The alpha
// channel is always 1 so that alpha is not filtered.
func (Gaussian) Sample(x, y int, cfg Config) vector.Cvec4 {
	sigma := cfg.Size
	p0 := 1 / (2 * math.Pi * sigma * sigma)
	r := float64(x*x + y*y)
	weight := complex(p0*math.Exp(-r/(2*sigma*sigma)), 0)
	return vector.New([vector.N]complex128{weight, weight, weight, 1})
}

// Generate samples gen over a width x height image (rounded up to powers of
// two). Pixel (i, j) holds the sample at offset (i - W/2, j - H/2), so the
// kernel's origin is the image centre.
func Generate(width, height int, gen Generator, cfg Config) *sized.Image[sized.Spatial] {
	img := sized.New(width, height, vector.Cvec4{})
	w, h := img.Width(), img.Height()
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			img.StoreData(i, j, gen.Sample(i-w/2, j-h/2, cfg))
		}
	}
	return img
}

// FromRaster places a decoded kernel image into a width x height image so that
// the raster's centre lands on the image centre, matching the layout of
// Generate. Parts of the raster that do not fit are cropped.
func FromRaster(r models.Raster, width, height int) *sized.Image[sized.Spatial] {
	img := sized.New(width, height, vector.Cvec4{})
	w, h := img.Width(), img.Height()
	for j := 0; j < r.Height; j++ {
		y := h/2 + j - r.Height/2
		if y < 0 || y >= h {
			continue
		}
		for i := 0; i < r.Width; i++ {
			x := w/2 + i - r.Width/2
			if x < 0 || x >= w {
				continue
			}
			img.StoreData(x, y, vector.FromReal(r.At(i, j)))
		}
	}
	return img
}

// Kind names a procedural generator.
type Kind int

const (
	KindBox Kind = iota
	KindGaussian
)

var kindNames = map[string]Kind{
	"box":      KindBox,
	"gaussian": KindGaussian,
}

func (k Kind) String() string {
	name, ok := lo.FindKey(kindNames, k)
	if !ok {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return name
}

// Kinds lists the accepted kind names in sorted order.
func Kinds() []string {
	names := lo.Keys(kindNames)
	sort.Strings(names)
	return names
}

// ParseKind converts a case-insensitive name into a Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown kernel %q (want one of %s)", name, strings.Join(Kinds(), ", "))
	}
	return k, nil
}

// ForKind returns the generator for k.
func ForKind(k Kind) (Generator, error) {
	switch k {
	case KindBox:
		return Box{}, nil
	case KindGaussian:
		return Gaussian{}, nil
	default:
		return nil, fmt.Errorf("no generator for %v", k)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
