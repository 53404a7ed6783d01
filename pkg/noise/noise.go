// Package noise synthesises the deterministic noise texture used to estimate
// the noise floor of a Wiener filter.
//
// The sequence is a 32-bit integer recurrence with wraparound on overflow. Its
// exact arithmetic is fixed so that noise-floor estimates match bit for bit
// across runs and implementations:
//
//	s = 41*s*s + 71*s + 93
//	s = (37*s*s + 337*s + 80) * i
//	s = 991*s*s + 13*s + 237
//	s = s mod 231734
//	value = ((s mod 128) / 64.0 - 1.0) * magnitude
//
// where i is the call index (four calls per pixel, one per channel).
package noise

import (
	"deconvolve/pkg/sized"
	"deconvolve/pkg/vector"
)

const (
	// Seed is the initial state of every new Generator.
	Seed uint32 = 231724

	modulus uint32 = 231734
)

// Generator is a seeded pseudo-random source. It is not safe for concurrent
// use.
type Generator struct {
	seed      uint32
	magnitude float64
}

// New returns a generator in its initial state whose samples are scaled by
// magnitude.
func New(magnitude float64) *Generator {
	return &Generator{seed: Seed, magnitude: magnitude}
}

// Next advances the state using call index i and returns a sample in
// approximately [-magnitude, magnitude).
func (g *Generator) Next(i uint32) float64 {
	s := g.seed
	s = 41*s*s + 71*s + 93
	s = (37*s*s + 337*s + 80) * i
	s = 991*s*s + 13*s + 237
	s %= modulus
	g.seed = s
	return (float64(s%128)/64.0 - 1.0) * g.magnitude
}

// Texture fills a spatial image of the given size with noise, drawing the
// channels of pixel p with call indices 4p..4p+3 in row-major order.
func (g *Generator) Texture(width, height int) *sized.Image[sized.Spatial] {
	img := sized.New(width, height, vector.Cvec4{})
	w, h := img.Width(), img.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := uint32(img.IndexOf(x, y)) * vector.N
			var px vector.Cvec4
			for c := range px.Data {
				px.Data[c] = complex(g.Next(base+uint32(c)), 0)
			}
			img.StoreData(x, y, px)
		}
	}
	return img
}
