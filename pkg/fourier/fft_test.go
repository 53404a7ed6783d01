package fourier

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deconvolve/pkg/vector"
)

// testBuffer fills a w x h buffer with a deterministic, non-symmetric pattern
func testBuffer(w, h int) []vector.Cvec4 {
	data := make([]vector.Cvec4, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64((x*7+y*13)%17) / 17.0
			data[y*w+x] = vector.New([vector.N]complex128{
				complex(v, 0),
				complex(1-v, 0),
				complex(float64(x)/float64(w), 0),
				complex(0.5, float64(y)/float64(h)),
			})
		}
	}
	return data
}

// TestRoundTrip verifies that inverse(forward(x)) reproduces x
func TestRoundTrip(t *testing.T) {
	sizes := [][2]uint32{{0, 0}, {1, 3}, {3, 1}, {4, 4}, {5, 3}}
	for _, sz := range sizes {
		w, h := 1<<sz[0], 1<<sz[1]
		original := testBuffer(w, h)
		data := make([]vector.Cvec4, len(original))
		copy(data, original)

		fft := NewFFT2D(3, nil)
		require.NoError(t, fft.Transform(data, sz[0], sz[1], false))
		require.NoError(t, fft.Transform(data, sz[0], sz[1], true))

		for i := range data {
			for c := 0; c < vector.N; c++ {
				diff := cmplx.Abs(data[i].Data[c] - original[i].Data[c])
				if diff > 1e-9 {
					t.Fatalf("%dx%d: pixel %d channel %d differs by %g", w, h, i, c, diff)
				}
			}
		}
	}
}

// TestImpulseSpectrum checks that a unit impulse at the origin has a flat
// spectrum and that a constant image has only a DC term
func TestImpulseSpectrum(t *testing.T) {
	const lw, lh = 3, 2
	w, h := 1<<lw, 1<<lh

	impulse := make([]vector.Cvec4, w*h)
	impulse[0] = vector.Splat[complex128](1)
	require.NoError(t, NewFFT2D(2, nil).Transform(impulse, lw, lh, false))
	for i, p := range impulse {
		for c := 0; c < vector.N; c++ {
			assert.InDelta(t, 1.0, real(p.Data[c]), 1e-12, "bin %d", i)
			assert.InDelta(t, 0.0, imag(p.Data[c]), 1e-12, "bin %d", i)
		}
	}

	constant := make([]vector.Cvec4, w*h)
	for i := range constant {
		constant[i] = vector.Splat[complex128](0.5)
	}
	require.NoError(t, NewFFT2D(2, nil).Transform(constant, lw, lh, false))
	assert.InDelta(t, 0.5*float64(w*h), real(constant[0].Data[0]), 1e-9)
	for i := 1; i < len(constant); i++ {
		assert.InDelta(t, 0.0, cmplx.Abs(constant[i].Data[0]), 1e-9, "bin %d", i)
	}
}

// TestThreadCountDoesNotChangeResult compares a single worker against many
func TestThreadCountDoesNotChangeResult(t *testing.T) {
	const lw, lh = 4, 3
	a := testBuffer(1<<lw, 1<<lh)
	b := testBuffer(1<<lw, 1<<lh)

	require.NoError(t, NewFFT2D(1, nil).Transform(a, lw, lh, false))
	require.NoError(t, NewFFT2D(64, nil).Transform(b, lw, lh, false))
	assert.Equal(t, a, b)
}

// TestInvalidDimension rejects buffers whose length disagrees with the exponents
func TestInvalidDimension(t *testing.T) {
	data := make([]vector.Cvec4, 12)
	err := NewFFT2D(1, nil).Transform(data, 2, 2, false)

	var fe *Error
	require.True(t, errors.As(err, &fe), "expected *Error, got %v", err)
	assert.Equal(t, InvalidDimension, fe.Status)
	assert.True(t, errors.Is(err, &Error{Status: InvalidDimension}))
	assert.False(t, errors.Is(err, &Error{Status: OutOfMemory}))

	// The buffer must be left alone
	for _, p := range data {
		assert.Equal(t, vector.Cvec4{}, p)
	}
}

// TestInvalidThreadCount rejects a zero worker count
func TestInvalidThreadCount(t *testing.T) {
	data := make([]vector.Cvec4, 4)
	err := NewFFT2D(0, nil).Transform(data, 1, 1, false)
	assert.True(t, errors.Is(err, &Error{Status: InvalidThreadCount}), "got %v", err)
}

// TestOutOfMemory rejects sizes beyond what the transform can address
func TestOutOfMemory(t *testing.T) {
	err := NewFFT2D(1, nil).Transform(nil, 20, 20, false)
	assert.True(t, errors.Is(err, &Error{Status: OutOfMemory}), "got %v", err)

	err = NewFFT2D(1, nil).Transform(nil, math.MaxUint32, 1, false)
	assert.True(t, errors.Is(err, &Error{Status: OutOfMemory}), "got %v", err)
}

// TestStatusCodes pins the numeric values shared with other transform implementations
func TestStatusCodes(t *testing.T) {
	assert.Equal(t, uint8(0), uint8(Success))
	assert.Equal(t, uint8(1), uint8(OutOfMemory))
	assert.Equal(t, uint8(2), uint8(InvalidDimension))
	assert.Equal(t, uint8(3), uint8(InvalidThreadCount))
	assert.Equal(t, "fourier: invalid dimension", (&Error{Status: InvalidDimension}).Error())
}
