package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deconvolve/internal/models"
	"deconvolve/pkg/fourier"
	"deconvolve/pkg/sized"
	"deconvolve/pkg/vector"
)

// TestExtractSpectrumCentresDC verifies that a constant image renders as a
// single bright pixel in the middle of the spectrum
func TestExtractSpectrumCentresDC(t *testing.T) {
	img := sized.New(8, 4, vector.Splat[complex128](0.5))
	freq, err := sized.Forward(img, fourier.NewFFT2D(2, nil))
	require.NoError(t, err)

	r := ExtractSpectrum(freq)
	require.Equal(t, 8, r.Width)
	require.Equal(t, 4, r.Height)

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			p := r.At(x, y)
			if x == 4 && y == 2 {
				assert.Equal(t, models.RGBA{1, 1, 1, 1}, p)
			} else {
				assert.InDelta(t, 0, p[0], 1e-9, "(%d,%d)", x, y)
				assert.Equal(t, 1.0, p[3])
			}
		}
	}
}

// TestExtractSpatial copies real parts and forces alpha
func TestExtractSpatial(t *testing.T) {
	img := sized.New(2, 2, vector.New([4]complex128{0.1, 0.2, complex(0.3, 5), 0}))
	r := ExtractSpatial(img)
	assert.Equal(t, models.RGBA{0.1, 0.2, 0.3, 1}, r.At(1, 1))
}

// TestViewerNumbersStages checks file naming and creation of the output dir
func TestViewerNumbersStages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stages")
	v := NewViewer(dir)

	require.NoError(t, v.SaveSpatial("input", sized.New(4, 4, vector.Splat[complex128](0.2))))
	freq, err := sized.Forward(sized.New(4, 4, vector.Splat[complex128](0.2)), fourier.NewFFT2D(1, nil))
	require.NoError(t, err)
	require.NoError(t, v.SaveSpectrum("input_spectrum", freq))

	for _, name := range []string{"01_input.png", "02_input_spectrum.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
