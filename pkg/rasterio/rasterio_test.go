package rasterio

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deconvolve/internal/models"
)

// gradient builds a small raster with distinct values in every channel
func gradient(w, h int) models.Raster {
	r := models.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.Set(x, y, models.RGBA{
				float64(x) / float64(w-1),
				float64(y) / float64(h-1),
				0.25,
				1,
			})
		}
	}
	return r
}

// TestLosslessRoundTrip saves and reloads through every lossless format
func TestLosslessRoundTrip(t *testing.T) {
	src := gradient(5, 3)
	for _, ext := range []string{".png", ".tiff", ".bmp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+ext)
			require.NoError(t, Save(src, path))

			got, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, src.Width, got.Width)
			require.Equal(t, src.Height, got.Height)
			assert.Equal(t, path, got.Source)

			// BMP stores 8 bits per channel
			tolerance := 1.0 / 65535
			if ext == ".bmp" {
				tolerance = 1.0 / 255
			}
			for i := range src.Pixels {
				for c := 0; c < 4; c++ {
					assert.InDelta(t, src.Pixels[i][c], got.Pixels[i][c], tolerance, "pixel %d channel %d", i, c)
				}
			}
		})
	}
}

// TestJPEGRoundTrip only checks that lossy output decodes with the right size
func TestJPEGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, Save(gradient(8, 8), path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Width)
	assert.Equal(t, 8, got.Height)
}

// TestSaveRejectsUnknownFormat must not create a file
func TestSaveRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xyz")
	assert.ErrorContains(t, Save(gradient(2, 2), path), "unsupported output format")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.True(t, SupportedOutput("a/b.PNG"))
	assert.False(t, SupportedOutput("a/b.gif"))
}

// TestLoadErrors covers missing and undecodable files
func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to decode")
}

// TestConversionClampsAndUnpremultiplies checks both conversion directions
func TestConversionClampsAndUnpremultiplies(t *testing.T) {
	r := models.NewRaster(2, 1)
	r.Set(0, 0, models.RGBA{-0.5, 1.5, 0.5, 1})
	r.Set(1, 0, models.RGBA{0, 0, 0, 0})
	img := ToImage(r)
	assert.Equal(t, color.NRGBA64{R: 0, G: 65535, B: 32768, A: 65535}, img.NRGBA64At(0, 0))

	// A half-transparent premultiplied pixel comes back un-premultiplied
	rgba := image.NewRGBA(image.Rect(3, 4, 4, 5))
	rgba.SetRGBA(3, 4, color.RGBA{R: 64, G: 0, B: 0, A: 128})
	back := FromImage(rgba)
	require.Equal(t, 1, back.Width)
	assert.InDelta(t, 0.5, back.At(0, 0)[0], 0.01)
	assert.InDelta(t, 128.0/255, back.At(0, 0)[3], 1e-9)
}
