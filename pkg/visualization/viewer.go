package visualization

import (
	"fmt"
	"math"
	"math/cmplx"
	"path/filepath"

	"deconvolve/internal/models"
	"deconvolve/pkg/rasterio"
	"deconvolve/pkg/sized"
	"deconvolve/pkg/vector"
)

// Viewer renders the intermediate images of a filtering run so they can be
// inspected. Spectra are shown as log magnitude with the DC term moved to the
// centre; spatial images are shown as they are.
type Viewer struct {
	// outputDir is where rendered stages are written
	outputDir string

	// count numbers the stages in the order they are saved
	count int
}

// NewViewer creates a viewer writing into outputDir
func NewViewer(outputDir string) *Viewer {
	return &Viewer{outputDir: outputDir}
}

// ExtractSpectrum renders the log magnitude of every channel of a spectrum,
// normalised per channel to [0, 1] and shifted so the zero frequency sits at
// the image centre. Alpha is rendered opaque.
func ExtractSpectrum(img *sized.Image[sized.Frequency]) models.Raster {
	w, h := img.Width(), img.Height()
	out := models.NewRaster(w, h)

	var peak [vector.N]float64
	logMag := make([][vector.N]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := img.At(x, y)
			var m [vector.N]float64
			for c := range m {
				m[c] = math.Log1p(cmplx.Abs(p.Data[c]))
				peak[c] = math.Max(peak[c], m[c])
			}
			logMag[img.IndexOf(x, y)] = m
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := logMag[img.IndexOf(x, y)]
			var px models.RGBA
			for c := 0; c < 3; c++ {
				if peak[c] > 0 {
					px[c] = m[c] / peak[c]
				}
			}
			px[3] = 1
			out.Set((x+w/2)%w, (y+h/2)%h, px)
		}
	}
	return out
}

// ExtractSpatial renders the real part of a spatial image with opaque alpha.
func ExtractSpatial(img *sized.Image[sized.Spatial]) models.Raster {
	w, h := img.Width(), img.Height()
	out := models.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			re := vector.Real(img.At(x, y))
			out.Set(x, y, models.RGBA{re[0], re[1], re[2], 1})
		}
	}
	return out
}

// SaveSpectrum writes a rendered spectrum as the next numbered stage
func (v *Viewer) SaveSpectrum(stage string, img *sized.Image[sized.Frequency]) error {
	return v.save(stage, ExtractSpectrum(img))
}

// SaveSpatial writes a rendered spatial image as the next numbered stage
func (v *Viewer) SaveSpatial(stage string, img *sized.Image[sized.Spatial]) error {
	return v.save(stage, ExtractSpatial(img))
}

func (v *Viewer) save(stage string, r models.Raster) error {
	v.count++
	filename := filepath.Join(v.outputDir, fmt.Sprintf("%02d_%s.png", v.count, stage))
	if err := rasterio.Save(r, filename); err != nil {
		return fmt.Errorf("failed to save stage %s: %w", stage, err)
	}
	return nil
}
