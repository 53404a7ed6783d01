// Package rasterio decodes and encodes raster image files to and from the
// floating point Raster exchange format.
package rasterio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"deconvolve/internal/models"
)

type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// SupportedOutput reports whether path has an extension Save can encode.
func SupportedOutput(path string) bool {
	return lo.HasKey(encoders, strings.ToLower(filepath.Ext(path)))
}

// Load decodes the image at path. PNG, JPEG, GIF, BMP, TIFF and WebP inputs
// are recognised by content.
func Load(path string) (models.Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Raster{}, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	r := FromImage(img)
	if r.Empty() {
		return models.Raster{}, fmt.Errorf("%s: %s image has no pixels", path, format)
	}
	r.Source = path
	return r, nil
}

// Save encodes r into the format implied by path's extension. The file is
// only created once encoding has succeeded.
func Save(r models.Raster, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encoders[ext]
	if !ok {
		return fmt.Errorf("unsupported output format %q", ext)
	}

	var buf bytes.Buffer
	if err := enc(&buf, ToImage(r)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FromImage converts any image into a raster of non-premultiplied samples in
// [0, 1].
func FromImage(img image.Image) models.Raster {
	bounds := img.Bounds()
	r := models.NewRaster(bounds.Dx(), bounds.Dy())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			r.Set(x, y, models.RGBA{
				float64(c.R) / 65535.0,
				float64(c.G) / 65535.0,
				float64(c.B) / 65535.0,
				float64(c.A) / 65535.0,
			})
		}
	}
	return r
}

// ToImage converts a raster into a 16-bit image, clamping samples to [0, 1].
func ToImage(r models.Raster) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			p := r.At(x, y)
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: quantize(p[0]),
				G: quantize(p[1]),
				B: quantize(p[2]),
				A: quantize(p[3]),
			})
		}
	}
	return img
}

func quantize(v float64) uint16 {
	if math.IsNaN(v) {
		return 0
	}
	return uint16(math.Round(math.Max(0, math.Min(1, v)) * 65535))
}
