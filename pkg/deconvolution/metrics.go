package deconvolution

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"deconvolve/internal/models"
)

// colourChannels is the number of leading channels compared by the metrics;
// alpha is excluded because the pipeline always emits it as 1.
const colourChannels = 3

// Metrics summarises a run by comparing its input and output.
type Metrics struct {
	// RMSE is the root mean square difference over the colour channels.
	RMSE float64

	// PSNR is the peak signal-to-noise ratio in dB for a peak of 1. It is
	// +Inf when input and output are identical.
	PSNR float64

	// SSIM is the global structural similarity index averaged over the
	// colour channels. 1 means identical.
	SSIM float64

	// InputMean and OutputMean are per-channel averages
	InputMean  [colourChannels]float64
	OutputMean [colourChannels]float64

	// SignalPower and NoisePower are the aggregate spectral powers used by
	// the Wiener filter. They are zero for blur runs.
	SignalPower [4]float64
	NoisePower  [4]float64
}

// compareRasters computes the image-quality part of Metrics. Both rasters
// must have the same size.
func compareRasters(original, processed models.Raster) Metrics {
	var m Metrics
	n := len(original.Pixels)
	if n == 0 || n != len(processed.Pixels) {
		return m
	}

	var sq float64
	for c := 0; c < colourChannels; c++ {
		a := channel(original, c)
		b := channel(processed, c)

		m.InputMean[c] = stat.Mean(a, nil)
		m.OutputMean[c] = stat.Mean(b, nil)
		d := floats.Distance(a, b, 2)
		sq += d * d
		m.SSIM += calculateSSIM(a, b) / colourChannels
	}

	m.RMSE = math.Sqrt(sq / float64(n*colourChannels))
	if m.RMSE == 0 {
		m.PSNR = math.Inf(1)
	} else {
		m.PSNR = -20 * math.Log10(m.RMSE)
	}
	return m
}

func channel(r models.Raster, c int) []float64 {
	out := make([]float64, len(r.Pixels))
	for i, p := range r.Pixels {
		out[i] = p[c]
	}
	return out
}

// calculateSSIM computes the Structural Similarity Index
func calculateSSIM(original, reconstructed []float64) float64 {
	// Constants for SSIM calculation
	const L = 1.0 // Dynamic range
	const k1 = 0.01
	const k2 = 0.03

	c1 := (k1 * L) * (k1 * L)
	c2 := (k2 * L) * (k2 * L)

	if len(original) < 2 {
		return 1
	}

	muX := stat.Mean(original, nil)
	muY := stat.Mean(reconstructed, nil)
	sigmaX := stat.Variance(original, nil)
	sigmaY := stat.Variance(reconstructed, nil)
	sigmaXY := stat.Covariance(original, reconstructed, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)

	if den > 0 {
		return num / den
	}
	return 0
}
