// Package deconvolution restores or blurs images by filtering them with a
// kernel in the frequency domain.
//
// Deconvolution uses a Wiener filter whose signal and noise terms are single
// aggregate powers per channel: the signal power of the whole target
// spectrum, and the power of a deterministic synthetic noise texture. This is
// coarser than a per-frequency power spectral density but fully reproducible.
package deconvolution

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"deconvolve/internal/models"
	"deconvolve/pkg/config"
	"deconvolve/pkg/kernel"
	"deconvolve/pkg/noise"
	"deconvolve/pkg/rasterio"
	"deconvolve/pkg/sized"
	"deconvolve/pkg/vector"
	"deconvolve/pkg/visualization"
)

// Epsilon is the smallest channel value the deconvolution ingests. Darker
// samples are raised to it so that the spectrum never collapses to zero
// energy.
const Epsilon = 0.01

// ErrEmptyImage is returned for a target with no pixels.
var ErrEmptyImage = errors.New("deconvolution: image has no pixels")

// Params holds the parameters of a run.
type Params struct {
	// InputFile is the image to process. Only used by Process.
	InputFile string

	// OutputFile is where Process writes the result; its extension selects
	// the format.
	OutputFile string

	// Mode selects deconvolution or blurring
	Mode models.Mode

	// KernelKind and KernelSize configure the procedural kernel
	KernelKind kernel.Kind
	KernelSize float64

	// KernelFile, when set, is decoded and used instead of a procedural kernel
	KernelFile string

	// Padding doubles the width and height before filtering so that the
	// circular convolution of the FFT behaves like a linear one
	Padding bool

	// NoiseMagnitude scales the synthetic noise texture
	NoiseMagnitude float64

	// SaveIntermediaryResults renders each stage into IntermediaryDir
	SaveIntermediaryResults bool
	IntermediaryDir         string
}

// ParamsFromConfig builds run parameters from a loaded configuration.
func ParamsFromConfig(cfg *config.Config, inputFile string, mode models.Mode) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	p := &Params{
		InputFile:               inputFile,
		OutputFile:              cfg.Output.Path,
		Mode:                    mode,
		KernelSize:              cfg.Kernel.Size,
		KernelFile:              cfg.Kernel.File,
		Padding:                 cfg.Processing.Padding,
		NoiseMagnitude:          cfg.Processing.NoiseMagnitude,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
	}
	if p.KernelFile == "" {
		kind, err := kernel.ParseKind(cfg.Kernel.Kind)
		if err != nil {
			return nil, err
		}
		p.KernelKind = kind
	}
	return p, nil
}

// Deconvolver runs the filtering pipeline. It is not safe for concurrent use;
// each stage owns its image and hands it to the next.
type Deconvolver struct {
	// params stores the run configuration
	params *Params

	// transform converts images between the spatial and frequency domains
	transform sized.Transformer

	logger *logrus.Logger

	// viewer renders intermediate stages; nil unless requested
	viewer *visualization.Viewer

	// metrics stores the quality assessment of the last run
	metrics Metrics
}

// NewDeconvolver creates a pipeline that uses t for every transform.
func NewDeconvolver(params *Params, t sized.Transformer, logger *logrus.Logger) *Deconvolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Deconvolver{
		params:    params,
		transform: t,
		logger:    logger,
	}
	if params.SaveIntermediaryResults {
		d.viewer = visualization.NewViewer(params.IntermediaryDir)
	}
	return d
}

// Process runs the complete file-to-file pipeline
func (d *Deconvolver) Process() error {
	start := time.Now()

	// Step 1: Load the target and, if given, the kernel image
	d.logger.WithField("file", d.params.InputFile).Info("Step 1: Loading input image")
	target, err := rasterio.Load(d.params.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	var kernelImage *models.Raster
	if d.params.KernelFile != "" {
		d.logger.WithField("file", d.params.KernelFile).Info("Loading kernel image")
		k, err := rasterio.Load(d.params.KernelFile)
		if err != nil {
			return fmt.Errorf("failed to load kernel: %w", err)
		}
		kernelImage = &k
	}

	// Step 2: Filter
	d.logger.WithFields(logrus.Fields{
		"mode":   d.params.Mode,
		"width":  target.Width,
		"height": target.Height,
	}).Info("Step 2: Filtering in the frequency domain")
	var result models.Raster
	switch d.params.Mode {
	case models.Blur:
		result, err = d.Blur(target, kernelImage)
	default:
		result, err = d.Deconvolve(target, kernelImage)
	}
	if err != nil {
		return err
	}

	// Step 3: Save
	d.logger.WithField("file", d.params.OutputFile).Info("Step 3: Writing output image")
	if err := rasterio.Save(result, d.params.OutputFile); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"rmse":    d.metrics.RMSE,
		"psnr":    d.metrics.PSNR,
		"ssim":    d.metrics.SSIM,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Processing completed")
	return nil
}

// GetMetrics returns the metrics of the last Deconvolve or Blur call
func (d *Deconvolver) GetMetrics() Metrics {
	return d.metrics
}

// Deconvolve removes the kernel's blur from target with a Wiener filter. When
// kernelImage is nil the procedural kernel from Params is used.
func (d *Deconvolver) Deconvolve(target models.Raster, kernelImage *models.Raster) (models.Raster, error) {
	// Ingest: pad for linear convolution and lift dark samples to Epsilon
	img, err := d.ingest(target)
	if err != nil {
		return models.Raster{}, err
	}
	img = clampBelow(img, Epsilon)
	d.saveSpatial("input", img)

	kern := d.prepareKernel(img, kernelImage)
	mustMatch(img, kern)

	// Transform both into the frequency domain
	targetFreq, err := sized.Forward(img, d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to transform target: %w", err)
	}
	kernFreq, err := sized.Forward(kern, d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to transform kernel: %w", err)
	}
	d.saveSpectrum("input_spectrum", targetFreq)
	d.saveSpectrum("kernel_spectrum", kernFreq)

	// Noise floor from a deterministic texture of the same size
	noiseFreq, err := sized.Forward(
		noise.New(d.params.NoiseMagnitude).Texture(targetFreq.Width(), targetFreq.Height()),
		d.transform,
	)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to transform noise texture: %w", err)
	}
	d.saveSpectrum("noise_spectrum", noiseFreq)
	noisePower := sized.PowerSum(noiseFreq)
	signalPower := sized.PowerSum(targetFreq)

	d.logger.WithFields(logrus.Fields{
		"signal": vector.Real(signalPower),
		"noise":  vector.Real(noisePower),
	}).Debug("Estimated aggregate spectral power")

	// Build the filter from the kernel spectrum and apply it
	filter := sized.MapSpectrum(kernFreq, WienerFilter(signalPower, noisePower))
	d.saveSpectrum("wiener_filter", filter)
	restored, err := sized.Inverse(sized.MulSpectrum(targetFreq, filter), d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to invert filtered spectrum: %w", err)
	}
	d.saveSpatial("restored", restored)

	out := emit(restored, target.Width, target.Height)
	d.metrics = compareRasters(target, out)
	d.metrics.SignalPower = vector.Real(signalPower)
	d.metrics.NoisePower = vector.Real(noisePower)
	return out, nil
}

// Blur convolves target with the kernel.
func (d *Deconvolver) Blur(target models.Raster, kernelImage *models.Raster) (models.Raster, error) {
	img, err := d.ingest(target)
	if err != nil {
		return models.Raster{}, err
	}
	d.saveSpatial("input", img)

	kern := d.prepareKernel(img, kernelImage)
	mustMatch(img, kern)

	targetFreq, err := sized.Forward(img, d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to transform target: %w", err)
	}
	kernFreq, err := sized.Forward(kern, d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to transform kernel: %w", err)
	}
	d.saveSpectrum("kernel_spectrum", kernFreq)

	blurred, err := sized.Inverse(sized.MulSpectrum(targetFreq, kernFreq), d.transform)
	if err != nil {
		return models.Raster{}, fmt.Errorf("failed to invert filtered spectrum: %w", err)
	}
	d.saveSpatial("blurred", blurred)

	out := emit(blurred, target.Width, target.Height)
	d.metrics = compareRasters(target, out)
	return out, nil
}

// WienerFilter returns the per-bin map H -> conj(H)*S / (|H|^2*S + N), with S
// and N the aggregate signal and noise powers. A channel whose denominator is
// exactly zero maps to zero rather than NaN.
func WienerFilter(signalPower, noisePower vector.Cvec4) func(vector.Cvec4) vector.Cvec4 {
	return func(h vector.Cvec4) vector.Cvec4 {
		num := vector.Conj(h).Mul(signalPower)
		den := vector.AbsSq(h).Mul(signalPower).Add(noisePower)
		return num.MapWith(den, func(n, d complex128) complex128 {
			if d == 0 {
				return 0
			}
			return n / d
		})
	}
}

// ingest converts the raster into a spatial image, padded to twice its size
// when padding is enabled and to the next powers of two otherwise.
func (d *Deconvolver) ingest(r models.Raster) (*sized.Image[sized.Spatial], error) {
	if r.Empty() || len(r.Pixels) != r.Width*r.Height {
		return nil, ErrEmptyImage
	}
	pixels := make([]vector.Cvec4, len(r.Pixels))
	for i, p := range r.Pixels {
		pixels[i] = vector.FromReal(p)
	}
	img := sized.From(r.Width, r.Height, pixels, vector.Cvec4{})
	if d.params.Padding {
		img = sized.PadToNewSize(img, 2*r.Width, 2*r.Height, vector.Cvec4{})
	}
	return img, nil
}

// prepareKernel builds the kernel at the target's padded size and moves its
// centre to the origin.
func (d *Deconvolver) prepareKernel(target *sized.Image[sized.Spatial], kernelImage *models.Raster) *sized.Image[sized.Spatial] {
	var kern *sized.Image[sized.Spatial]
	if kernelImage != nil {
		kern = kernel.FromRaster(*kernelImage, target.Width(), target.Height())
	} else {
		gen, err := kernel.ForKind(d.params.KernelKind)
		if err != nil {
			panic(err)
		}
		kern = kernel.Generate(target.Width(), target.Height(), gen, kernel.Config{Size: d.params.KernelSize})
	}
	d.saveSpatial("kernel", kern)
	return sized.Recenter(kern)
}

// mustMatch panics when the target and kernel sizes differ; that can only
// happen through a bug in the pipeline.
func mustMatch(target, kern *sized.Image[sized.Spatial]) {
	if !sized.SameSize(target, kern) {
		panic(fmt.Sprintf("deconvolution: target is %dx%d but kernel is %dx%d",
			target.Width(), target.Height(), kern.Width(), kern.Height()))
	}
}

// clampBelow raises the real part of every channel below floor to floor.
func clampBelow(img *sized.Image[sized.Spatial], floor float64) *sized.Image[sized.Spatial] {
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			p := img.At(x, y).Map(func(c complex128) complex128 {
				if real(c) < floor {
					return complex(floor, imag(c))
				}
				return c
			})
			img.StoreData(x, y, p)
		}
	}
	return img
}

// emit crops the top-left width x height region and converts it to a raster,
// keeping the real part of each colour channel and forcing alpha to 1.
func emit(img *sized.Image[sized.Spatial], width, height int) models.Raster {
	out := models.NewRaster(width, height)
	for i, p := range sized.Crop(img, width, height) {
		re := vector.Real(p)
		out.Pixels[i] = models.RGBA{re[0], re[1], re[2], 1}
	}
	return out
}

func (d *Deconvolver) saveSpatial(stage string, img *sized.Image[sized.Spatial]) {
	if d.viewer == nil {
		return
	}
	if err := d.viewer.SaveSpatial(stage, img); err != nil {
		d.logger.WithError(err).Warn("Failed to save intermediary result")
	}
}

func (d *Deconvolver) saveSpectrum(stage string, img *sized.Image[sized.Frequency]) {
	if d.viewer == nil {
		return
	}
	if err := d.viewer.SaveSpectrum(stage, img); err != nil {
		d.logger.WithError(err).Warn("Failed to save intermediary result")
	}
}
