package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"deconvolve/internal/models"
	"deconvolve/pkg/config"
	"deconvolve/pkg/deconvolution"
	"deconvolve/pkg/fourier"
	"deconvolve/pkg/kernel"
)

// options mirrors the command line. Only flags the user actually set are
// copied over the loaded configuration.
type options struct {
	configPath       string
	kernelKind       string
	kernelFile       string
	size             float64
	output           string
	noPadding        bool
	noise            float64
	threads          int
	saveIntermediary bool
	intermediaryDir  string
	verbose          bool
	writeConfig      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "deconvolve [flags] IMAGE",
		Short: "Remove a known blur from an image with a Wiener filter",
		Long: "deconvolve restores an image blurred by a known kernel. The kernel is either\n" +
			"procedural (box or gaussian) or read from an image file.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, models.Deconvolve)
		},
	}
	bindFlags(root.PersistentFlags(), opts)

	blur := &cobra.Command{
		Use:   "blur [flags] IMAGE",
		Short: "Convolve an image with the kernel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, models.Blur)
		},
	}
	root.AddCommand(blur)
	return root
}

func bindFlags(fs *pflag.FlagSet, opts *options) {
	defaults := config.DefaultConfig()
	fs.StringVar(&opts.configPath, "config", "deconvolve.yaml", "YAML configuration file")
	fs.StringVarP(&opts.kernelKind, "kernel", "k", defaults.Kernel.Kind,
		"Procedural kernel ("+strings.Join(kernel.Kinds(), ", ")+")")
	fs.StringVar(&opts.kernelFile, "kernel-file", "", "Image to use as the kernel")
	fs.Float64VarP(&opts.size, "size", "s", defaults.Kernel.Size, "Box half-width or gaussian sigma in pixels")
	fs.StringVarP(&opts.output, "output", "o", defaults.Output.Path, "Output image; the extension selects the format")
	fs.BoolVar(&opts.noPadding, "no-padding", false, "Filter without doubling the image size")
	fs.Float64Var(&opts.noise, "noise", defaults.Processing.NoiseMagnitude, "Magnitude of the synthetic noise floor")
	fs.IntVar(&opts.threads, "threads", defaults.Processing.Threads, "Number of FFT workers")
	fs.BoolVar(&opts.saveIntermediary, "save-intermediary", false, "Save each stage as an image")
	fs.StringVar(&opts.intermediaryDir, "intermediary-dir", defaults.Output.IntermediaryDir, "Directory for intermediary images")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	fs.BoolVar(&opts.writeConfig, "write-config", false, "Write the default configuration file and exit")
}

// applyFlags overrides cfg with every flag that was set explicitly.
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *config.Config) {
	if fs.Changed("kernel") {
		cfg.Kernel.Kind = opts.kernelKind
		cfg.Kernel.File = ""
	}
	if fs.Changed("kernel-file") {
		cfg.Kernel.File = opts.kernelFile
	}
	if fs.Changed("size") {
		cfg.Kernel.Size = opts.size
	}
	if fs.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if fs.Changed("no-padding") {
		cfg.Processing.Padding = !opts.noPadding
	}
	if fs.Changed("noise") {
		cfg.Processing.NoiseMagnitude = opts.noise
	}
	if fs.Changed("threads") {
		cfg.Processing.Threads = opts.threads
	}
	if fs.Changed("save-intermediary") {
		cfg.Output.SaveIntermediaryResults = opts.saveIntermediary
	}
	if fs.Changed("intermediary-dir") {
		cfg.Output.IntermediaryDir = opts.intermediaryDir
	}
	if fs.Changed("verbose") {
		cfg.Output.Verbose = opts.verbose
	}
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func run(cmd *cobra.Command, opts *options, args []string, mode models.Mode) error {
	if opts.writeConfig {
		if err := config.CreateDefaultConfigFile(opts.configPath); err != nil {
			return err
		}
		fmt.Printf("Default configuration written to %s\n", opts.configPath)
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one input image")
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), opts, cfg)

	logger := newLogger(cfg.Output.Verbose)
	params, err := deconvolution.ParamsFromConfig(cfg, args[0], mode)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"mode":    mode,
		"kernel":  describeKernel(cfg),
		"padding": cfg.Processing.Padding,
		"threads": cfg.Processing.Threads,
	}).Info("Starting")

	d := deconvolution.NewDeconvolver(params, fourier.NewFFT2D(cfg.Processing.Threads, logger), logger)
	if err := d.Process(); err != nil {
		logger.WithError(err).Error("Processing failed")
		return err
	}

	m := d.GetMetrics()
	fmt.Printf("Output saved to: %s\n", params.OutputFile)
	fmt.Printf("RMSE against input: %.6f\n", m.RMSE)
	fmt.Printf("PSNR against input: %.2f dB\n", m.PSNR)
	fmt.Printf("SSIM against input: %.3f\n", m.SSIM)
	if cfg.Output.SaveIntermediaryResults {
		fmt.Printf("Intermediary results saved to: %s\n", cfg.Output.IntermediaryDir)
	}
	return nil
}

func describeKernel(cfg *config.Config) string {
	if cfg.Kernel.File != "" {
		return cfg.Kernel.File
	}
	return fmt.Sprintf("%s(%g)", cfg.Kernel.Kind, cfg.Kernel.Size)
}
