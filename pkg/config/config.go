// Package config provides configuration loading and management for deconvolve.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"deconvolve/pkg/fourier"
	"deconvolve/pkg/kernel"
)

// DefaultNoiseMagnitude is the default amplitude of the synthetic noise
// texture, one 8-bit quantisation step.
const DefaultNoiseMagnitude = 1.0 / 256

// Config represents the application configuration loaded from YAML
type Config struct {
	// Kernel parameters
	Kernel struct {
		// Kind is the procedural kernel, "box" or "gaussian"
		Kind string `yaml:"kind"`

		// File is an image to use as the kernel instead of a procedural one
		File string `yaml:"file,omitempty"`

		// Size is the box half-width or the gaussian sigma
		Size float64 `yaml:"size"`
	} `yaml:"kernel"`

	// Processing parameters
	Processing struct {
		// Padding doubles the image before filtering so circular convolution
		// behaves like linear convolution
		Padding bool `yaml:"padding"`

		// NoiseMagnitude scales the synthetic noise used for the noise floor
		NoiseMagnitude float64 `yaml:"noiseMagnitude"`

		// Threads is the number of FFT workers
		Threads int `yaml:"threads"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Path is where the result is written; the extension picks the format
		Path string `yaml:"path"`

		// SaveIntermediaryResults writes spectrum images for each stage
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary images go
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Kernel.Kind = kernel.KindGaussian.String()
	cfg.Kernel.Size = 1.0

	cfg.Processing.Padding = true
	cfg.Processing.NoiseMagnitude = DefaultNoiseMagnitude
	cfg.Processing.Threads = fourier.DefaultThreads()

	cfg.Output.Path = "output.png"
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks values that would otherwise fail deep inside the pipeline
func (c *Config) Validate() error {
	if c.Kernel.File == "" {
		if _, err := kernel.ParseKind(c.Kernel.Kind); err != nil {
			return err
		}
		if c.Kernel.Size <= 0 {
			return fmt.Errorf("kernel size must be positive, got %g", c.Kernel.Size)
		}
	}
	if c.Processing.NoiseMagnitude < 0 {
		return fmt.Errorf("noise magnitude must not be negative, got %g", c.Processing.NoiseMagnitude)
	}
	if c.Processing.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Processing.Threads)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path is empty")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
