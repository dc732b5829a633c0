// Package config provides configuration loading and management for voxelreg.
// It handles loading registration parameters from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the registration parameters loaded from YAML
type Config struct {
	// Histogram parameters
	Histogram struct {
		// SourceBins is the number of intensity bins on the source axis
		SourceBins int `yaml:"sourceBins"`

		// TargetBins is the number of intensity bins on the target axis
		TargetBins int `yaml:"targetBins"`

		// Interpolation selects the accumulation strategy: "pv", "tri" or "rand"
		Interpolation string `yaml:"interpolation"`

		// Seed seeds the generator for the "rand" strategy
		Seed uint64 `yaml:"seed"`

		// Subsampling is the source-voxel stride per axis; zero entries mean 1
		Subsampling [3]int `yaml:"subsampling"`
	} `yaml:"histogram"`

	// Similarity parameters
	Similarity struct {
		// Measure is the statistic driving registration:
		// cc, cr, crl1, je, ce, mi, nmi or smi
		Measure string `yaml:"measure"`
	} `yaml:"similarity"`

	// Quantization parameters
	Quantization struct {
		// Threshold masks raw intensities below this value
		Threshold float64 `yaml:"threshold"`
	} `yaml:"quantization"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default histogram parameters
	cfg.Histogram.SourceBins = 256
	cfg.Histogram.TargetBins = 256
	cfg.Histogram.Interpolation = "pv"
	cfg.Histogram.Seed = 1
	cfg.Histogram.Subsampling = [3]int{1, 1, 1}

	// Set default similarity and quantization parameters
	cfg.Similarity.Measure = "cr"
	cfg.Quantization.Threshold = 0.0

	// Use all available cores by default
	cfg.Processing.NumCores = runtime.NumCPU()

	return cfg
}

// Validate checks the configuration for values the core cannot work with
func (c *Config) Validate() error {
	if c.Histogram.SourceBins < 1 || c.Histogram.SourceBins > 32768 {
		return fmt.Errorf("config: sourceBins %d outside [1, 32768]", c.Histogram.SourceBins)
	}
	if c.Histogram.TargetBins < 1 || c.Histogram.TargetBins > 32768 {
		return fmt.Errorf("config: targetBins %d outside [1, 32768]", c.Histogram.TargetBins)
	}
	switch c.Histogram.Interpolation {
	case "pv", "tri", "rand":
	default:
		return fmt.Errorf("config: unknown interpolation %q (want pv, tri or rand)", c.Histogram.Interpolation)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("config: numCores %d < 1", c.Processing.NumCores)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
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
