package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// runConfig describes one simulation run. Values can come from CLI flags or
// from a YAML file; explicitly set flags win over file values.
type runConfig struct {
	Order        int     `yaml:"order"`         // NTF order
	OSR          float64 `yaml:"osr"`           // oversampling ratio
	HInf         float64 `yaml:"hinf"`          // out-of-band NTF gain (Lee criterion)
	F0           float64 `yaml:"f0"`            // normalized band center, 0 for lowpass
	OptimalZeros bool    `yaml:"optimal_zeros"` // spread zeros instead of stacking at band center
	Levels       int     `yaml:"levels"`        // quantizer level count
	Samples      int     `yaml:"samples"`       // simulation length
	Amplitude    float64 `yaml:"amplitude"`     // test tone amplitude (full scale = levels-1)
	Freq         float64 `yaml:"freq"`          // test tone frequency, relative to the band edge
}

func defaultRunConfig() runConfig {
	return runConfig{
		Order:     3,
		OSR:       64,
		HInf:      1.5,
		Levels:    2,
		Samples:   65536,
		Amplitude: 0.5,
		Freq:      0.5,
	}
}

// loadRunConfig reads a YAML run description, layered over the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

func (c runConfig) validate() error {
	if c.Order < 1 {
		return fmt.Errorf("order must be >= 1: %d", c.Order)
	}

	if c.OSR <= 1 {
		return fmt.Errorf("osr must be > 1: %f", c.OSR)
	}

	if c.Levels < 1 {
		return fmt.Errorf("levels must be >= 1: %d", c.Levels)
	}

	if c.Samples < 1 {
		return fmt.Errorf("samples must be >= 1: %d", c.Samples)
	}

	if c.Freq < 0 || c.Freq > 1 {
		return fmt.Errorf("freq must be in [0, 1] (relative to the band edge): %f", c.Freq)
	}

	return nil
}
