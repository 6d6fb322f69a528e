package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := defaultRunConfig()

	assert.Equal(t, 3, cfg.Order)
	assert.Equal(t, 64.0, cfg.OSR)
	assert.Equal(t, 1.5, cfg.HInf)
	assert.Equal(t, 2, cfg.Levels)
	assert.NoError(t, cfg.validate())
}

func TestLoadRunConfigLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: 5\nosr: 128\noptimal_zeros: true\n"), 0o600))

	cfg, err := loadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Order)
	assert.Equal(t, 128.0, cfg.OSR)
	assert.True(t, cfg.OptimalZeros)

	// Unset keys keep their defaults.
	assert.Equal(t, 1.5, cfg.HInf)
	assert.Equal(t, 2, cfg.Levels)
	assert.Equal(t, 65536, cfg.Samples)
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	_, err := loadRunConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRunConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: [not a number"), 0o600))

	_, err := loadRunConfig(path)
	assert.Error(t, err)
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runConfig)
	}{
		{"zero order", func(c *runConfig) { c.Order = 0 }},
		{"osr too small", func(c *runConfig) { c.OSR = 1 }},
		{"zero levels", func(c *runConfig) { c.Levels = 0 }},
		{"zero samples", func(c *runConfig) { c.Samples = 0 }},
		{"freq above band edge", func(c *runConfig) { c.Freq = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultRunConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}
