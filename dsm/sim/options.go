package sim

import (
	"fmt"

	"github.com/cwbudde/algo-dsm/dsm/quantize"
)

type config struct {
	levels       []int
	initialState []float64
	history      bool
	maxima       bool
	preQuantizer bool
}

func defaultConfig() config {
	return config{levels: []int{2}}
}

// Option configures a [Simulate] call.
type Option func(*config) error

// WithLevelCounts sets the quantizer level count per channel
// (default: a single two-level quantizer). Every count must be >= 1.
func WithLevelCounts(levels ...int) Option {
	return func(cfg *config) error {
		if err := quantize.Validate(levels); err != nil {
			return fmt.Errorf("sim: %w", err)
		}

		cfg.levels = append([]int(nil), levels...)

		return nil
	}
}

// WithInitialState sets the initial state vector (default: zero vector).
// Its length must match the model order.
func WithInitialState(x0 []float64) Option {
	return func(cfg *config) error {
		cfg.initialState = append([]float64(nil), x0...)
		return nil
	}
}

// WithStateHistory records the full state trajectory instead of only the
// final state.
func WithStateHistory() Option {
	return func(cfg *config) error {
		cfg.history = true
		return nil
	}
}

// WithStateMaxima tracks the running maximum absolute value of each state
// component over the trajectory, seeded from the initial state.
func WithStateMaxima() Option {
	return func(cfg *config) error {
		cfg.maxima = true
		return nil
	}
}

// WithPreQuantizer records the quantizer-input signal at every sample.
func WithPreQuantizer() Option {
	return func(cfg *config) error {
		cfg.preQuantizer = true
		return nil
	}
}
