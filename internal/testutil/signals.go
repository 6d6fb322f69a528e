package testutil

import "math"

// Sine generates a deterministic sine wave at a normalized frequency
// (cycles per sample).
func Sine(freq, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freq
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Zeros returns a slice of length n filled with 0.
func Zeros(n int) []float64 {
	return make([]float64, n)
}
