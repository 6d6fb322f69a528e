// Package quantize implements the multi-level quantizer used inside a
// delta-sigma modulator loop.
//
// Each channel maps a real input to a symmetric integer code in
// {-(n-1), ..., n-1} with step 2, where n is the channel's level count.
// An even n gives a mid-rise characteristic, an odd n a mid-tread one.
// Out-of-range inputs are clipped, never rejected.
package quantize

import (
	"fmt"
	"math"
)

// Validate checks a level-count set. Every count must be >= 1.
func Validate(levels []int) error {
	if len(levels) == 0 {
		return fmt.Errorf("quantize: level counts must not be empty")
	}

	for i, n := range levels {
		if n < 1 {
			return fmt.Errorf("quantize: level count %d at channel %d, must be >= 1", n, i)
		}
	}

	return nil
}

// Quantize maps each channel of y to its quantizer code. The two slices
// must have the same length; the result is a freshly allocated slice.
func Quantize(y []float64, levels []int) []float64 {
	dst := make([]float64, len(y))
	QuantizeTo(dst, y, levels)

	return dst
}

// QuantizeTo is the allocation-free variant of [Quantize]. dst, y and
// levels must all have the same length.
func QuantizeTo(dst, y []float64, levels []int) {
	for i, val := range y {
		dst[i] = Channel(val, levels[i])
	}
}

// Channel quantizes a single value against a level count n.
//
// Even n (mid-rise): v = 2*floor(0.5*y) + 1.
// Odd n (mid-tread): v = 2*floor(0.5*(y+1)).
// The code is then clipped to [-(n-1), n-1]; n == 1 degenerates to a
// constant 0.
func Channel(y float64, n int) float64 {
	var v float64
	if n%2 == 0 {
		v = 2*math.Floor(0.5*y) + 1
	} else {
		v = 2 * math.Floor(0.5*(y+1))
	}

	limit := float64(n - 1)
	if v > limit {
		v = limit
	}

	if v < -limit {
		v = -limit
	}

	return v
}
