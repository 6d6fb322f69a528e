// Package ntf synthesizes noise transfer functions for delta-sigma
// modulators in zero/pole/gain form.
//
// The synthesis follows the classic DELSIG recipe: NTF zeros are placed on
// the unit circle inside the signal band (either all at the band center or
// spread at the optimal positions), and the poles are found by a secant
// iteration on a Butterworth-style pole radius parameter until the
// out-of-band NTF magnitude matches the requested Lee criterion H_inf.
package ntf

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-dsm/internal/cplxutil"
)

// ZeroPlacement selects how the NTF zeros are distributed over the signal
// band.
type ZeroPlacement int

const (
	// ZerosAtBandCenter places every zero at the band center frequency.
	ZerosAtBandCenter ZeroPlacement = iota
	// ZerosOptimal spreads the zeros at the in-band noise minimizing
	// (Gauss-Legendre) positions.
	ZerosOptimal

	zeroPlacementCount // sentinel for validation
)

// String returns the name of the placement strategy.
func (zp ZeroPlacement) String() string {
	switch zp {
	case ZerosAtBandCenter:
		return "BandCenter"
	case ZerosOptimal:
		return "Optimal"
	default:
		return fmt.Sprintf("ZeroPlacement(%d)", zp)
	}
}

// Valid reports whether zp is a known placement strategy.
func (zp ZeroPlacement) Valid() bool {
	return zp >= 0 && zp < zeroPlacementCount
}

const (
	hinfIterLimit = 100
	iterTol       = 1e-10
)

// Synthesize designs an NTF of the given order for an oversampling ratio
// osr and out-of-band gain hInf (Lee criterion). f0 is the normalized band
// center frequency: 0 selects a lowpass design, 0 < f0 < 0.5 a bandpass
// design of even order. The returned gain is always 1 (monic NTF).
func Synthesize(order int, osr float64, placement ZeroPlacement, hInf, f0 float64) (zeros, poles []complex128, gain float64, err error) {
	if order < 1 {
		return nil, nil, 0, fmt.Errorf("ntf: order must be >= 1: %d", order)
	}

	if osr <= 1 {
		return nil, nil, 0, fmt.Errorf("ntf: oversampling ratio must be > 1: %f", osr)
	}

	if hInf <= 1 {
		return nil, nil, 0, fmt.Errorf("ntf: out-of-band gain must be > 1: %f", hInf)
	}

	if f0 < 0 || f0 >= 0.5 {
		return nil, nil, 0, fmt.Errorf("ntf: band center must be in [0, 0.5): %f", f0)
	}

	if !placement.Valid() {
		return nil, nil, 0, fmt.Errorf("ntf: invalid zero placement: %d", placement)
	}

	var angles []float64

	if f0 == 0 {
		angles, err = zeroAngles(order, placement, math.Pi/osr)
		if err != nil {
			return nil, nil, 0, err
		}
	} else {
		if order%2 != 0 {
			return nil, nil, 0, fmt.Errorf("ntf: bandpass design needs an even order: %d", order)
		}

		half, err := zeroAngles(order/2, placement, math.Pi/(2*osr))
		if err != nil {
			return nil, nil, 0, err
		}

		// Shift the halved-order zeros to the band center and replicate
		// them as conjugates.
		sort.Float64s(half)

		angles = make([]float64, 0, order)
		for _, a := range half {
			angles = append(angles, a+2*math.Pi*f0, -(a + 2*math.Pi*f0))
		}
	}

	zeros = make([]complex128, len(angles))
	for i, a := range angles {
		zeros[i] = cmplx.Exp(complex(0, a))
	}

	poles, err = solvePoles(zeros, order, hInf, f0)
	if err != nil {
		return nil, nil, 0, err
	}

	zeros, err = cplxutil.Pair(zeros, 0)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("ntf: %w", err)
	}

	return zeros, poles, 1, nil
}

// SynthesizeWithZeros designs the NTF poles for an explicitly given set of
// unit-circle zeros, matching the out-of-band gain hInf. The zero set must
// be conjugate-symmetric.
func SynthesizeWithZeros(zeros []complex128, hInf, f0 float64) (z, p []complex128, gain float64, err error) {
	if len(zeros) == 0 {
		return nil, nil, 0, fmt.Errorf("ntf: explicit zero set must not be empty")
	}

	if hInf <= 1 {
		return nil, nil, 0, fmt.Errorf("ntf: out-of-band gain must be > 1: %f", hInf)
	}

	if f0 < 0 || f0 >= 0.5 {
		return nil, nil, 0, fmt.Errorf("ntf: band center must be in [0, 0.5): %f", f0)
	}

	order := len(zeros)

	p, err = solvePoles(zeros, order, hInf, f0)
	if err != nil {
		return nil, nil, 0, err
	}

	z, err = cplxutil.Pair(zeros, 0)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("ntf: %w", err)
	}

	return z, p, 1, nil
}

// zeroAngles returns the zero angles for a lowpass prototype of the given
// order, scaled by the band edge dw.
func zeroAngles(order int, placement ZeroPlacement, dw float64) ([]float64, error) {
	if placement == ZerosAtBandCenter {
		return make([]float64, order), nil
	}

	table, ok := optZeros[order]
	if !ok {
		return nil, fmt.Errorf("ntf: no optimal zero table for order %d (max %d)", order, maxTabulatedOrder)
	}

	angles := make([]float64, order)
	for i, v := range table {
		angles[i] = dw * v
	}

	return angles, nil
}

// solvePoles iterates a Butterworth-style pole radius parameter with a
// secant update until the NTF magnitude at the far end of the spectrum
// equals hInf. Poles falling outside the unit circle are reflected inside.
func solvePoles(zeros []complex128, order int, hInf, f0 float64) ([]complex128, error) {
	zInf := complex(-1, 0)
	if f0 > 0.25 {
		zInf = complex(1, 0)
	}

	poles := make([]complex128, order)

	if f0 == 0 {
		// A lowpass NTF cannot exceed 2^order out of band; fall back to
		// all poles at the origin when the target is unreachable.
		if hInf >= math.Pow(2, float64(order)) {
			return poles, nil
		}
	}

	x := math.Pow(0.3, float64(order-1))
	if f0 != 0 {
		x = math.Pow(0.3, float64(order/2-1))
	}

	c2pif0 := math.Cos(2 * math.Pi * f0)

	var fPrev, deltaX float64

	for itn := 1; itn <= hinfIterLimit; itn++ {
		if f0 == 0 {
			me2 := -0.5 * math.Pow(x, 2/float64(order))
			for i := 1; i <= order; i++ {
				w := float64(2*i+1) * math.Pi / float64(order)
				mb2 := 1 + complex(me2, 0)*cmplx.Exp(complex(0, w))
				poles[i-1] = mb2 - cmplx.Sqrt(mb2*mb2-1)
			}
		} else {
			e2 := 0.5 * math.Pow(x, 2/float64(order))
			for i := 0; i < order; i++ {
				w := float64(2*i+1) * math.Pi / float64(order)
				mb2 := complex(c2pif0, 0) + complex(e2, 0)*cmplx.Exp(complex(0, w))
				poles[i] = mb2 - cmplx.Sqrt(mb2*mb2-1)
			}
		}

		for i, p := range poles {
			if cmplx.Abs(p) > 1 {
				poles[i] = 1 / p
			}
		}

		paired, err := cplxutil.Pair(poles, 0)
		if err != nil {
			return nil, fmt.Errorf("ntf: %w", err)
		}

		copy(poles, paired)

		f := real(EvalTF(zeros, poles, 1, zInf)) - hInf

		if itn == 1 {
			deltaX = -f / 100
		} else {
			deltaX = -f * deltaX / (f - fPrev)
		}

		if xPlus := x + deltaX; xPlus > 0 {
			x = xPlus
		} else {
			x *= 0.1
		}

		fPrev = f

		if math.Abs(f) < iterTol || math.Abs(deltaX) < iterTol {
			break
		}

		if x > 1e6 {
			// Radius parameter diverged; the target gain is unreachable.
			for i := range poles {
				poles[i] = 0
			}

			break
		}
	}

	return poles, nil
}
