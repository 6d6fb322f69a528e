// Package model builds the canonical state-space representation that drives
// delta-sigma modulator simulation.
//
// The canonical form is the five-matrix set (A, B1, B2, C, D1):
//
//	x[t+1] = A*x[t] + B1*u[t] + B2*v[t]
//	y[t]   = C*x[t] + D1*u[t]
//
// where u is the input signal and v the quantized feedback. A model is built
// either from a direct-form matrix ([FromABCD]) or from a noise transfer
// function in zero/pole/gain form ([FromNTF]); once built it is read-only.
package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidSpecification is returned when a modulator specification has
// inconsistent shape or violates a structural precondition.
var ErrInvalidSpecification = errors.New("model: invalid specification")

// CanonicalModel is the immutable state-space model consumed by the
// simulation engine. The accessor matrices must not be modified.
type CanonicalModel struct {
	a  *mat.Dense // order x order
	b1 *mat.Dense // order x inputs
	b2 *mat.Dense // order x quantizers
	c  *mat.Dense // quantizers x order
	d1 *mat.Dense // quantizers x inputs

	order      int
	inputs     int
	quantizers int
}

// Order returns the state dimension.
func (m *CanonicalModel) Order() int { return m.order }

// Inputs returns the input channel count.
func (m *CanonicalModel) Inputs() int { return m.inputs }

// Quantizers returns the quantizer channel count.
func (m *CanonicalModel) Quantizers() int { return m.quantizers }

// A returns the state transition matrix.
func (m *CanonicalModel) A() *mat.Dense { return m.a }

// B1 returns the input-to-state coupling matrix.
func (m *CanonicalModel) B1() *mat.Dense { return m.b1 }

// B2 returns the feedback-to-state coupling matrix.
func (m *CanonicalModel) B2() *mat.Dense { return m.b2 }

// C returns the state-to-quantizer-input matrix.
func (m *CanonicalModel) C() *mat.Dense { return m.c }

// D1 returns the direct input feed-through matrix.
func (m *CanonicalModel) D1() *mat.Dense { return m.d1 }

// FromABCD partitions a direct-form matrix into a canonical model.
//
// The matrix has shape (order+quantizers) x (order+inputs+quantizers) and is
// split by fixed offsets:
//
//	[ A  | B1 | B2 ]
//	[ C  | D1 | .. ]
//
// The bottom-right quantizers x quantizers block (feedback feed-through) is
// ignored. The order is derived as rows - quantizers.
func FromABCD(abcd *mat.Dense, inputs, quantizers int) (*CanonicalModel, error) {
	if abcd == nil {
		return nil, fmt.Errorf("model: nil direct-form matrix: %w", ErrInvalidSpecification)
	}

	if inputs < 1 || quantizers < 1 {
		return nil, fmt.Errorf("model: inputs %d and quantizers %d must be >= 1: %w",
			inputs, quantizers, ErrInvalidSpecification)
	}

	rows, cols := abcd.Dims()

	order := rows - quantizers
	if order < 1 {
		return nil, fmt.Errorf("model: direct-form matrix with %d rows leaves no state for %d quantizers: %w",
			rows, quantizers, ErrInvalidSpecification)
	}

	if cols != order+inputs+quantizers {
		return nil, fmt.Errorf("model: direct-form matrix is %dx%d, want %d columns for order %d: %w",
			rows, cols, order+inputs+quantizers, order, ErrInvalidSpecification)
	}

	return &CanonicalModel{
		a:          mat.DenseCopyOf(abcd.Slice(0, order, 0, order)),
		b1:         mat.DenseCopyOf(abcd.Slice(0, order, order, order+inputs)),
		b2:         mat.DenseCopyOf(abcd.Slice(0, order, order+inputs, order+inputs+quantizers)),
		c:          mat.DenseCopyOf(abcd.Slice(order, rows, 0, order)),
		d1:         mat.DenseCopyOf(abcd.Slice(order, rows, order, order+inputs)),
		order:      order,
		inputs:     inputs,
		quantizers: quantizers,
	}, nil
}
