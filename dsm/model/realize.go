package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-dsm/internal/cplxutil"
)

// FromNTF builds a canonical model from a noise transfer function given as
// zeros, poles and gain. This form supports a single quantizer and a single
// input channel.
//
// The construction realizes a state-space system for -1/H(z) (zeros and
// poles swapped, gain -1/k) in controllable canonical form, then applies a
// similarity transform so that the output row becomes C = [1 0 ... 0].
// The input path is fixed to B1 = -B2 and D1 = 1, i.e. the signal transfer
// function is assumed to be unity. This is a deliberate simplification
// inherited from the reference implementation, not a general realization.
func FromNTF(zeros, poles []complex128, gain float64) (*CanonicalModel, error) {
	if len(zeros) == 0 {
		return nil, fmt.Errorf("model: NTF needs at least one zero: %w", ErrInvalidSpecification)
	}

	if len(poles) > len(zeros) {
		return nil, fmt.Errorf("model: NTF with %d poles and %d zeros has no proper inverse: %w",
			len(poles), len(zeros), ErrInvalidSpecification)
	}

	if gain == 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil, fmt.Errorf("model: NTF gain must be finite and non-zero: %f: %w",
			gain, ErrInvalidSpecification)
	}

	order := len(zeros)

	// -1/H(z): numerator from the NTF poles, denominator from the NTF
	// zeros. Conjugate-paired roots make both polynomials real up to
	// numerical noise; the imaginary residue is dropped.
	num := cplxutil.Real(cplxutil.PolyFromRoots(poles))
	den := cplxutil.Real(cplxutil.PolyFromRoots(zeros))

	for i := range num {
		num[i] *= -1 / gain
	}

	a0, b2, c0 := realizeControllable(num, den, order)

	// Change of basis turning c0 into [1 0 ... 0]: an orthonormal basis
	// for the column space of [c0^T | I], scaled by 1/||c0||.
	sinv, err := orthBasis(c0)
	if err != nil {
		return nil, fmt.Errorf("model: %v: %w", err, ErrInvalidSpecification)
	}

	var s mat.Dense
	if err := s.Inverse(sinv); err != nil {
		return nil, fmt.Errorf("model: change-of-basis matrix is singular: %w", ErrInvalidSpecification)
	}

	// The transformed output row is c0*Sinv with [1 0 ... 0] structure up
	// to sign. Flip S and Sinv together when the leading entry is
	// negative, which negates B2 while leaving A unchanged.
	var ct mat.Dense
	ct.Mul(mat.NewDense(1, order, c0), sinv)

	if ct.At(0, 0) < 0 {
		s.Scale(-1, &s)
		sinv.Scale(-1, sinv)
	}

	var sa, a mat.Dense
	sa.Mul(&s, a0)
	a.Mul(&sa, sinv)

	var b2t mat.Dense
	b2t.Mul(&s, b2)

	b1 := mat.NewDense(order, 1, nil)
	b1.Scale(-1, &b2t)

	c := mat.NewDense(1, order, nil)
	c.Set(0, 0, 1)

	return &CanonicalModel{
		a:          &a,
		b1:         b1,
		b2:         &b2t,
		c:          c,
		d1:         mat.NewDense(1, 1, []float64{1}),
		order:      order,
		inputs:     1,
		quantizers: 1,
	}, nil
}

// realizeControllable builds the controllable canonical form of the strictly
// ordered transfer function num/den. den is monic of length order+1; num has
// length at most order+1 and is padded with leading zeros.
func realizeControllable(num, den []float64, order int) (a, b *mat.Dense, c []float64) {
	padded := make([]float64, order+1)
	copy(padded[order+1-len(num):], num)

	a = mat.NewDense(order, order, nil)
	for j := 0; j < order; j++ {
		a.Set(0, j, -den[j+1])
	}

	for i := 1; i < order; i++ {
		a.Set(i, i-1, 1)
	}

	b = mat.NewDense(order, 1, nil)
	b.Set(0, 0, 1)

	c = make([]float64, order)
	for j := 0; j < order; j++ {
		c[j] = padded[j+1] - padded[0]*den[j+1]
	}

	return a, b, c
}

// orthBasis returns an orthonormal basis for the column space of
// [c^T | I], scaled by 1/||c||, computed from a thin SVD. The matrix is
// always of full row rank, so the basis is square.
func orthBasis(c []float64) (*mat.Dense, error) {
	order := len(c)

	norm := 0.0
	for _, v := range c {
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, fmt.Errorf("realized output row is zero")
	}

	m := mat.NewDense(order, order+1, nil)
	for i, v := range c {
		m.Set(i, 0, v)
		m.Set(i, i+1, 1)
	}

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThin) {
		return nil, fmt.Errorf("SVD of basis matrix failed to converge")
	}

	var u mat.Dense
	svd.UTo(&u)
	u.Scale(1/norm, &u)

	return &u, nil
}
