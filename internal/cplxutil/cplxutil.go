// Package cplxutil provides small complex-valued helpers shared by the
// model realization and NTF synthesis packages: negligible-value chopping,
// conjugate-pair sorting, and polynomial construction from roots.
package cplxutil

import (
	"errors"
	"math"
	"sort"
)

// DefaultTol is the absolute tolerance used to decide whether a value is
// numerically zero (100 times the float64 machine epsilon).
const DefaultTol = 100 * 2.220446049250313e-16

// ErrUnpairedComplex is returned when a value set cannot be arranged into
// conjugate pairs.
var ErrUnpairedComplex = errors.New("cplxutil: cannot identify complex pairs")

// IsNegligible reports whether x is within tol of zero. A tol <= 0 selects
// [DefaultTol].
func IsNegligible(x, tol float64) bool {
	if tol <= 0 {
		tol = DefaultTol
	}

	return math.Abs(x) < tol
}

// Chop zeroes the real and imaginary parts of x that are negligible within
// tol, returning a new slice. The input is not modified.
func Chop(x []complex128, tol float64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		re := real(v)
		im := imag(v)

		if IsNegligible(re, tol) {
			re = 0
		}

		if IsNegligible(im, tol) {
			im = 0
		}

		out[i] = complex(re, im)
	}

	return out
}

// Pair sorts x into conjugate pairs by increasing real part, each pair
// ordered positive-imaginary first. Real entries follow the pairs, sorted
// in increasing order. Returns [ErrUnpairedComplex] if a complex entry has
// no conjugate partner within tol.
func Pair(x []complex128, tol float64) ([]complex128, error) {
	if tol <= 0 {
		tol = DefaultTol
	}

	sorted := Chop(x, tol)
	sort.Slice(sorted, func(i, j int) bool {
		if real(sorted[i]) != real(sorted[j]) {
			return real(sorted[i]) < real(sorted[j])
		}
		return imag(sorted[i]) < imag(sorted[j])
	})

	var reals, pos, neg []complex128

	for _, v := range sorted {
		switch {
		case imag(v) == 0:
			reals = append(reals, v)
		case imag(v) > 0:
			pos = append(pos, v)
		default:
			neg = append(neg, v)
		}
	}

	if len(pos) != len(neg) {
		return nil, ErrUnpairedComplex
	}

	out := make([]complex128, 0, len(x))
	used := make([]bool, len(neg))

	for _, p := range pos {
		conj := complex(real(p), -imag(p))

		match := -1
		for j, n := range neg {
			if !used[j] && absC(n-conj) <= tol {
				match = j
				break
			}
		}

		if match < 0 {
			return nil, ErrUnpairedComplex
		}

		used[match] = true
		out = append(out, p, neg[match])
	}

	return append(out, reals...), nil
}

// PolyFromRoots expands a monic polynomial with the given roots. The result
// is in descending power order: out[0]*z^n + out[1]*z^(n-1) + ... + out[n].
func PolyFromRoots(roots []complex128) []complex128 {
	coeffs := []complex128{1}

	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}

		coeffs = next
	}

	return coeffs
}

// Real returns the real parts of x. Conjugate-paired root sets produce
// polynomials whose coefficients are real up to numerical noise, so the
// imaginary residue is simply dropped.
func Real(x []complex128) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = real(v)
	}

	return out
}

func absC(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
