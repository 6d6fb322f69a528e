// Package sim drives a canonical delta-sigma modulator model forward
// sample by sample.
//
// Each step computes the quantizer input from the current state, quantizes
// it, and advances the state with the input and feedback contributions:
//
//	y[t]   = C*x[t] + D1*u[t]
//	v[t]   = quantize(y[t])
//	x[t+1] = A*x[t] + B1*u[t] + B2*v[t]
//
// A call is deterministic and strictly sequential. It owns all scratch
// buffers, so concurrent calls sharing one read-only model are safe.
package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-dsm/dsm/model"
	"github.com/cwbudde/algo-dsm/dsm/quantize"
)

// ErrDimensionMismatch is returned when the request arrays disagree with
// the model's order, input count or quantizer count.
var ErrDimensionMismatch = errors.New("sim: dimension mismatch")

// InputFromSlice wraps a single-channel sample sequence as the canonical
// inputs x samples matrix expected by [Simulate]. The samples are copied.
func InputFromSlice(samples []float64) *mat.Dense {
	return mat.NewDense(1, len(samples), append([]float64(nil), samples...))
}

// Simulate runs the modulator model over the input sequence u
// (inputs x samples) and returns the quantized output codes plus any
// requested diagnostics. All validation happens before the loop; the loop
// itself has no failure path and does not allocate.
func Simulate(m *model.CanonicalModel, u *mat.Dense, opts ...Option) (*Result, error) {
	if m == nil {
		return nil, fmt.Errorf("sim: nil model: %w", ErrDimensionMismatch)
	}

	if u == nil {
		return nil, fmt.Errorf("sim: nil input sequence: %w", ErrDimensionMismatch)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	order := m.Order()
	nq := m.Quantizers()

	rows, samples := u.Dims()
	if rows != m.Inputs() {
		return nil, fmt.Errorf("sim: input sequence has %d rows, model has %d inputs: %w",
			rows, m.Inputs(), ErrDimensionMismatch)
	}

	if len(cfg.levels) != nq {
		return nil, fmt.Errorf("sim: %d level counts for %d quantizers: %w",
			len(cfg.levels), nq, ErrDimensionMismatch)
	}

	if cfg.initialState == nil {
		cfg.initialState = make([]float64, order)
	}

	if len(cfg.initialState) != order {
		return nil, fmt.Errorf("sim: initial state has length %d, model order is %d: %w",
			len(cfg.initialState), order, ErrDimensionMismatch)
	}

	res := &Result{OutputCodes: mat.NewDense(nq, samples, nil)}

	if cfg.history {
		res.StateHistory = mat.NewDense(order, samples, nil)
	}

	if cfg.preQuantizer {
		res.PreQuantizer = mat.NewDense(nq, samples, nil)
	}

	var maxima []float64
	if cfg.maxima {
		maxima = make([]float64, order)
		for i, v := range cfg.initialState {
			maxima[i] = math.Abs(v)
		}
	}

	// Scratch state, private to this call. The state vectors swap roles
	// every sample so the loop stays allocation-free.
	x := mat.NewVecDense(order, append([]float64(nil), cfg.initialState...))
	xNext := mat.NewVecDense(order, nil)
	xTerm := mat.NewVecDense(order, nil)
	y0 := mat.NewVecDense(nq, nil)
	yTerm := mat.NewVecDense(nq, nil)

	codes := make([]float64, nq)
	vt := mat.NewVecDense(nq, codes)

	for t := 0; t < samples; t++ {
		ut := u.ColView(t)

		// y0 = C*x + D1*u[:,t]
		y0.MulVec(m.C(), x)
		yTerm.MulVec(m.D1(), ut)
		y0.AddVec(y0, yTerm)

		if cfg.preQuantizer {
			res.PreQuantizer.SetCol(t, y0.RawVector().Data)
		}

		quantize.QuantizeTo(codes, y0.RawVector().Data, cfg.levels)
		res.OutputCodes.SetCol(t, codes)

		// x = A*x + B1*u[:,t] + B2*v[:,t]
		xNext.MulVec(m.A(), x)
		xTerm.MulVec(m.B1(), ut)
		xNext.AddVec(xNext, xTerm)
		xTerm.MulVec(m.B2(), vt)
		xNext.AddVec(xNext, xTerm)

		x, xNext = xNext, x

		if cfg.history {
			res.StateHistory.SetCol(t, x.RawVector().Data)
		}

		for i := range maxima {
			if abs := math.Abs(x.AtVec(i)); abs > maxima[i] {
				maxima[i] = abs
			}
		}
	}

	if !cfg.history {
		res.FinalState = mat.NewVecDense(order, append([]float64(nil), x.RawVector().Data...))
	}

	if cfg.maxima {
		res.StateMaxima = mat.NewVecDense(order, maxima)
	}

	return res, nil
}
