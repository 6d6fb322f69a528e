package sim

import "gonum.org/v1/gonum/mat"

// Result holds the outcome of one simulation run.
//
// OutputCodes is always produced. Exactly one of FinalState and
// StateHistory is non-nil, discriminated by [WithStateHistory].
// StateMaxima and PreQuantizer are nil unless requested.
type Result struct {
	// OutputCodes is the quantized feedback sequence, quantizers x samples.
	OutputCodes *mat.Dense

	// FinalState is the state vector after the last sample. It is nil when
	// the full history was recorded.
	FinalState *mat.VecDense

	// StateHistory is the post-update state at every sample,
	// order x samples. Nil unless requested.
	StateHistory *mat.Dense

	// StateMaxima is the running maximum absolute value per state
	// component, seeded from |initial state|. Nil unless requested.
	StateMaxima *mat.VecDense

	// PreQuantizer is the quantizer-input signal, quantizers x samples.
	// Nil unless requested.
	PreQuantizer *mat.Dense
}

// HasHistory reports whether the full state trajectory was recorded.
func (r *Result) HasHistory() bool { return r.StateHistory != nil }
