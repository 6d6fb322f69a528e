package sim_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-dsm/dsm/model"
	"github.com/cwbudde/algo-dsm/dsm/sim"
	"github.com/cwbudde/algo-dsm/internal/testutil"
)

// firstOrderModel builds the classic first-order modulator
// x' = x + u - v, y = x + u from its direct form.
func firstOrderModel(t *testing.T) *model.CanonicalModel {
	t.Helper()

	m, err := model.FromABCD(mat.NewDense(2, 3, []float64{
		1, 1, -1,
		1, 1, 0,
	}), 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestSimulateBinaryIdle(t *testing.T) {
	// Zero input drives the binary first-order loop into the alternating
	// idle pattern +1, -1, +1, -1, ...
	m := firstOrderModel(t)

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.Zeros(16)))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		want := 1.0
		if i%2 == 1 {
			want = -1
		}

		if got := res.OutputCodes.At(0, i); got != want {
			t.Fatalf("code[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestSimulateZeroFixedPoint(t *testing.T) {
	// With a mid-tread quantizer, zero input and zero state stay at the
	// all-zero fixed point.
	m := firstOrderModel(t)

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.Zeros(64)),
		sim.WithLevelCounts(3),
		sim.WithStateHistory(),
		sim.WithPreQuantizer(),
	)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 64; i++ {
		if res.OutputCodes.At(0, i) != 0 {
			t.Fatalf("code[%d] = %v, want 0", i, res.OutputCodes.At(0, i))
		}

		if res.StateHistory.At(0, i) != 0 {
			t.Fatalf("state[%d] = %v, want 0", i, res.StateHistory.At(0, i))
		}

		if res.PreQuantizer.At(0, i) != 0 {
			t.Fatalf("y0[%d] = %v, want 0", i, res.PreQuantizer.At(0, i))
		}
	}
}

func TestSimulateDCTracking(t *testing.T) {
	// The binary first-order modulator tracks a DC input in the mean.
	m := firstOrderModel(t)

	const dc = 0.25

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.DC(dc, 4000)))
	if err != nil {
		t.Fatal(err)
	}

	var mean float64
	for i := 0; i < 4000; i++ {
		mean += res.OutputCodes.At(0, i)
	}

	mean /= 4000

	if math.Abs(mean-dc) > 0.01 {
		t.Errorf("mean code = %v, want %v within 0.01", mean, dc)
	}
}

func TestSimulateNTFModelDCTracking(t *testing.T) {
	// Same property through the NTF construction path.
	m, err := model.FromNTF([]complex128{1}, []complex128{0}, 1)
	if err != nil {
		t.Fatal(err)
	}

	const dc = -0.4

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.DC(dc, 4000)))
	if err != nil {
		t.Fatal(err)
	}

	var mean float64
	for i := 0; i < 4000; i++ {
		mean += res.OutputCodes.At(0, i)
	}

	mean /= 4000

	if math.Abs(mean-dc) > 0.01 {
		t.Errorf("mean code = %v, want %v within 0.01", mean, dc)
	}
}

func TestSimulateFinalStateVsHistory(t *testing.T) {
	m := firstOrderModel(t)
	input := sim.InputFromSlice(testutil.Sine(0.01, 0.5, 200))

	plain, err := sim.Simulate(m, input)
	if err != nil {
		t.Fatal(err)
	}

	if plain.HasHistory() || plain.FinalState == nil {
		t.Fatal("default run must produce a final state, not a history")
	}

	full, err := sim.Simulate(m, input, sim.WithStateHistory())
	if err != nil {
		t.Fatal(err)
	}

	if !full.HasHistory() || full.FinalState != nil {
		t.Fatal("history run must produce a history, not a final state")
	}

	// Identical trajectory: the last history column is the final state.
	if got, want := full.StateHistory.At(0, 199), plain.FinalState.AtVec(0); got != want {
		t.Errorf("last history state = %v, final state = %v", got, want)
	}
}

func TestSimulateStateMaxima(t *testing.T) {
	m := firstOrderModel(t)
	input := sim.InputFromSlice(testutil.Sine(0.01, 0.5, 500))

	res, err := sim.Simulate(m, input,
		sim.WithStateHistory(),
		sim.WithStateMaxima(),
		sim.WithInitialState([]float64{-0.125}),
	)
	if err != nil {
		t.Fatal(err)
	}

	// Recompute the maxima from the trajectory, seeded from |x0|.
	want := 0.125
	for i := 0; i < 500; i++ {
		if abs := math.Abs(res.StateHistory.At(0, i)); abs > want {
			want = abs
		}
	}

	if got := res.StateMaxima.AtVec(0); got != want {
		t.Errorf("state maximum = %v, want %v", got, want)
	}
}

func TestSimulateStateMaximaSeededFromInitialState(t *testing.T) {
	// A large initial state dominates the whole trajectory with a
	// mid-tread quantizer and zero input only if the maxima are seeded
	// before the first step, as the loop decays the state.
	m, err := model.FromABCD(mat.NewDense(2, 3, []float64{
		0.5, 1, -1,
		1, 1, 0,
	}), 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.Zeros(10)),
		sim.WithLevelCounts(3),
		sim.WithInitialState([]float64{0.9}),
		sim.WithStateMaxima(),
	)
	if err != nil {
		t.Fatal(err)
	}

	// x0 = 0.9, y0 = 0.9 -> v = 0, x1 = 0.45, decaying afterwards.
	if got := res.StateMaxima.AtVec(0); got != 0.9 {
		t.Errorf("state maximum = %v, want 0.9 (seeded from |x0|)", got)
	}
}

func TestSimulatePreQuantizerSignal(t *testing.T) {
	m := firstOrderModel(t)
	samples := testutil.Sine(0.02, 0.3, 100)

	res, err := sim.Simulate(m, sim.InputFromSlice(samples),
		sim.WithStateHistory(),
		sim.WithPreQuantizer(),
	)
	if err != nil {
		t.Fatal(err)
	}

	// y0[t] = C*x[t] + D1*u[t], with x[t] the pre-update state (the
	// previous history column).
	for i := 0; i < 100; i++ {
		xPrev := 0.0
		if i > 0 {
			xPrev = res.StateHistory.At(0, i-1)
		}

		want := xPrev + samples[i]
		if got := res.PreQuantizer.At(0, i); math.Abs(got-want) > 1e-15 {
			t.Fatalf("y0[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestSimulateDoesNotMutateInput(t *testing.T) {
	m := firstOrderModel(t)

	u := mat.NewDense(1, 8, []float64{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})
	orig := mat.DenseCopyOf(u)

	if _, err := sim.Simulate(m, u, sim.WithInitialState([]float64{0.5})); err != nil {
		t.Fatal(err)
	}

	if !mat.Equal(u, orig) {
		t.Error("Simulate modified the caller's input sequence")
	}
}

func TestSimulateDimensionMismatch(t *testing.T) {
	m := firstOrderModel(t)
	u := sim.InputFromSlice(testutil.Zeros(4))

	tests := []struct {
		name string
		u    *mat.Dense
		opts []sim.Option
	}{
		{"nil input", nil, nil},
		{"wrong input rows", mat.NewDense(2, 4, nil), nil},
		{"wrong initial state length", u, []sim.Option{sim.WithInitialState([]float64{1, 2})}},
		{"wrong level count length", u, []sim.Option{sim.WithLevelCounts(2, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Simulate(m, tt.u, tt.opts...)
			if !errors.Is(err, sim.ErrDimensionMismatch) {
				t.Errorf("err = %v, want ErrDimensionMismatch", err)
			}
		})
	}
}

func TestSimulateInvalidLevelCounts(t *testing.T) {
	m := firstOrderModel(t)

	_, err := sim.Simulate(m, sim.InputFromSlice(testutil.Zeros(4)), sim.WithLevelCounts(0))
	if err == nil {
		t.Fatal("expected error for a zero level count")
	}
}

func TestSimulateNilOption(t *testing.T) {
	m := firstOrderModel(t)

	if _, err := sim.Simulate(m, sim.InputFromSlice(testutil.Zeros(4)), nil); err != nil {
		t.Fatal(err)
	}
}

func TestSimulateMultiQuantizer(t *testing.T) {
	// Two decoupled first-order loops in one model: order 2, one input,
	// two quantizers.
	abcd := mat.NewDense(4, 5, []float64{
		1, 0, 1, -1, 0,
		0, 1, 1, 0, -1,
		1, 0, 1, 0, 0,
		0, 1, 1, 0, 0,
	})

	m, err := model.FromABCD(abcd, 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Simulate(m, sim.InputFromSlice(testutil.DC(0.25, 2000)),
		sim.WithLevelCounts(2, 3),
	)
	if err != nil {
		t.Fatal(err)
	}

	rows, cols := res.OutputCodes.Dims()
	if rows != 2 || cols != 2000 {
		t.Fatalf("output codes are %dx%d, want 2x2000", rows, cols)
	}

	// Both loops track the DC input in the mean, each with its own
	// quantizer granularity.
	for q := 0; q < 2; q++ {
		var mean float64
		for i := 0; i < 2000; i++ {
			mean += res.OutputCodes.At(q, i)
		}

		mean /= 2000

		if math.Abs(mean-0.25) > 0.02 {
			t.Errorf("quantizer %d: mean code = %v, want 0.25 within 0.02", q, mean)
		}
	}
}

func TestSimulateConcurrentCallsShareModel(t *testing.T) {
	m := firstOrderModel(t)
	input := sim.InputFromSlice(testutil.Sine(0.01, 0.5, 1000))

	ref, err := sim.Simulate(m, input)
	if err != nil {
		t.Fatal(err)
	}

	results := make([]*sim.Result, 8)
	errs := make([]error, 8)
	done := make(chan int, 8)

	for g := 0; g < 8; g++ {
		go func(g int) {
			results[g], errs[g] = sim.Simulate(m, input)
			done <- g
		}(g)
	}

	for range results {
		<-done
	}

	for g, res := range results {
		if errs[g] != nil {
			t.Fatal(errs[g])
		}

		if !mat.Equal(res.OutputCodes, ref.OutputCodes) {
			t.Fatalf("goroutine %d produced a different trajectory", g)
		}
	}
}
