// Package snr measures the in-band signal-to-noise ratio of a delta-sigma
// modulator output sequence.
//
// The analysis windows the code sequence, computes its spectrum and splits
// the in-band power (up to fs/(2*OSR)) into a signal peak and shaped
// quantization noise. This is the standard brute-force evaluation of a
// modulator design's effective resolution.
package snr

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Config holds SNR analysis parameters.
type Config struct {
	// OSR is the oversampling ratio defining the signal band edge at
	// fs/(2*OSR). Must be > 1.
	OSR float64

	// SampleRate defaults to 1 (normalized frequencies).
	SampleRate float64

	// FFTSize defaults to the next power of two covering the signal.
	FFTSize int

	// LeakageBins is the number of bins on each side of the signal peak
	// attributed to the signal (window leakage). Defaults to 1.
	LeakageBins int
}

// Result holds SNR measurement results.
type Result struct {
	SignalBin   int     // spectrum bin of the signal peak
	SignalFreq  float64 // frequency of the signal peak
	SignalPower float64 // power in the peak and its leakage bins
	NoisePower  float64 // remaining in-band power
	SNRdB       float64 // 10*log10(SignalPower/NoisePower)
	BandEdgeBin int     // last bin inside the signal band
	PeakInput   float64 // max |x| of the analyzed sequence
}

// Analyze measures the in-band SNR of a single-channel sequence, typically
// the output codes of a simulated modulator.
func Analyze(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, fmt.Errorf("snr: empty signal")
	}

	if cfg.OSR <= 1 || math.IsNaN(cfg.OSR) || math.IsInf(cfg.OSR, 0) {
		return Result{}, fmt.Errorf("snr: oversampling ratio must be > 1 and finite: %f", cfg.OSR)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 1
	}

	if cfg.LeakageBins <= 0 {
		cfg.LeakageBins = 1
	}

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}

	if fftSize < len(signal) {
		return Result{}, fmt.Errorf("snr: FFT size %d smaller than signal length %d", fftSize, len(signal))
	}

	window := hann(len(signal))

	inData := make([]complex128, fftSize)
	for i, v := range signal {
		inData[i] = complex(v*window[i], 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("snr: %w", err)
	}

	spectrum := make([]complex128, fftSize)
	if err := plan.Forward(spectrum, inData); err != nil {
		return Result{}, fmt.Errorf("snr: %w", err)
	}

	bins := fftSize/2 + 1

	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := 0; i < bins; i++ {
		re[i] = real(spectrum[i])
		im[i] = imag(spectrum[i])
	}

	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	edge := int(float64(fftSize) / (2 * cfg.OSR))
	if edge >= bins {
		edge = bins - 1
	}

	if edge < 1 {
		return Result{}, fmt.Errorf("snr: signal band collapses to DC at OSR %f with FFT size %d", cfg.OSR, fftSize)
	}

	// Signal peak inside the band, DC bin excluded.
	sigBin := 1
	for i := 2; i <= edge; i++ {
		if power[i] > power[sigBin] {
			sigBin = i
		}
	}

	res := Result{
		SignalBin:   sigBin,
		SignalFreq:  float64(sigBin) * cfg.SampleRate / float64(fftSize),
		BandEdgeBin: edge,
		PeakInput:   vecmath.MaxAbs(signal),
	}

	for i := 1; i <= edge; i++ {
		if i >= sigBin-cfg.LeakageBins && i <= sigBin+cfg.LeakageBins {
			res.SignalPower += power[i]
		} else {
			res.NoisePower += power[i]
		}
	}

	switch {
	case res.SignalPower == 0:
		res.SNRdB = math.Inf(-1)
	case res.NoisePower == 0:
		res.SNRdB = math.Inf(1)
	default:
		res.SNRdB = 10 * math.Log10(res.SignalPower/res.NoisePower)
	}

	return res, nil
}

// hann returns a periodic (FFT form) Hann window of length n. The periodic
// form keeps a bin-aligned tone confined to three spectrum bins.
func hann(n int) []float64 {
	win := make([]float64, n)
	for i := range win {
		win[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}

	return win
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
