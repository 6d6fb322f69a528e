// Command dsmsim synthesizes a delta-sigma modulator NTF, simulates it on a
// sine test tone and reports the in-band SNR and state activity.
//
// Examples:
//
//	dsmsim run
//	dsmsim run --order 4 --osr 128 --optimal-zeros
//	dsmsim run --config modulator.yaml --log-level debug
package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dsm/dsm/model"
	"github.com/cwbudde/algo-dsm/dsm/ntf"
	"github.com/cwbudde/algo-dsm/dsm/sim"
	"github.com/cwbudde/algo-dsm/measure/snr"
)

var (
	order        int
	osr          float64
	hInf         float64
	f0           float64
	optimalZeros bool
	levels       int
	samples      int
	amplitude    float64
	freq         float64
	logLevel     string
	configPath   string
)

var rootCmd = &cobra.Command{
	Use:   "dsmsim",
	Short: "Time-domain delta-sigma modulator simulator",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synthesize an NTF, simulate it and report the in-band SNR",
	RunE:  runSimulation,
}

func init() {
	def := defaultRunConfig()

	runCmd.Flags().IntVar(&order, "order", def.Order, "NTF order")
	runCmd.Flags().Float64Var(&osr, "osr", def.OSR, "oversampling ratio")
	runCmd.Flags().Float64Var(&hInf, "hinf", def.HInf, "out-of-band NTF gain (Lee criterion)")
	runCmd.Flags().Float64Var(&f0, "f0", def.F0, "normalized band center (0 for lowpass)")
	runCmd.Flags().BoolVar(&optimalZeros, "optimal-zeros", def.OptimalZeros, "spread NTF zeros at the optimal in-band positions")
	runCmd.Flags().IntVar(&levels, "levels", def.Levels, "quantizer level count")
	runCmd.Flags().IntVar(&samples, "samples", def.Samples, "simulation length in samples")
	runCmd.Flags().Float64Var(&amplitude, "amplitude", def.Amplitude, "test tone amplitude (full scale is levels-1)")
	runCmd.Flags().Float64Var(&freq, "freq", def.Freq, "test tone frequency relative to the band edge")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "log verbosity level")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration (set flags still win)")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	logrus.SetLevel(level)

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.validate(); err != nil {
		return err
	}

	placement := ntf.ZerosAtBandCenter
	if cfg.OptimalZeros {
		placement = ntf.ZerosOptimal
	}

	logrus.Infof("synthesizing NTF: order=%d osr=%g hinf=%g f0=%g zeros=%s",
		cfg.Order, cfg.OSR, cfg.HInf, cfg.F0, placement)

	zeros, poles, gain, err := ntf.Synthesize(cfg.Order, cfg.OSR, placement, cfg.HInf, cfg.F0)
	if err != nil {
		return err
	}

	m, err := model.FromNTF(zeros, poles, gain)
	if err != nil {
		return err
	}

	// Align the test tone with an FFT bin so leakage does not mask the
	// noise floor.
	fftSize := nextPowerOf2(cfg.Samples)
	bandEdge := 1 / (2 * cfg.OSR)
	toneFreq := cfg.F0 + cfg.Freq*bandEdge
	toneBin := math.Round(toneFreq * float64(fftSize))
	toneFreq = toneBin / float64(fftSize)

	fullScale := float64(cfg.Levels - 1)
	if fullScale == 0 {
		fullScale = 1
	}

	logrus.Debugf("test tone: freq=%g (bin %g of %d), amplitude=%g",
		toneFreq, toneBin, fftSize, cfg.Amplitude*fullScale)

	input := make([]float64, cfg.Samples)
	for i := range input {
		input[i] = cfg.Amplitude * fullScale * math.Sin(2*math.Pi*toneFreq*float64(i))
	}

	logrus.Infof("simulating %d samples", cfg.Samples)

	res, err := sim.Simulate(m, sim.InputFromSlice(input),
		sim.WithLevelCounts(cfg.Levels),
		sim.WithStateMaxima(),
	)
	if err != nil {
		return err
	}

	codes := res.OutputCodes.RawRowView(0)

	analysis, err := snr.Analyze(codes, snr.Config{OSR: cfg.OSR, FFTSize: fftSize})
	if err != nil {
		return err
	}

	report(cmd, cfg, m.Order(), res, analysis)

	return nil
}

// resolveConfig layers an optional YAML file over the defaults and explicit
// flags over the file.
func resolveConfig(cmd *cobra.Command) (runConfig, error) {
	cfg := defaultRunConfig()

	if configPath != "" {
		loaded, err := loadRunConfig(configPath)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("order") {
		cfg.Order = order
	}
	if flags.Changed("osr") {
		cfg.OSR = osr
	}
	if flags.Changed("hinf") {
		cfg.HInf = hInf
	}
	if flags.Changed("f0") {
		cfg.F0 = f0
	}
	if flags.Changed("optimal-zeros") {
		cfg.OptimalZeros = optimalZeros
	}
	if flags.Changed("levels") {
		cfg.Levels = levels
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("amplitude") {
		cfg.Amplitude = amplitude
	}
	if flags.Changed("freq") {
		cfg.Freq = freq
	}

	return cfg, nil
}

func report(cmd *cobra.Command, cfg runConfig, modelOrder int, res *sim.Result, analysis snr.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "SNR\t%.1f dB\n", analysis.SNRdB)
	fmt.Fprintf(w, "ENOB\t%.2f bits\n", (analysis.SNRdB-1.76)/6.02)
	fmt.Fprintf(w, "signal bin\t%d (band edge %d)\n", analysis.SignalBin, analysis.BandEdgeBin)
	fmt.Fprintf(w, "peak code\t%.0f\n", analysis.PeakInput)

	for i := 0; i < modelOrder; i++ {
		fmt.Fprintf(w, "max |x%d|\t%.4f\n", i+1, res.StateMaxima.AtVec(i))
	}

	w.Flush()

	if unstable := detectOverload(res, cfg.Levels); unstable {
		logrus.Warn("state maxima suggest quantizer overload; the modulator may be unstable at this amplitude")
	}
}

// detectOverload flags runs whose states grew far beyond the quantizer
// range, the usual signature of an overloaded loop.
func detectOverload(res *sim.Result, levels int) bool {
	limit := 10 * float64(levels)

	for i := 0; i < res.StateMaxima.Len(); i++ {
		if res.StateMaxima.AtVec(i) > limit {
			return true
		}
	}

	return false
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
