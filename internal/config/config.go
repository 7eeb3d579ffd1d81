// Package config parses the command line into a validated Config,
// mirroring the flag table in spec.md §6 with github.com/spf13/pflag,
// the way the teacher's cmd/direwolf/main.go builds its flag surface
// from pflag.*P constructors plus a custom pflag.Usage func.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kb9vqg/specsweep/internal/hop"
	"github.com/kb9vqg/specsweep/internal/window"
)

// ErrInvalidArgs is the sentinel wrapped by every argument-validation
// failure Parse returns.
var ErrInvalidArgs = errors.New("config: invalid arguments")

// Config is the fully-resolved, defaulted, and coerced program
// configuration.
type Config struct {
	MinFreq, MaxFreq uint32

	DevIndex         int
	ClkOffPPM        int
	ClkCorrPeriodSec int
	Gain             float64
	Strategy         hop.ID
	SampRate         uint32
	Log2FFTSize      int
	FFTBatchLen      int
	AvgFactor        int
	Soverlap         int
	FreqOverlap      float64
	MonitorTimeSec   int
	MinTimeResSec    int
	WindowFun        window.ID
	SampleRuns       int

	DryRun  bool
	Version bool
}

// Parse parses args (typically os.Args[1:]) into a Config, applying the
// defaults and coercions spec.md §6 documents. fs is returned so the
// caller can print fs.Usage() on error.
func Parse(prog string, args []string) (*Config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s min_freq_hz max_freq_hz [options]\n\n", prog)
		fs.PrintDefaults()
	}

	devIndex := fs.IntP("dev-index", "d", 0, "SDR device index")
	clkOff := fs.IntP("clk-off", "c", 0, "initial clock offset, PPM")
	clkCorrPeriod := fs.IntP("clk-corr-period", "k", 3600, "clock correction period, seconds")
	gain := fs.Float64P("gain", "g", 32.8, "tuner gain in dB, -1 for auto")
	strategy := fs.StringP("strategy", "y", "similarity", "hopping strategy: sequential, random, similarity")
	sampRate := fs.Uint32P("samp-rate", "s", 2_400_000, "sample rate, Hz")
	log2FFTSize := fs.IntP("log2-fft-size", "f", 8, "log2 of the FFT size")
	fftBatchLen := fs.IntP("fft-batchlen", "b", 10, "FFT batch length")
	avgFactor := fs.IntP("avg-factor", "a", 5, "averaging factor")
	soverlap := fs.IntP("soverlap", "o", -1, "segment overlap in samples (default fft_size/2)")
	freqOverlap := fs.Float64P("freq-overlap", "q", 1.0/6.0, "guard-band fraction")
	monitorTime := fs.IntP("monitor-time", "t", 0, "monitor duration, seconds (0 = infinite)")
	minTimeRes := fs.IntP("min-time-res", "r", 0, "minimum time between sweeps, seconds")
	windowFun := fs.StringP("window", "w", "hanning", "window function: rectangular, hanning, blackman_harris_4")
	sampleRuns := fs.IntP("sample-runs", "x", 0, "number of sweeps to run (0 = unbounded)")
	dryRun := fs.BoolP("dry-run", "n", false, "print the computed sweep plan and exit without opening the SDR")
	version := fs.BoolP("version", "v", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	cfg := &Config{
		DevIndex:         *devIndex,
		ClkOffPPM:        *clkOff,
		ClkCorrPeriodSec: *clkCorrPeriod,
		Gain:             *gain,
		Strategy:         hop.FromString(*strategy),
		SampRate:         *sampRate,
		Log2FFTSize:      *log2FFTSize,
		FFTBatchLen:      *fftBatchLen,
		AvgFactor:        *avgFactor,
		Soverlap:         *soverlap,
		FreqOverlap:      *freqOverlap,
		MonitorTimeSec:   *monitorTime,
		MinTimeResSec:    *minTimeRes,
		WindowFun:        window.FromString(*windowFun),
		SampleRuns:       *sampleRuns,
		DryRun:           *dryRun,
		Version:          *version,
	}

	if cfg.Version {
		return cfg, fs, nil
	}

	if fs.NArg() != 2 {
		return nil, fs, fmt.Errorf("%w: expected min_freq_hz and max_freq_hz, got %d positional argument(s)", ErrInvalidArgs, fs.NArg())
	}
	minFreq, err := parseUint32(fs.Arg(0))
	if err != nil {
		return nil, fs, fmt.Errorf("%w: min_freq_hz: %v", ErrInvalidArgs, err)
	}
	maxFreq, err := parseUint32(fs.Arg(1))
	if err != nil {
		return nil, fs, fmt.Errorf("%w: max_freq_hz: %v", ErrInvalidArgs, err)
	}
	if maxFreq <= minFreq {
		return nil, fs, fmt.Errorf("%w: max_freq_hz must exceed min_freq_hz", ErrInvalidArgs)
	}
	cfg.MinFreq, cfg.MaxFreq = minFreq, maxFreq

	fftSize := 1 << uint(cfg.Log2FFTSize)
	if cfg.AvgFactor < 1 {
		cfg.AvgFactor = 5
	}
	if cfg.Soverlap < 0 {
		cfg.Soverlap = fftSize / 2
	} else if cfg.Soverlap > fftSize-1 {
		cfg.Soverlap = fftSize / 2
	}

	return cfg, fs, nil
}

func parseUint32(s string) (uint32, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("value %d out of range for a 32-bit frequency", v)
	}
	return uint32(v), nil
}
