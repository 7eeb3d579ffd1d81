// Package window implements the windowing functions the sampling/
// windowing stage applies to each segment before FFT.
package window

import "math"

// ID selects a window function. The zero value, Rectangular, is also the
// fallback for an unrecognized -w flag value — see the package doc on
// FromString for why that must be chosen explicitly rather than by
// numeric coincidence with a hopping-strategy ID.
type ID int

const (
	Rectangular ID = iota
	Hanning
	BlackmanHarris4
)

// Func evaluates a window shape at sample index n of N, where N is the
// window length (= fft_size). n ranges over [0, N) for a "clean" window,
// but the sampling stage evaluates it at the interleaved I/Q index
// l in [0, 2N) instead (see sampling.Stage.WindowAtInterleavedIndex) — that asymmetry is
// preserved for bit-exact compatibility with the original program.
type Func func(n, N int) float64

// Eval dispatches to the window function selected by id.
func Eval(id ID, n, N int) float64 {
	switch id {
	case Hanning:
		return hanning(n, N)
	case BlackmanHarris4:
		return blackmanHarris4(n, N)
	case Rectangular:
		fallthrough
	default:
		return rectangular(n, N)
	}
}

func rectangular(_, _ int) float64 {
	return 1.0
}

func hanning(n, N int) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/float64(N-1)))
}

func blackmanHarris4(n, N int) float64 {
	x := float64(n) / float64(N-1)
	return 0.35875 -
		0.48829*math.Cos(2*math.Pi*x) +
		0.14128*math.Cos(4*math.Pi*x) -
		0.01168*math.Cos(6*math.Pi*x)
}

// FromString maps a CLI -w argument to a window ID. An unrecognized
// string falls back to Rectangular, chosen explicitly rather than via
// the numeric coincidence between window.Rectangular == 0 and the
// sequential hopping-strategy constant (see hop.FromString) — the two
// ID spaces happen to share a zero value but are not the same space.
func FromString(s string) ID {
	switch s {
	case "hanning":
		return Hanning
	case "blackman_harris_4":
		return BlackmanHarris4
	case "rectangular":
		return Rectangular
	default:
		return Rectangular
	}
}
