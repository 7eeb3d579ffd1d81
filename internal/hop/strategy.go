// Package hop implements the three hopping strategies that decide which
// center frequencies a sweep visits: sequential, random, and similarity
// (spec.md §4.6).
package hop

import "github.com/kb9vqg/specsweep/internal/plan"

// ID selects a hopping strategy.
type ID int

const (
	Sequential ID = iota
	Random
	SimilarityID
)

// FromString maps a CLI -y argument to a strategy ID, defaulting to
// Similarity per spec.md §6's documented default.
func FromString(s string) ID {
	switch s {
	case "sequential":
		return Sequential
	case "random":
		return Random
	case "similarity":
		return SimilarityID
	default:
		return SimilarityID
	}
}

// Config carries the sweep-wide parameters every strategy needs to build
// its candidate frequency list; only CenterFreq varies per step.
type Config struct {
	MinFreq, MaxFreq uint32
	SampRate         uint32
	Log2FFTSize      int
	AvgFactor        int
	Soverlap         int
	FreqOverlap      float64
	WindowFun        int
}

// Planner produces the plan to use for the next sweep.
type Planner interface {
	Plan() *plan.Plan
}

// freqStep is (1 - freq_overlap) * samp_rate, shared by every strategy's
// candidate-count formula.
func freqStep(cfg Config) float64 {
	return (1 - cfg.FreqOverlap) * float64(cfg.SampRate)
}

// candidateCount is N = (max_freq - min_freq + 1e6) / freq_step,
// truncated. The +1e6 constant widens the range so the band's edges are
// covered; spec.md §9 calls this "arguably coincidental" but specifies it
// must be preserved.
func candidateCount(cfg Config, step float64) int {
	return int((float64(cfg.MaxFreq) - float64(cfg.MinFreq) + 1e6) / step)
}

// buildUniformSteps returns N Steps with CenterFreq left at zero and
// every other field copied from cfg — the "parallel arrays are currently
// homogeneous" shape spec.md §3 describes, consolidated into []Step per
// the REDESIGN FLAG in spec.md §9.
func buildUniformSteps(cfg Config, n int) []plan.Step {
	steps := make([]plan.Step, n)
	for i := range steps {
		steps[i] = plan.Step{
			SampRate:    cfg.SampRate,
			Log2FFTSize: cfg.Log2FFTSize,
			AvgFactor:   cfg.AvgFactor,
			Soverlap:    cfg.Soverlap,
			FreqOverlap: cfg.FreqOverlap,
			WindowFun:   cfg.WindowFun,
		}
	}
	return steps
}

// buildSequentialFrequencies fills in CenterFreq for a uniformly-spaced
// full candidate plan: center_freqs[0] = min_freq + 0.5*freq_step,
// center_freqs[i] = center_freqs[i-1] + freq_step. Both the sequential
// and similarity strategies use this for their (only ever computed once)
// full plan.
func buildSequentialFrequencies(cfg Config) *plan.Plan {
	step := freqStep(cfg)
	n := candidateCount(cfg, step)
	if n < 0 {
		n = 0
	}
	steps := buildUniformSteps(cfg, n)

	freq := float64(cfg.MinFreq) + 0.5*step
	for i := range steps {
		steps[i].CenterFreq = uint32(freq)
		freq += step
	}
	return &plan.Plan{Steps: steps}
}
