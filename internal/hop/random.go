package hop

import (
	"math"
	"math/rand"
	"time"

	"github.com/kb9vqg/specsweep/internal/plan"
)

// RandomStrategy regenerates center frequencies on every call from a plan
// shape identical to the sequential strategy's (spec.md §4.6). The
// random source is seeded once, from wall-clock time by default — use
// NewRandomWithSource for reproducible sequences (seed case 3:
// "same seed (force srand(42)) yields a reproducible frequency
// sequence").
type RandomStrategy struct {
	cfg Config
	n   int
	rng *rand.Rand
}

// NewRandom returns a Planner implementing the random strategy, seeded
// from wall-clock time.
func NewRandom(cfg Config) *RandomStrategy {
	return NewRandomWithSource(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRandomWithSource is NewRandom with an explicit random source, for
// deterministic tests.
func NewRandomWithSource(cfg Config, rng *rand.Rand) *RandomStrategy {
	step := freqStep(cfg)
	n := candidateCount(cfg, step)
	if n < 0 {
		n = 0
	}
	return &RandomStrategy{cfg: cfg, n: n, rng: rng}
}

// Plan regenerates every center frequency:
//
//	resolution = samp_rate / fft_size
//	min_f = floor((min_freq + 0.5*freq_step) / resolution)
//	max_f = floor((max_freq - 0.5*freq_step + resolution) / resolution)
//	center_freqs[i] = (min_f + uniform_int_in[0, max_f-min_f]) * resolution
func (r *RandomStrategy) Plan() *plan.Plan {
	cfg := r.cfg
	step := freqStep(cfg)
	resolution := float64(cfg.SampRate) / float64(int(1)<<uint(cfg.Log2FFTSize))

	minF := int(math.Floor((float64(cfg.MinFreq) + 0.5*step) / resolution))
	maxF := int(math.Floor((float64(cfg.MaxFreq) - 0.5*step + resolution) / resolution))

	steps := buildUniformSteps(cfg, r.n)
	span := maxF - minF
	for i := range steps {
		pick := minF
		if span > 0 {
			pick += r.rng.Intn(span + 1)
		}
		steps[i].CenterFreq = uint32(float64(pick) * resolution)
	}
	return &plan.Plan{Steps: steps}
}
