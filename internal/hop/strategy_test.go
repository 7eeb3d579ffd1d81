package hop

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kb9vqg/specsweep/internal/history"
	"github.com/kb9vqg/specsweep/internal/item"
)

func baseConfig() Config {
	return Config{
		MinFreq: 100_000_000, MaxFreq: 101_000_000,
		SampRate: 1_000_000, Log2FFTSize: 4,
		AvgFactor: 1, Soverlap: 0, FreqOverlap: 0, WindowFun: 0,
	}
}

func TestSequentialScenario1(t *testing.T) {
	cfg := baseConfig()
	s := NewSequential(cfg)
	p := s.Plan()
	require.Len(t, p.Steps, 1)
	assert.Equal(t, uint32(100_500_000), p.Steps[0].CenterFreq)
}

func TestSequentialIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := Config{
			MinFreq:     uint32(rapid.IntRange(1_000_000, 500_000_000).Draw(t, "min")),
			SampRate:    uint32(rapid.IntRange(1_000, 5_000_000).Draw(t, "rate")),
			Log2FFTSize: rapid.IntRange(2, 12).Draw(t, "log2size"),
			AvgFactor:   1, FreqOverlap: 0,
		}
		cfg.MaxFreq = cfg.MinFreq + uint32(rapid.IntRange(1, 50_000_000).Draw(t, "span"))

		s := NewSequential(cfg)
		first := s.Plan()
		second := s.Plan()
		assert.Equal(t, first.Steps, second.Steps)
	})
}

func TestRandomDeterministicWithFixedSeed(t *testing.T) {
	cfg := baseConfig()
	r1 := NewRandomWithSource(cfg, rand.New(rand.NewSource(42)))
	r2 := NewRandomWithSource(cfg, rand.New(rand.NewSource(42)))

	p1 := r1.Plan()
	p2 := r2.Plan()
	require.Equal(t, len(p1.Steps), len(p2.Steps))
	for i := range p1.Steps {
		assert.Equal(t, p1.Steps[i].CenterFreq, p2.Steps[i].CenterFreq)
	}
}

func TestRandomRegeneratesEachCall(t *testing.T) {
	cfg := baseConfig()
	// A 20 MHz band gives 21 steps drawn from 306 bins; baseConfig's 1 MHz
	// band leaves only two bins to draw from, and seed 1 draws the same
	// bins on both calls there.
	cfg.MaxFreq = 120_000_000
	r := NewRandomWithSource(cfg, rand.New(rand.NewSource(1)))
	p1 := r.Plan()
	p2 := r.Plan()

	differs := false
	for i := range p1.Steps {
		if p1.Steps[i].CenterFreq != p2.Steps[i].CenterFreq {
			differs = true
			break
		}
	}
	assert.True(t, differs, "random strategy should regenerate frequencies on each call")
}

func TestSelfSimilarityAtZeroLagIs100(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 4, 3, 2}
	got := estimateSimilarity(x, x)
	assert.InDelta(t, 100.0, got, 1e-6)
}

func TestSimilarityColdStartThenFullSkip(t *testing.T) {
	cfg := baseConfig() // single candidate frequency (see TestSequentialScenario1)
	hist := history.New()
	rng := rand.New(rand.NewSource(7))
	s := NewSimilarityWithSource(cfg, hist, rng)

	// Sweep 1: history empty, candidate must be included.
	p1 := s.Plan()
	require.Len(t, p1.Steps, 1)
	freq := p1.Steps[0].CenterFreq

	magnitude := []float64{-40, -35, -30, -35, -40, -45, -50, -45}
	s.OnFFTItem(&item.Item{CenterFreq: freq, Samples: append([]float64(nil), magnitude...)})

	// Sweep 2: entry now exists with Similarity=0 (placeholder), tiny
	// skip probability, should still be included almost certainly.
	p2 := s.Plan()
	require.Len(t, p2.Steps, 1)

	s.OnFFTItem(&item.Item{CenterFreq: freq, Samples: append([]float64(nil), magnitude...)})

	entry, ok := hist.Get(freq)
	require.True(t, ok)
	assert.InDelta(t, 100.0, entry.Similarity, 1e-6)

	// Sweep 3: skip probability at s=100 is 100; r in [0,100) is always
	// strictly less, so the working plan must be empty.
	p3 := s.Plan()
	assert.Len(t, p3.Steps, 0)
}

func TestSimilarityDecayAfterKSkips(t *testing.T) {
	hist := history.New()
	const freq = uint32(100_500_000)
	hist.Set(freq, history.Entry{Similarity: 50, HasSimilarity: true})

	const k = 5
	s0 := 50.0
	want := s0
	for i := 0; i < k; i++ {
		hist.Decay(freq, similarityReduction)
		want /= similarityReduction
	}
	entry, ok := hist.Get(freq)
	require.True(t, ok)
	assert.InDelta(t, want, entry.Similarity, 1e-9)
}

func TestSkipProbabilityAtFullSimilarity(t *testing.T) {
	assert.InDelta(t, 100.0, skipProbability(100), 1e-9)
}

func TestSkipProbabilityAtZeroSimilarity(t *testing.T) {
	assert.InDelta(t, 1e-4, skipProbability(0), 1e-12)
}
