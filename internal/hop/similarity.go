package hop

import (
	"math"
	"math/rand"
	"time"

	"github.com/kb9vqg/specsweep/internal/history"
	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/plan"
)

const (
	alphaFilter         = 0.75  // EMA filter coefficient for the magnitude signal
	alphaRecursive      = 0.75  // EMA coefficient for the smoothed similarity score
	similarityReduction = 1.0005 // divisor applied to similarity on each skip
	shiftSearchRadius   = 2      // M: lag search range [-M, M]
	shiftDegradationP   = 2.0    // p in Sp(m) = ((-|m|/M)+1)^p
	similarityWeight    = 0.8    // c in result = (c*b + (1-c)*Sp(s)) * 100
)

// SimilarityStrategy maintains a full candidate plan (every frequency the
// sequential strategy would visit) plus a per-sweep working plan selected
// by probabilistic re-inspection driven by a per-frequency history table
// (spec.md §4.6).
type SimilarityStrategy struct {
	cfg  Config
	hist *history.Table
	rng  *rand.Rand

	full *plan.Plan
}

// NewSimilarity returns a Planner implementing the similarity strategy,
// seeded from wall-clock time.
func NewSimilarity(cfg Config, hist *history.Table) *SimilarityStrategy {
	return NewSimilarityWithSource(cfg, hist, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSimilarityWithSource is NewSimilarity with an explicit random
// source, for deterministic tests.
func NewSimilarityWithSource(cfg Config, hist *history.Table, rng *rand.Rand) *SimilarityStrategy {
	return &SimilarityStrategy{cfg: cfg, hist: hist, rng: rng}
}

// Plan selects, from the full candidate list, every frequency with no
// history entry yet plus every frequency that survives the skip-
// probability draw; skipped frequencies have their stored similarity
// decayed.
func (s *SimilarityStrategy) Plan() *plan.Plan {
	if s.full == nil {
		s.full = buildSequentialFrequencies(s.cfg)
	}

	steps := make([]plan.Step, 0, len(s.full.Steps))
	for _, candidate := range s.full.Steps {
		entry, ok := s.hist.Get(candidate.CenterFreq)
		if !ok {
			steps = append(steps, candidate)
			continue
		}

		p := skipProbability(entry.Similarity)
		r := float64(s.rng.Intn(1000)) / 10.0 // uniform in [0, 100)
		if r >= p {
			steps = append(steps, candidate)
			continue
		}
		s.hist.Decay(candidate.CenterFreq, similarityReduction)
	}
	return &plan.Plan{Steps: steps}
}

// OnFFTItem is the post-FFT callback registered on the FFT stage: it
// EMA-filters the item's magnitude spectrum and updates this
// frequency's history entry. Wired by cmd/specsweep to
// fftstage.Stage.OnItem.
func (s *SimilarityStrategy) OnFFTItem(it *item.Item) {
	filtered := emaFilter(it.Samples, alphaFilter)
	freq := it.CenterFreq

	entry, ok := s.hist.Get(freq)
	if !ok {
		s.hist.Set(freq, history.Entry{PreviousSignal: filtered})
		return
	}

	sim := estimateSimilarity(entry.PreviousSignal, filtered)
	if entry.HasSimilarity {
		entry.Similarity = alphaRecursive*sim + (1-alphaRecursive)*entry.Similarity
	} else {
		entry.Similarity = sim
		entry.HasSimilarity = true
	}
	entry.PreviousSignal = filtered
	s.hist.Set(freq, entry)
}

// skipProbability is p = 10^-4 * exp(ln(10^6) * s / 100).
func skipProbability(similarity float64) float64 {
	return 1e-4 * math.Exp(math.Log(1e6)*similarity/100)
}

// emaFilter is the IIR filter y[0]=x[0], y[n]=alpha*x[n]+(1-alpha)*y[n-1].
func emaFilter(x []float64, alpha float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	y[0] = x[0]
	for n := 1; n < len(x); n++ {
		y[n] = alpha*x[n] + (1-alpha)*y[n-1]
	}
	return y
}

// estimateSimilarity computes the shifted normalized cross-correlation
// similarity of equal-length signals x and y, in percent (spec.md §4.6):
// normalize by 1/(||x||*||y||), search integer lags m in
// [-shiftSearchRadius, shiftSearchRadius] for the maximum correlation b,
// then blend b with the shift-degradation term Sp evaluated at the
// winning lag.
func estimateSimilarity(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}

	var sumX2, sumY2 float64
	for i := range x {
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	normX, normY := math.Sqrt(sumX2), math.Sqrt(sumY2)
	if normX == 0 || normY == 0 {
		return 0
	}
	norm := 1.0 / (normX * normY)

	n := len(x)
	bestLag := 0
	bestB := math.Inf(-1)
	for m := -shiftSearchRadius; m <= shiftSearchRadius; m++ {
		var sum float64
		if m >= 0 {
			for k := 0; k < n-m; k++ {
				sum += x[k+m] * y[k]
			}
		} else {
			shift := -m
			for k := 0; k < n-shift; k++ {
				sum += y[k+shift] * x[k]
			}
		}
		t := norm * sum
		if t > bestB {
			bestB = t
			bestLag = m
		}
	}

	sp := math.Pow((-math.Abs(float64(bestLag))/shiftSearchRadius)+1, shiftDegradationP)
	return (similarityWeight*bestB + (1-similarityWeight)*sp) * 100
}
