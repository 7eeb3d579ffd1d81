package hop

import "github.com/kb9vqg/specsweep/internal/plan"

// SequentialStrategy computes the entire sweep plan once and returns the
// same plan on every subsequent call (spec.md §4.6): "On first call,
// compute and cache the plan for the entire sweep once... On subsequent
// calls... keep the plan." This makes it idempotent by construction —
// exercised by TestSequentialIsIdempotent.
type SequentialStrategy struct {
	cfg    Config
	cached *plan.Plan
}

// NewSequential returns a Planner implementing the sequential strategy.
func NewSequential(cfg Config) *SequentialStrategy {
	return &SequentialStrategy{cfg: cfg}
}

// Plan returns the cached plan, computing it on the first call.
func (s *SequentialStrategy) Plan() *plan.Plan {
	if s.cached == nil {
		s.cached = buildSequentialFrequencies(s.cfg)
	}
	return s.cached.Clone()
}
