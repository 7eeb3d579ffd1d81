// Package fftengine wraps a single-precision-complex FFT primitive with
// the batched init/forward/release lifecycle the FFT stage's batching
// logic depends on: initialize(log2_size, batch_len), forward a whole
// batch at once computing power in dB per bin, release.
//
// The per-item transform is delegated to algo-fft's Plan64
// (github.com/MeKo-Christian/algo-fft), the same library the wider
// reference pack uses for spectral analysis (CWBudde-algo-dsp's
// internal/webdemo/spectrum.go calls algofft.NewPlan64(size) then
// plan.Forward(out, in)). The "batched" contract in spec.md §4.3 is this
// package's own bookkeeping: algo-fft has no native batch API, so
// Forward loops a single Plan64 over each item in the batch. This keeps
// a single owner of the FFT engine (this package's Engine, confined to
// the FFT stage goroutine, per spec.md §9) while still satisfying the
// init/forward/release lifecycle the spec names.
package fftengine

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// noiseFloorDB substitutes for an exact-zero-magnitude bin, which has no
// finite dB value; it keeps the "power_db is finite" invariant (spec.md
// §8) true for the degenerate all-zero input case.
const noiseFloorDB = -300.0

// Engine holds one FFT plan sized for Log2Size, reused across Forward
// calls until Release/re-Init.
type Engine struct {
	log2Size int
	size     int
	plan     *algofft.Plan64
	in       []complex128
	out      []complex128
}

// New returns an uninitialized Engine. Initialize must be called before
// Forward.
func New() *Engine {
	return &Engine{}
}

// Initialize (re)plans the engine for 1<<log2Size-point transforms. A
// batchLen argument is accepted to mirror the external FFT engine's
// init(log2_size, batch_len) signature named in spec.md §4.3, but this
// implementation only needs size: Forward is called once per item, so no
// batch-shaped scratch buffer is preallocated here.
func (e *Engine) Initialize(log2Size, batchLen int) error {
	size := 1 << uint(log2Size)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("fftengine: initialize size=%d: %w", size, err)
	}
	e.log2Size = log2Size
	e.size = size
	e.plan = plan
	e.in = make([]complex128, size)
	e.out = make([]complex128, size)
	_ = batchLen
	return nil
}

// Release frees the current plan. Calling Forward after Release without
// a new Initialize panics.
func (e *Engine) Release() {
	e.plan = nil
	e.in = nil
	e.out = nil
}

// Size returns the currently planned transform size, or 0 if
// uninitialized.
func (e *Engine) Size() int {
	return e.size
}

// Forward computes, for every item in the batch, the power spectrum in
// dB of iq (2*Size() interleaved I/Q floats) into a freshly allocated
// Size()-length slice. Order is preserved: out[k] corresponds to
// iq[k].
func (e *Engine) Forward(batchIQ [][]float64) ([][]float64, error) {
	if e.plan == nil {
		panic("fftengine: Forward called without Initialize")
	}
	out := make([][]float64, len(batchIQ))
	for k, iq := range batchIQ {
		if len(iq) != 2*e.size {
			return nil, fmt.Errorf("fftengine: item %d has %d I/Q floats, want %d", k, len(iq), 2*e.size)
		}
		for n := 0; n < e.size; n++ {
			e.in[n] = complex(iq[2*n], iq[2*n+1])
		}
		if err := e.plan.Forward(e.out, e.in); err != nil {
			return nil, fmt.Errorf("fftengine: forward: %w", err)
		}
		db := make([]float64, e.size)
		for n, c := range e.out {
			mag := cmplx.Abs(c)
			if mag <= 0 {
				db[n] = noiseFloorDB
				continue
			}
			db[n] = 20 * math.Log10(mag)
		}
		out[k] = db
	}
	return out, nil
}
