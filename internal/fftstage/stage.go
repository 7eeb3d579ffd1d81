// Package fftstage implements the batched FFT pipeline stage: it buffers
// Items into batches of at most BatchLen, and performs a batched forward
// FFT when the batch fills, when the FFT size changes, or when upstream
// exits — re-initializing the FFT engine's plan on every size change and
// flushing any partial batch at that transition, per spec.md §4.3.
package fftstage

import (
	"github.com/kb9vqg/specsweep/internal/fftengine"
	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/queue"
	"github.com/kb9vqg/specsweep/internal/xassert"
)

// Callback is invoked once per emitted Item, after its I/Q buffer has
// been replaced by the dB magnitude buffer. The similarity hopping
// strategy uses this to update its per-frequency history (spec.md §4.6).
type Callback func(it *item.Item)

// Stage reads I/Q Items from In and writes power-in-dB Items to every
// queue in Outs. The FFT engine is single-owner: Run must be the only
// goroutine driving engine.
type Stage struct {
	In       *queue.Queue
	Outs     []*queue.Queue
	BatchLen int
	OnItem   Callback

	engine          *fftengine.Engine
	currentLog2Size int
	initialized     bool
	pending         []*item.Item
}

// New returns a ready-to-run Stage.
func New(in *queue.Queue, outs []*queue.Queue, batchLen int, onItem Callback) *Stage {
	xassert.That(batchLen >= 1, "fftstage: batchLen must be >= 1, got %d", batchLen)
	return &Stage{
		In:       in,
		Outs:     outs,
		BatchLen: batchLen,
		OnItem:   onItem,
		engine:   fftengine.New(),
	}
}

// Run drives the stage until In is drained and exited, then signals exit
// on every downstream queue. It is meant to be the body of the FFT
// stage's dedicated goroutine.
func (s *Stage) Run() {
	for {
		it, ok := s.In.Remove()
		if !ok {
			s.flush()
			s.release()
			s.signalExitDownstream()
			return
		}
		s.accept(it)
	}
}

func (s *Stage) accept(it *item.Item) {
	if !s.initialized || it.Log2FFTSize != s.currentLog2Size {
		s.flush()
		s.reinit(it.Log2FFTSize)
	}

	s.pending = append(s.pending, it)
	if len(s.pending) == s.BatchLen {
		s.emit()
	}
}

func (s *Stage) reinit(log2Size int) {
	s.release()
	if err := s.engine.Initialize(log2Size, s.BatchLen); err != nil {
		panic(err)
	}
	s.currentLog2Size = log2Size
	s.initialized = true
}

func (s *Stage) release() {
	if s.initialized {
		s.engine.Release()
		s.initialized = false
	}
}

// flush performs a residual-batch FFT (using a plan sized for however
// many items are actually pending, per spec.md §4.3's flush-on-shutdown
// and flush-on-size-change rules) and clears pending.
func (s *Stage) flush() {
	if len(s.pending) == 0 {
		return
	}
	if s.initialized {
		s.engine.Release()
		s.initialized = false
	}
	if err := s.engine.Initialize(s.pending[0].Log2FFTSize, len(s.pending)); err != nil {
		panic(err)
	}
	s.initialized = true
	s.currentLog2Size = s.pending[0].Log2FFTSize
	s.emit()
	s.release()
}

// emit runs a batched forward FFT over the pending items and forwards
// each transformed Item downstream, fanning out a Copy per extra
// downstream queue.
func (s *Stage) emit() {
	batch := s.pending
	s.pending = nil

	iqs := make([][]float64, len(batch))
	for k, it := range batch {
		iqs[k] = it.Samples
	}

	out, err := s.engine.Forward(iqs)
	if err != nil {
		panic(err)
	}

	for k, it := range batch {
		it.Samples = out[k]
		if s.OnItem != nil {
			s.OnItem(it)
		}
		s.forward(it)
	}
}

func (s *Stage) forward(it *item.Item) {
	for i, out := range s.Outs {
		if i == len(s.Outs)-1 {
			out.Insert(it)
		} else {
			out.Insert(it.Copy())
		}
	}
}

func (s *Stage) signalExitDownstream() {
	for _, out := range s.Outs {
		out.SignalExit()
	}
}
