// Package averaging implements the averaging stage: it coalesces
// avg_factor consecutive Items sharing a center frequency into one
// averaged Item, per spec.md §4.4.
//
// The sampling stage emits avg_index values in strictly decreasing order
// (avg_factor, avg_factor-1, ..., 1) within a group; this stage relies on
// that ordering and treats any violation as a pipeline-internal protocol
// bug (spec.md §7), not a recoverable error.
package averaging

import (
	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/queue"
	"github.com/kb9vqg/specsweep/internal/xassert"
)

// Stage reads Items from In and writes one averaged Item per group to
// every queue in Outs.
type Stage struct {
	In   *queue.Queue
	Outs []*queue.Queue
}

// New returns a ready-to-run Stage.
func New(in *queue.Queue, outs []*queue.Queue) *Stage {
	return &Stage{In: in, Outs: outs}
}

// Run drives the stage until In is drained and exited, then signals exit
// downstream. It is meant to be the body of the averaging stage's
// dedicated goroutine.
func (s *Stage) Run() {
	for {
		first, ok := s.In.Remove()
		if !ok {
			for _, out := range s.Outs {
				out.SignalExit()
			}
			return
		}

		acc, ok := s.collapseGroup(first)
		if !ok {
			// Upstream exited mid-group; the partial accumulation is
			// discarded per spec.md §4.4 and the stage terminates after
			// propagating exit, since In is now drained.
			for _, out := range s.Outs {
				out.SignalExit()
			}
			return
		}
		s.forward(acc)
	}
}

// collapseGroup accumulates the remaining K-1 Items of the group started
// by first (whose AvgIndex == K), dividing each sample by K as it's
// folded in. It returns (nil, false) if upstream exits before the group
// completes.
func (s *Stage) collapseGroup(first *item.Item) (*item.Item, bool) {
	k := first.AvgIndex
	acc := make([]float64, len(first.Samples))
	for n, v := range first.Samples {
		acc[n] = v / float64(k)
	}

	for i := 1; i < k; i++ {
		next, ok := s.In.Remove()
		if !ok {
			return nil, false
		}
		xassert.That(next.AvgIndex == k-i,
			"averaging: expected avg_index %d, got %d", k-i, next.AvgIndex)
		xassert.That(len(next.Samples) == len(acc),
			"averaging: sample length mismatch: %d vs %d", len(next.Samples), len(acc))
		for n, v := range next.Samples {
			acc[n] += v / float64(k)
		}
	}

	result := first.Copy()
	result.Samples = acc
	return result, true
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
