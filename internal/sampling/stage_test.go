package sampling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vqg/specsweep/internal/logging"
	"github.com/kb9vqg/specsweep/internal/plan"
	"github.com/kb9vqg/specsweep/internal/queue"
	"github.com/kb9vqg/specsweep/internal/sdr"
)

func testStage(dev sdr.Device, outs []*queue.Queue) *Stage {
	return New(dev, outs, logging.New())
}

func TestRunHopEmitsDescendingAvgIndex(t *testing.T) {
	out := queue.New(16)
	s := testStage(sdr.NewSim(1), []*queue.Queue{out})

	step := plan.Step{SampRate: 2_400_000, Log2FFTSize: 4, AvgFactor: 3, Soverlap: 0, CenterFreq: 100_000_000}
	require.NoError(t, s.runHop(step))

	for want := 3; want >= 1; want-- {
		it, ok := out.Remove()
		require.True(t, ok)
		assert.Equal(t, want, it.AvgIndex)
		assert.Equal(t, 3, it.AvgFactor)
		assert.Len(t, it.Samples, 32) // 2*fft_size
	}
}

type retuneCounter struct {
	*sdr.Sim
	retunes int
}

func (r *retuneCounter) Retune(centerHz uint32) error {
	r.retunes++
	return r.Sim.Retune(centerHz)
}

func TestRunSweepRetunesOnlyOnChange(t *testing.T) {
	out := queue.New(16)
	dev := &retuneCounter{Sim: sdr.NewSim(2)}
	s := testStage(dev, []*queue.Queue{out})

	p := &plan.Plan{Steps: []plan.Step{
		{SampRate: 2_400_000, Log2FFTSize: 4, AvgFactor: 1, CenterFreq: 100_000_000},
		{SampRate: 2_400_000, Log2FFTSize: 4, AvgFactor: 1, CenterFreq: 100_000_000},
		{SampRate: 2_400_000, Log2FFTSize: 4, AvgFactor: 1, CenterFreq: 101_000_000},
	}}
	require.NoError(t, s.runSweep(p))
	assert.Equal(t, uint32(101_000_000), dev.Center)
	assert.Equal(t, 2, dev.retunes) // steps 1 and 3; step 2 repeats step 1's frequency

	for i := 0; i < 3; i++ {
		_, ok := out.Remove()
		require.True(t, ok)
	}
}

func TestRunSignalsExitDownstreamWhenRequestsClosed(t *testing.T) {
	out := queue.New(16)
	s := testStage(sdr.NewSim(3), []*queue.Queue{out})

	requests := make(chan *plan.Plan)
	completed := make(chan struct{})
	done := make(chan struct{})
	close(requests)

	runDone := make(chan struct{})
	go func() {
		s.Run(requests, completed, done)
		close(runDone)
	}()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after requests closed")
	}
	assert.True(t, out.Drained())
}

func TestWindowSegmentRemovesMeanOnRectangular(t *testing.T) {
	s := testStage(sdr.NewSim(4), nil)
	segment := []byte{100, 200, 100, 200, 100, 200, 100, 200}
	out := s.windowSegment(segment, 0 /* rectangular */, 4)
	for _, v := range out {
		assert.InDelta(t, 0, v, 1e-9)
	}
}
