// Package sampling implements the sampling/windowing stage (spec.md
// §4.2): the sole owner of the SDR device for the duration of a sweep,
// driving it through a published plan and emitting windowed Items with
// descending avg_index into the pipeline.
package sampling

import (
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/plan"
	"github.com/kb9vqg/specsweep/internal/queue"
	"github.com/kb9vqg/specsweep/internal/sdr"
	"github.com/kb9vqg/specsweep/internal/window"
)

// Stage drives the SDR device once per sweep request from the
// controller, segmenting and windowing each hop's read into Items.
type Stage struct {
	dev  sdr.Device
	outs []*queue.Queue
	log  *charmlog.Logger

	// WindowAtInterleavedIndex preserves the bit-exact (if asymmetric)
	// behavior spec.md §4.2 documents: the window function is evaluated
	// at the interleaved I/Q index l in [0, 2*fft_size) rather than at
	// l/2. Defaults to true; see spec.md §9's Open Question.
	WindowAtInterleavedIndex bool

	mu             sync.Mutex
	clkOffPPM      int
	prevSampRate   uint32
	prevCenterFreq uint32
	haveTuned      bool
}

// New returns a Stage driving dev and fanning out to outs.
func New(dev sdr.Device, outs []*queue.Queue, log *charmlog.Logger) *Stage {
	return &Stage{dev: dev, outs: outs, log: log, WindowAtInterleavedIndex: true}
}

// SetClockOffset updates the PPM value applied at the start of every
// sweep, refreshed by the controller/manager's clock-correction cycle.
func (s *Stage) SetClockOffset(ppm int) {
	s.mu.Lock()
	s.clkOffPPM = ppm
	s.mu.Unlock()
}

// Run services sweep requests until requests is closed or done fires.
// On either, it finishes any sweep in progress (requests delivers whole
// plans, never interrupts one) then signals exit downstream, per
// spec.md §4.2's "On shutdown: finish the current sweep (if any)".
func (s *Stage) Run(requests <-chan *plan.Plan, completed chan<- struct{}, done <-chan struct{}) {
	for {
		select {
		case <-done:
			s.signalExitDownstream()
			return
		case p, ok := <-requests:
			if !ok {
				s.signalExitDownstream()
				return
			}
			if err := s.runSweep(p); err != nil {
				s.log.Error("sweep aborted", "err", err)
				s.signalExitDownstream()
				return
			}
			select {
			case completed <- struct{}{}:
			case <-done:
				s.signalExitDownstream()
				return
			}
		}
	}
}

func (s *Stage) signalExitDownstream() {
	for _, q := range s.outs {
		q.SignalExit()
	}
}

// runSweep materializes one full sweep: steps 2-6 of spec.md §4.2.
func (s *Stage) runSweep(p *plan.Plan) error {
	s.mu.Lock()
	ppm := s.clkOffPPM
	s.mu.Unlock()

	if err := s.dev.SetFreqCorrection(ppm); err != nil {
		return sdr.Err("set_freq_correction", err)
	}

	for _, step := range p.Steps {
		if !s.haveTuned || step.SampRate != s.prevSampRate {
			if err := s.dev.SetSampleRate(step.SampRate); err != nil {
				return sdr.Err("set_sample_rate", err)
			}
			s.prevSampRate = step.SampRate
		}
		if !s.haveTuned || step.CenterFreq != s.prevCenterFreq {
			if err := s.dev.Retune(step.CenterFreq); err != nil {
				return sdr.Err("retune", err)
			}
			s.prevCenterFreq = step.CenterFreq
		}
		s.haveTuned = true

		if err := s.runHop(step); err != nil {
			return err
		}
	}
	return nil
}

// runHop performs one hop: read, segment, window, emit avg_factor Items.
func (s *Stage) runHop(step plan.Step) error {
	fftSize := 1 << uint(step.Log2FFTSize)
	readLen := sdr.ReadLen(fftSize, step.Soverlap, step.AvgFactor)

	buf := make([]byte, readLen)
	if _, err := s.dev.Read(buf); err != nil {
		return sdr.Err("read", err)
	}

	now := time.Now()
	tsSec := uint32(now.Unix())
	tsUsec := uint32(now.Nanosecond() / 1000)

	stride := (fftSize - step.Soverlap) * 2
	for j := 0; j < step.AvgFactor; j++ {
		offset := j * stride
		segment := buf[offset : offset+2*fftSize]

		samples := s.windowSegment(segment, step.WindowFun, fftSize)

		it := &item.Item{
			CenterFreq:  step.CenterFreq,
			TsSec:       tsSec,
			TsUsec:      tsUsec,
			SampRate:    step.SampRate,
			Log2FFTSize: step.Log2FFTSize,
			AvgFactor:   step.AvgFactor,
			AvgIndex:    step.AvgFactor - j,
			Soverlap:    step.Soverlap,
			FreqOverlap: step.FreqOverlap,
			WindowFunID: step.WindowFun,
			Samples:     samples,
		}
		s.emit(it)
	}
	return nil
}

// windowSegment converts one 2*fftSize-byte interleaved I/Q segment to
// mean-removed, windowed floats, per spec.md §4.2 step 5.
func (s *Stage) windowSegment(segment []byte, windowFun, fftSize int) []float64 {
	n := len(segment)
	raw := make([]float64, n)
	var sumI, sumQ float64
	for l := 0; l < n; l++ {
		v := float64(segment[l])
		raw[l] = v
		if l%2 == 0 {
			sumI += v
		} else {
			sumQ += v
		}
	}
	meanI := sumI / float64(fftSize)
	meanQ := sumQ / float64(fftSize)

	out := make([]float64, n)
	for l := 0; l < n; l++ {
		mean := meanI
		if l%2 != 0 {
			mean = meanQ
		}
		var w float64
		if s.WindowAtInterleavedIndex {
			w = window.Eval(window.ID(windowFun), l, fftSize)
		} else {
			w = window.Eval(window.ID(windowFun), l/2, fftSize)
		}
		out[l] = (raw[l] - mean) * w
	}
	return out
}

func (s *Stage) emit(it *item.Item) {
	for i, q := range s.outs {
		if i == len(s.outs)-1 {
			q.Insert(it)
		} else {
			q.Insert(it.Copy())
		}
	}
}
