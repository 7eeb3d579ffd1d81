package sdr

import (
	"math"
	"math/rand"
)

// Sim is an in-process software Device used by tests and as the device
// cmd/specsweep drives (-dry-run opens no device at all). It
// never touches real hardware; Read synthesizes unsigned 8-bit I/Q
// samples centered on 127.5 (the USB dongle's "zero" level) with a weak
// tone plus noise, which is enough to drive the pipeline end to end in
// tests without a physical dongle.
type Sim struct {
	SampleRate uint32
	Center     uint32
	PPM        int
	GainDB     float64
	rng        *rand.Rand
}

// NewSim returns a ready-to-use simulated Device. seed makes its output
// reproducible across test runs.
func NewSim(seed int64) *Sim {
	return &Sim{rng: rand.New(rand.NewSource(seed))}
}

func (s *Sim) SetGain(db float64) error {
	s.GainDB = db
	return nil
}

func (s *Sim) SetFreqCorrection(ppm int) error {
	s.PPM = ppm
	return nil
}

func (s *Sim) SetSampleRate(hz uint32) error {
	s.SampleRate = hz
	return nil
}

func (s *Sim) Retune(centerHz uint32) error {
	s.Center = centerHz
	return nil
}

func (s *Sim) Read(buf []byte) (int, error) {
	const toneFracOfNyquist = 0.1
	for i := 0; i+1 < len(buf); i += 2 {
		t := float64(i/2) * toneFracOfNyquist
		iVal := 127.5 + 40*math.Cos(t) + (s.rng.Float64()-0.5)*8
		qVal := 127.5 + 40*math.Sin(t) + (s.rng.Float64()-0.5)*8
		buf[i] = clampByte(iVal)
		buf[i+1] = clampByte(qVal)
	}
	return len(buf), nil
}

func (s *Sim) Close() error {
	return nil
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
