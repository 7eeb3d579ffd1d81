// Package sdr defines the interface to the SDR dongle that the sampling/
// windowing stage drives, plus the small amount of device-adjacent logic
// that the spec leaves as an external collaborator but that a complete
// repository still needs: gain-table validation and USB device discovery.
//
// The actual bit-banging driver for a given dongle chipset is out of
// scope (spec.md §1); Device is the narrow interface the core pipeline
// consumes, grounded in the operation list spec.md gives verbatim:
// open, set_gain, set_freq_correction, set_sample_rate, retune, read,
// close.
package sdr

import (
	"fmt"
)

// Device is the SDR dongle interface the sampling stage drives. No lock
// type guards a Device; the sampling/windowing stage is its sole caller
// for the duration of a sweep, per spec.md §5.
type Device interface {
	SetGain(db float64) error
	SetFreqCorrection(ppm int) error
	SetSampleRate(hz uint32) error
	Retune(centerHz uint32) error
	// Read fills buf with unsigned 8-bit I/Q interleaved samples and
	// returns the number of bytes read.
	Read(buf []byte) (int, error)
	Close() error
}

// Opener constructs a Device for the given dongle index, mirroring the
// out-of-scope driver's open(dev_index).
type Opener func(devIndex int) (Device, error)

// SupportedGains is a representative discrete gain table (tenths of dB)
// for an RTL2832U-based dongle with an E4000 tuner, used by
// NearestSupportedGain. -1 (auto gain) is handled separately by callers.
var SupportedGains = []float64{
	-10, 15, 40, 65, 90, 115, 140, 165, 190, 215, 240, 290, 340, 420,
}

// NearestSupportedGain returns the entry of SupportedGains closest to
// requested, or requested unchanged if requested < 0 (auto gain) or the
// table is empty. This supplements the distilled spec: the original
// program (original_source/src/sensor/Sensor.c) does not validate gain
// at all — it passes `-g` straight through to SDR_set_gain with no table
// and no range check. Snapping to the closest supported value and
// logging the substitution once at startup is pure CLI ergonomics, not a
// ground-truth behavior; it changes no pipeline semantics.
func NearestSupportedGain(requested float64) float64 {
	if requested < 0 || len(SupportedGains) == 0 {
		return requested
	}
	best := SupportedGains[0]
	bestDelta := diff(requested, best)
	for _, g := range SupportedGains[1:] {
		if d := diff(requested, g); d < bestDelta {
			best, bestDelta = g, d
		}
	}
	return best
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// ReadLen computes the number of bytes the sampling stage must request
// from Device.Read for one hop: (fft_size - soverlap) * avg_factor +
// soverlap interleaved I/Q samples, each sample occupying 2 bytes,
// rounded up to a multiple of 512 bytes as the driver requires.
func ReadLen(fftSize, soverlap, avgFactor int) int {
	samples := (fftSize-soverlap)*avgFactor + soverlap
	bytes := samples * 2
	const block = 512
	if rem := bytes % block; rem != 0 {
		bytes += block - rem
	}
	return bytes
}

// Err wraps a Device operation failure with the operation name, so the
// sampling stage can log "sdr: retune: <cause>" without callers having
// to format that themselves.
func Err(op string, cause error) error {
	return fmt.Errorf("sdr: %s: %w", op, cause)
}
