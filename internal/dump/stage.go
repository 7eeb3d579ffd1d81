// Package dump implements the dumping stage: for each averaged Item it
// writes one "ts_sec,ts_usec,freq_hz,power_db" line per output bin to an
// io.Writer (stdout in production), flushing after each Item.
//
// reduced_fft_size trims the guard-band edges that freq_overlap reserves
// (spec.md §4.5, §9): reduced_fft_size = (1 - freq_overlap) * (fft_size +
// 1), using integer truncation, and the lowest emitted frequency is
// center_freq - (reduced_fft_size/2) * freq_res with integer division —
// asymmetric when reduced_fft_size is odd, preserved for bit-exact
// compatibility rather than "fixed."
package dump

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/queue"
)

// Stage reads averaged Items from In and writes output lines to W.
type Stage struct {
	In *queue.Queue
	W  io.Writer
}

// New returns a ready-to-run Stage.
func New(in *queue.Queue, w io.Writer) *Stage {
	return &Stage{In: in, W: w}
}

// Run drains In, writing output lines, until In is drained and exited.
func (s *Stage) Run() {
	bw := bufio.NewWriter(s.W)
	for {
		it, ok := s.In.Remove()
		if !ok {
			return
		}
		writeItem(bw, it)
		bw.Flush()
	}
}

// ReducedFFTSize returns the number of bins emitted for fftSize and
// freqOverlap, per spec.md §4.5 and §9 (the "+1" and truncation are
// intentional, not bugs).
func ReducedFFTSize(fftSize int, freqOverlap float64) int {
	return int((1 - freqOverlap) * float64(fftSize+1))
}

// BinFrequency returns the frequency, in Hz, of the i'th emitted bin
// (0 <= i < reducedSize) for an Item with the given center frequency and
// bin resolution freqRes.
func BinFrequency(centerFreq uint32, reducedSize int, freqRes float64, i int) float64 {
	return float64(centerFreq) - float64(reducedSize/2-i)*freqRes
}

func writeItem(w io.Writer, it *item.Item) {
	fftSize := it.FFTSize()
	reduced := ReducedFFTSize(fftSize, it.FreqOverlap)
	if reduced > len(it.Samples) {
		reduced = len(it.Samples)
	}
	if reduced < 0 {
		reduced = 0
	}

	freqRes := it.FreqRes
	if freqRes == 0 && fftSize > 0 {
		freqRes = float64(it.SampRate) / float64(fftSize)
	}

	for i := 0; i < reduced; i++ {
		freqHz := BinFrequency(it.CenterFreq, reduced, freqRes, i)
		powerDB := it.Samples[i]
		fmt.Fprintf(w, "%d,%d,%d,%.1f\n", it.TsSec, it.TsUsec, uint32(freqHz), powerDB)
	}
}
