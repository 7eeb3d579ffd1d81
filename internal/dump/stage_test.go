package dump

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vqg/specsweep/internal/item"
	"github.com/kb9vqg/specsweep/internal/queue"
)

func TestReducedFFTSizeZeroOverlapIsFFTSizePlusOne(t *testing.T) {
	assert.Equal(t, 17, ReducedFFTSize(16, 0))
}

func TestReducedFFTSizeDefaultOverlap(t *testing.T) {
	// 1/6 default freq_overlap.
	assert.Equal(t, int((5.0/6.0)*17), ReducedFFTSize(16, 1.0/6.0))
}

func TestScenario1SequentialOneSweep(t *testing.T) {
	// Seed scenario 1: fft_size=16, freq_overlap=0 -> 16 output lines
	// spanning center +/- 8*freq_res with freq_res=62500Hz.
	const fftSize = 16
	const freqRes = 62500.0
	const center = uint32(100_500_000)

	reduced := ReducedFFTSize(fftSize, 0)
	assert.Equal(t, fftSize+1, reduced)
	// The stage clamps reduced to len(samples) == fftSize when it would
	// otherwise exceed the available bins (see writeItem), so exactly
	// fftSize lines are emitted.
	samples := make([]float64, fftSize)
	it := &item.Item{
		CenterFreq: center, SampRate: 1_000_000, Log2FFTSize: 4, FreqOverlap: 0,
		Samples: samples,
	}

	var buf bytes.Buffer
	writeItem(&buf, it)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, fftSize)

	lowest := parseFreq(t, lines[0])
	highest := parseFreq(t, lines[len(lines)-1])
	assert.InDelta(t, float64(center)-8*freqRes, lowest, 1)
	assert.InDelta(t, float64(center)+7*freqRes, highest, 1)
}

func TestNonzeroOverlapIndexesFromStartOfSamplesNoCentering(t *testing.T) {
	// fft_size=16, freq_overlap=1/6 (the CLI's own default) -> reduced_fft_size
	// = int((5/6)*17) = 14, strictly less than len(samples) == 16. The
	// original (Sensor.c's dumping(), "for(i=0; i<reduced_fft_size; ++i)
	// ... samples[i]") reads directly from the front of the array with no
	// centering offset; this pins that down by giving every sample a
	// distinct value and checking which ones appear on stdout.
	const fftSize = 16
	samples := make([]float64, fftSize)
	for i := range samples {
		samples[i] = float64(i)
	}
	it := &item.Item{
		CenterFreq: 100_000_000, SampRate: 1_000_000, Log2FFTSize: 4,
		FreqOverlap: 1.0 / 6.0, Samples: samples,
	}

	reduced := ReducedFFTSize(fftSize, it.FreqOverlap)
	require.Equal(t, 14, reduced)
	require.Less(t, reduced, len(samples))

	var buf bytes.Buffer
	writeItem(&buf, it)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, reduced)
	for i, line := range lines {
		fields := strings.Split(line, ",")
		require.Len(t, fields, 4)
		got, err := strconv.ParseFloat(fields[3], 64)
		require.NoError(t, err)
		assert.Equal(t, samples[i], got, "line %d should carry samples[%d], not a centered offset", i, i)
	}
}

func parseFreq(t *testing.T, line string) float64 {
	t.Helper()
	fields := strings.Split(line, ",")
	require.Len(t, fields, 4)
	f, err := strconv.ParseFloat(fields[2], 64)
	require.NoError(t, err)
	return f
}

func TestRunFlushesAfterEachItem(t *testing.T) {
	in := queue.New(4)
	var buf bytes.Buffer
	s := New(in, &buf)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run()
	}()

	in.Insert(&item.Item{
		CenterFreq: 100_000_000, SampRate: 1_000_000, Log2FFTSize: 2,
		Samples: []float64{-10, -20, -30, -40},
	})
	in.SignalExit()
	wg.Wait()

	out := bufio.NewScanner(&buf)
	lines := 0
	for out.Scan() {
		lines++
	}
	assert.Equal(t, 4, lines) // reduced to len(samples) == fftSize
}
