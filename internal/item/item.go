// Package item defines the unit of work that flows through the pipeline:
// a sample buffer plus the per-segment metadata needed by every
// downstream stage. An Item is exclusively owned by one stage at a time;
// ownership transfers atomically via queue Insert/Remove. No stage may
// mutate an Item after handing it off.
package item

// Item is one work unit. Samples is polymorphic: before the FFT stage it
// holds 2*FFTSize() interleaved I/Q floats, after the FFT stage it holds
// FFTSize() magnitude-in-dB floats.
type Item struct {
	CenterFreq uint32 // Hz
	TsSec      uint32
	TsUsec     uint32
	SampRate   uint32 // Hz

	Log2FFTSize int

	AvgFactor int
	AvgIndex  int // 1 <= AvgIndex <= AvgFactor, descending within a group

	Soverlap    int     // segment overlap, samples; 0 <= Soverlap < FFTSize()
	FreqOverlap float64 // fraction of band discarded as guard band, [0,1)

	Gain              float64
	HoppingStrategyID int
	WindowFunID       int

	Samples []float64 // polymorphic payload, see package docs

	FreqRes float64 // Hz/bin, filled by a consumer if needed
}

// FFTSize returns 1 << Log2FFTSize.
func (it *Item) FFTSize() int {
	return 1 << uint(it.Log2FFTSize)
}

// Copy returns a shallow copy of it with its own Samples backing array,
// used for fan-out to more than one downstream queue. Metadata fields are
// value types and copy by assignment; Samples is duplicated so that two
// downstream consumers never share a mutable slice.
func (it *Item) Copy() *Item {
	cp := *it
	cp.Samples = make([]float64, len(it.Samples))
	copy(cp.Samples, it.Samples)
	return &cp
}
