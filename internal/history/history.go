// Package history implements the similarity hopping strategy's
// per-frequency history table: a flat mapping from center frequency to
// an Entry holding the EMA-filtered magnitude of the most recent visit
// and a smoothed similarity score, per spec.md §3 and §5.
//
// The table is protected by a single dedicated mutex, held only for the
// narrow lookup/insert/update/decay critical section — never across a
// full-spectrum similarity computation, which callers should do outside
// the lock using the Entry copy Get returns.
package history

import "sync"

// Entry is one frequency's history record.
type Entry struct {
	PreviousSignal []float64 // EMA-filtered magnitude, length fft_size
	Similarity     float64   // EMA-smoothed scalar in [0, 100]

	// HasSimilarity is false until the first real similarity comparison
	// has been made for this frequency (i.e. on its second visit). The
	// placeholder Similarity=0 an entry is born with is not a real
	// measurement, so the first genuine measurement is assigned
	// directly rather than EMA-blended against that placeholder — the
	// same "y[0]=x[0]" initialization convention the magnitude EMA
	// filter itself uses. Without this, a fresh entry's first measured
	// similarity would be pulled toward zero by the 0.75/0.25 blend,
	// which contradicts the cold-start scenario in spec.md §8 (a second
	// sweep with identical input must show similarity exactly 100, not
	// 75).
	HasSimilarity bool
}

// Table is the history map. The zero value is not usable; use New.
type Table struct {
	mu      sync.Mutex
	entries map[uint32]Entry
}

// New returns an empty history table.
func New() *Table {
	return &Table{entries: make(map[uint32]Entry)}
}

// Get returns a copy of the entry for freq, and whether one exists.
// Entries are replaced wholesale on update (never mutated in place), so
// a returned Entry's PreviousSignal slice is safe to read without
// holding the table lock.
func (t *Table) Get(freq uint32) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[freq]
	return e, ok
}

// Set replaces (or creates) the entry for freq.
func (t *Table) Set(freq uint32, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[freq] = e
}

// Decay divides the existing entry's Similarity by factor (factor > 1
// reduces confidence — the planner calls this when a candidate frequency
// is skipped, spec.md §4.6). It is a no-op, returning false, if no entry
// exists for freq yet.
func (t *Table) Decay(freq uint32, factor float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[freq]
	if !ok {
		return false
	}
	e.Similarity /= factor
	t.entries[freq] = e
	return true
}

// Len returns the number of frequencies currently tracked.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
