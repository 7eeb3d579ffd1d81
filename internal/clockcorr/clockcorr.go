// Package clockcorr implements the clock-correction worker's stub
// estimator (spec.md §4.8): "implementers should expose the hook but may
// leave the estimator a pass-through that returns the prior value." The
// worker optionally samples an on-board 1-wire temperature sensor and
// optionally latches a 1-PPS GPIO line, both additional drift-estimation
// inputs layered on top of the pass-through, never a real drift model.
package clockcorr

import (
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"

	"github.com/kb9vqg/specsweep/internal/onewire"
)

// Worker holds the latest clock-offset estimate and the optional
// temperature-sensor and PPS inputs that may one day inform it.
type Worker struct {
	ppmEstimate int64 // atomic, PPM

	tempSerial string

	mu      sync.Mutex
	ppsLine *gpiocdev.Line
	ppsEdge uint64 // count of PPS edges observed, diagnostic only
}

// New returns a worker seeded with the configured initial clock offset.
func New(initialPPM int, tempSerial string) *Worker {
	w := &Worker{tempSerial: tempSerial}
	atomic.StoreInt64(&w.ppmEstimate, int64(initialPPM))
	return w
}

// Correct runs one clock-correction cycle: it is the "request a
// clock-correction cycle" event spec.md §4.7 describes the manager's
// timer firing. The estimator itself is a pass-through — it returns the
// prior estimate unchanged, optionally returning the temperature reading
// (which the manager logs) as a future drift-model input.
func (w *Worker) Correct() (ppm int, tempC float64, haveTemp bool, err error) {
	ppm = int(atomic.LoadInt64(&w.ppmEstimate))

	if w.tempSerial == "" {
		return ppm, 0, false, nil
	}
	t, terr := onewire.ReadTemperatureC(w.tempSerial)
	if terr != nil {
		return ppm, 0, false, terr
	}
	return ppm, t, true, nil
}

// EnablePPS latches a 1-PPS input line on the named GPIO chip/offset,
// counting edges as a diagnostic (spec.md's clock-correction algorithm
// itself remains a stub; this only supplements its inputs).
func (w *Worker) EnablePPS(chip string, offset int) error {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			w.mu.Lock()
			w.ppsEdge++
			w.mu.Unlock()
		}),
	)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.ppsLine = line
	w.mu.Unlock()
	return nil
}

// PPSEdgeCount returns the number of PPS edges observed so far.
func (w *Worker) PPSEdgeCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ppsEdge
}

// Close releases the PPS line, if one was requested.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ppsLine == nil {
		return nil
	}
	err := w.ppsLine.Close()
	w.ppsLine = nil
	return err
}
