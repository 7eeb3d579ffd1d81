// Package manager implements the top-level supervisor (spec.md §4.7):
// starts the clock-correction worker and the monitoring controller,
// fires periodic clock correction, and runs the graceful shutdown
// sequence with a 60-second abort timeout.
package manager

import (
	"os"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/kb9vqg/specsweep/internal/clockcorr"
	"github.com/kb9vqg/specsweep/internal/controller"
)

// AbortTimeout is the grace period spec.md §4.7 and §6 both specify:
// "set an abort timeout (e.g., 60 s)".
const AbortTimeout = 60 * time.Second

// ClockOffsetSetter is implemented by the sampling stage: the manager
// pushes each corrected PPM estimate down to it.
type ClockOffsetSetter interface {
	SetClockOffset(ppm int)
}

// Manager supervises the controller and the clock-correction worker.
type Manager struct {
	ctrl   *controller.Controller
	clk    *clockcorr.Worker
	sample ClockOffsetSetter

	clkCorrPeriod time.Duration
	log           *charmlog.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// Done returns the channel that closes once shutdown has begun — wired
// into the sampling stage's Run so it can react to shutdown directly
// rather than only through the controller ceasing to publish plans.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// New returns a Manager ready to Run.
func New(ctrl *controller.Controller, clk *clockcorr.Worker, sample ClockOffsetSetter, clkCorrPeriod time.Duration, log *charmlog.Logger) *Manager {
	return &Manager{
		ctrl:          ctrl,
		clk:           clk,
		sample:        sample,
		clkCorrPeriod: clkCorrPeriod,
		log:           log,
		done:          make(chan struct{}),
	}
}

// Run starts the controller and clock-correction loop and blocks until
// stop fires, then runs the shutdown sequence: mark workers
// non-running (close m.done), signal them to wake, join, and force-abort
// if they have not joined within AbortTimeout.
func (m *Manager) Run(stop <-chan struct{}) {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.ctrl.Run(m.done)
	}()
	go func() {
		defer m.wg.Done()
		m.clockCorrLoop()
	}()

	<-stop
	m.log.Info("shutdown requested")
	close(m.done)

	joined := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
		m.log.Info("shutdown complete")
	case <-time.After(AbortTimeout):
		m.log.Error("shutdown exceeded abort timeout, forcing exit", "timeout", AbortTimeout)
		os.Exit(1)
	}
}

func (m *Manager) clockCorrLoop() {
	if m.clkCorrPeriod <= 0 {
		<-m.done
		return
	}
	ticker := time.NewTicker(m.clkCorrPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			ppm, tempC, haveTemp, err := m.clk.Correct()
			if err != nil {
				m.log.Error("clock correction failed", "err", err)
				continue
			}
			if haveTemp {
				m.log.Info("clock correction", "ppm", ppm, "temp_c", tempC)
			} else {
				m.log.Info("clock correction", "ppm", ppm)
			}
			m.sample.SetClockOffset(ppm)
		}
	}
}
