// Package controller implements the monitoring controller (spec.md
// §4.6): owns the history table and hopping-strategy planner, publishes
// each sweep's plan to the sampling stage, and enforces the
// monitor_time / sample-run / min-time-resolution termination and
// pacing rules.
package controller

import (
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/kb9vqg/specsweep/internal/hop"
	"github.com/kb9vqg/specsweep/internal/plan"
)

// Controller drives the sampling stage through one or more sweeps.
type Controller struct {
	planner hop.Planner
	log     *charmlog.Logger

	monitorTime time.Duration // 0 = no time-based termination
	minTimeRes  time.Duration // 0 = no artificial pacing delay
	maxRuns     int           // 0 = unbounded

	requests  chan<- *plan.Plan
	completed <-chan struct{}
}

// New returns a Controller that publishes plans from planner to
// requests and waits for completion on completed.
func New(planner hop.Planner, requests chan<- *plan.Plan, completed <-chan struct{}, monitorTime, minTimeRes time.Duration, maxRuns int, log *charmlog.Logger) *Controller {
	return &Controller{
		planner:     planner,
		log:         log,
		monitorTime: monitorTime,
		minTimeRes:  minTimeRes,
		maxRuns:     maxRuns,
		requests:    requests,
		completed:   completed,
	}
}

// Run drives sweeps until a termination condition is met or done fires.
// It does not close requests itself; the manager closing done is what
// propagates shutdown through to the sampling stage, which also selects
// on done.
func (c *Controller) Run(done <-chan struct{}) {
	start := time.Now()
	var lastSweep time.Time
	runs := 0

	for {
		select {
		case <-done:
			return
		default:
		}

		if c.maxRuns > 0 && runs >= c.maxRuns {
			c.log.Info("sample-run limit reached, stopping", "runs", runs)
			return
		}
		if c.monitorTime > 0 && time.Since(start) >= c.monitorTime {
			c.log.Info("monitor_time elapsed, stopping")
			return
		}

		if !lastSweep.IsZero() && c.minTimeRes > 0 {
			if !c.waitMinTimeRes(lastSweep, done) {
				return
			}
		}

		p := c.planner.Plan()
		lastSweep = time.Now()
		c.log.Info("sweep plan published", "steps", len(p.Steps))

		select {
		case c.requests <- p:
		case <-done:
			return
		}
		select {
		case <-c.completed:
		case <-done:
			return
		}
		runs++
	}
}

// waitMinTimeRes busy-waits (via a timer, not a spin loop) until at
// least minTimeRes has passed since lastSweep, re-checking the predicate
// after each wake as spec.md §5 requires. Returns false if done fires
// first.
func (c *Controller) waitMinTimeRes(lastSweep time.Time, done <-chan struct{}) bool {
	for {
		elapsed := time.Since(lastSweep)
		if elapsed >= c.minTimeRes {
			return true
		}
		select {
		case <-time.After(c.minTimeRes - elapsed):
		case <-done:
			return false
		}
	}
}
