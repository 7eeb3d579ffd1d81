package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vqg/specsweep/internal/logging"
	"github.com/kb9vqg/specsweep/internal/plan"
)

type countingPlanner struct{ n int }

func (p *countingPlanner) Plan() *plan.Plan {
	p.n++
	return &plan.Plan{Steps: []plan.Step{{CenterFreq: uint32(p.n)}}}
}

func TestStopsAfterMaxRuns(t *testing.T) {
	requests := make(chan *plan.Plan)
	completed := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	planner := &countingPlanner{}
	c := New(planner, requests, completed, 0, 0, 3, logging.New())

	go func() {
		for i := 0; i < 3; i++ {
			<-requests
			completed <- struct{}{}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		c.Run(done)
		close(runDone)
	}()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after maxRuns")
	}
	assert.Equal(t, 3, planner.n)
}

func TestStopsWhenDoneFiresMidRequest(t *testing.T) {
	requests := make(chan *plan.Plan)
	completed := make(chan struct{})
	done := make(chan struct{})

	planner := &countingPlanner{}
	c := New(planner, requests, completed, 0, 0, 0, logging.New())

	runDone := make(chan struct{})
	go func() {
		c.Run(done)
		close(runDone)
	}()

	close(done)
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after done closed")
	}
}

func TestEnforcesMinTimeResolution(t *testing.T) {
	requests := make(chan *plan.Plan)
	completed := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	planner := &countingPlanner{}
	minRes := 50 * time.Millisecond
	c := New(planner, requests, completed, 0, minRes, 2, logging.New())

	var gaps []time.Duration
	last := time.Now()
	go func() {
		for i := 0; i < 2; i++ {
			<-requests
			if i == 1 {
				gaps = append(gaps, time.Since(last))
			}
			last = time.Now()
			completed <- struct{}{}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		c.Run(done)
		close(runDone)
	}()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not complete")
	}
	require.Len(t, gaps, 1)
	assert.GreaterOrEqual(t, gaps[0], minRes-5*time.Millisecond)
}
