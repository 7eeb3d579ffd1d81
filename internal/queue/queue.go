// Package queue implements the bounded FIFO used to connect pipeline
// stages with cooperative backpressure.
//
// The design mirrors the teacher's transmit queue (tq.go): one mutex
// guards the buffer, a pair of condition variables signal not-full and
// not-empty, and a sticky exit flag lets a producer tell its consumer
// "I will never insert again" without losing already-queued items.
package queue

import (
	"sync"

	"github.com/kb9vqg/specsweep/internal/item"
)

// Queue is a circular buffer of *item.Item handles with capacity cap.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf   []*item.Item
	head  int // next to remove
	count int

	exit bool
}

// New returns an empty Queue with the given fixed capacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{buf: make([]*item.Item, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Insert blocks while the queue is full, then appends it to the tail and
// wakes one waiting consumer. Insert after SignalExit is a programming
// error and panics; producers must stop inserting once they call
// SignalExit themselves.
func (q *Queue) Insert(it *item.Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.buf) && !q.exit {
		q.notFull.Wait()
	}
	if q.exit {
		panic("queue: Insert after SignalExit")
	}

	tail := (q.head + q.count) % len(q.buf)
	q.buf[tail] = it
	q.count++
	q.notEmpty.Signal()
}

// Remove blocks while the queue is empty and not yet exited. It returns
// (item, true) on success, or (nil, false) once the queue is drained and
// exit has been signaled — the consumer's cue to terminate.
func (q *Queue) Remove() (*item.Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.exit {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		return nil, false
	}

	it := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.notFull.Signal()
	return it, true
}

// SignalExit marks the queue as exited: no further Insert may occur, and
// Remove returns (nil, false) once the remaining items are drained. exit
// is sticky and idempotent.
func (q *Queue) SignalExit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.exit = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Drained reports whether the queue is both empty and exited — the
// post-shutdown invariant every queue must satisfy.
func (q *Queue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count == 0 && q.exit
}
