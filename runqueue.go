package actorcore

import (
	"sync"
	"sync/atomic"
)

// RunQueue is a per-worker MPSC FIFO of runnable PIDs: any thread may
// push, only the owning worker pops (spec.md §4.D).
type RunQueue struct {
	mu     sync.Mutex
	items  []PID
	length atomic.Int64
	_      cachePad
}

// NewRunQueue builds an empty run queue.
func NewRunQueue() *RunQueue {
	return &RunQueue{}
}

// Push appends pid to the tail. No bound: memory pressure is controlled
// upstream by cooperative yielding and work stealing (spec.md §4.D).
func (q *RunQueue) Push(pid PID) {
	q.mu.Lock()
	q.items = append(q.items, pid)
	q.mu.Unlock()
	q.length.Add(1)
}

// TryPop removes and returns the head PID, if any.
func (q *RunQueue) TryPop() (PID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return InvalidPID, false
	}
	pid := q.items[0]
	q.items = q.items[1:]
	q.length.Add(-1)
	return pid, true
}

// Len returns the queue's current length via its atomic counter.
func (q *RunQueue) Len() int { return int(q.length.Load()) }
