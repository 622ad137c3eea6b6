package actorcore

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is a single scheduled wake-up or delayed message
// (spec.md §3 "Timer entry").
type timerEntry struct {
	pid      PID
	expireAt time.Time
	signal   Signal
	index    int
}

// timerHeap is a min-heap by expireAt, implementing container/heap.Interface.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].expireAt.Before(h[j].expireAt) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Timer is the single-threaded min-heap of scheduled wake-ups and
// delayed messages (spec.md §4.G). Delivery is at-most-once per entry;
// an actor gone at expiry is silently dropped, never retried.
type Timer struct {
	registry  *Registry
	scheduler *Scheduler

	mu      sync.Mutex
	heap    timerHeap
	signal  chan struct{}
	stopped bool
}

// NewTimer builds a timer bound to the given registry and scheduler.
func NewTimer(registry *Registry, scheduler *Scheduler) *Timer {
	return &Timer{
		registry:  registry,
		scheduler: scheduler,
		signal:    make(chan struct{}, 1),
	}
}

func (t *Timer) wake() {
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

// WakeUp arms a TimerFired wake-up for pid after duration.
func (t *Timer) WakeUp(pid PID, duration time.Duration) {
	t.insert(pid, duration, SignalTimerFired{})
}

// Add arms a delayed Message delivery for pid after duration.
func (t *Timer) Add(pid PID, duration time.Duration, envelope any) {
	t.insert(pid, duration, SignalMessage{Envelope: envelope})
}

func (t *Timer) insert(pid PID, duration time.Duration, signal Signal) {
	t.mu.Lock()
	heap.Push(&t.heap, &timerEntry{
		pid:      pid,
		expireAt: time.Now().Add(duration),
		signal:   signal,
	})
	t.mu.Unlock()
	t.wake()
}

// Stop halts the timer's Run loop.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.wake()
}

// Run is the timer thread's body: it loops, delivering every expired
// entry and otherwise sleeping until the next expiry or a new entry
// arrives (spec.md §4.G).
func (t *Timer) Run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}

		now := time.Now()
		for t.heap.Len() > 0 && !t.heap[0].expireAt.After(now) {
			entry := heap.Pop(&t.heap).(*timerEntry)
			t.mu.Unlock()
			t.deliver(entry)
			t.mu.Lock()
			now = time.Now()
		}

		var wait time.Duration
		if t.heap.Len() > 0 {
			wait = t.heap[0].expireAt.Sub(now)
		} else {
			wait = time.Hour
		}
		t.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
		case <-t.signal:
		}
	}
}

// deliver sends signal to pid and schedules it; a gone PID is dropped
// silently and never retried (spec.md §4.G, §8).
func (t *Timer) deliver(entry *timerEntry) {
	actor, ok := t.registry.LookupPID(entry.pid)
	if !ok {
		return
	}
	actor.SendSignal(entry.signal)
	t.scheduler.Schedule(entry.pid)
}
