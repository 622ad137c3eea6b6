package actorcore

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerID identifies a worker slot in the Scheduler.
type WorkerID int

// initialReductions is the "large constant" reduction budget the
// balancer resets workers to after each balancing pass (spec.md §4.F).
const initialReductions = 2_000_000

// Worker owns one run queue and runs actor turns for whichever PIDs land
// in it, stealing from peers and parking when idle (spec.md §4.E).
type Worker struct {
	ID       WorkerID
	RunQueue *RunQueue

	running atomic.Bool

	reductions        atomic.Int64
	_                 cachePad
	maxObservedLength atomic.Int64
	_                 cachePad
	migration         migrationSlot

	park     chan struct{}
	parkOnce sync.Once
	unparked atomic.Bool
}

// NewWorker builds a worker in the running state with a fresh run queue.
func NewWorker(id WorkerID) *Worker {
	w := &Worker{
		ID:       id,
		RunQueue: NewRunQueue(),
		park:     make(chan struct{}, 1),
	}
	w.running.Store(true)
	w.reductions.Store(initialReductions)
	return w
}

// Unpark wakes a parked worker's run loop.
func (w *Worker) Unpark() {
	select {
	case w.park <- struct{}{}:
	default:
	}
}

func (w *Worker) parkSelf() {
	<-w.park
}

// Stop marks the worker non-running and wakes it so Run can return.
func (w *Worker) Stop() {
	w.running.Store(false)
	w.Unpark()
}

// MaxObservedLength returns the largest run-queue length seen since the
// last balancer reset.
func (w *Worker) MaxObservedLength() int64 { return w.maxObservedLength.Load() }

// ResetBalanceWindow resets reductions and the observed-length high-water
// mark, and stores the computed migration directive. Called once per
// worker by the balancer (spec.md §4.F).
func (w *Worker) ResetBalanceWindow(params MigrationParams) {
	w.migration.Store(params)
	w.maxObservedLength.Store(0)
	w.reductions.Store(initialReductions)
	w.Unpark()
}

// Run is the worker's main loop (spec.md §4.E). It returns once Running
// has been cleared and the worker observes it.
func (w *Worker) Run(system *System) {
	for w.running.Load() {
		if length := int64(w.RunQueue.Len()); length > w.maxObservedLength.Load() {
			w.maxObservedLength.Store(length)
		}

		if w.reductions.Add(-1) <= 0 {
			if system.Scheduler.TryBalance(w.ID) {
				// Reductions were reset for every worker, including us.
			}
		}

		params := w.migration.LoadForPush()
		switch params.Mode {
		case MigrationPush:
			system.Scheduler.TryPush(w.ID, params)
		case MigrationPull:
			system.Scheduler.TryPull(w.ID, params)
		}

		if pid, ok := w.RunQueue.TryPop(); ok {
			w.runActor(system, pid)
			continue
		}

		if pid, ok := system.Scheduler.TrySteal(w.ID); ok {
			w.runActor(system, pid)
			continue
		}

		w.parkSelf()
	}
}

// runActor polls one actor to completion of a single turn, applying the
// scheduling-invariant dance around is_scheduled/is_running and, on
// termination, fanning exit signals out to the link set (spec.md §4.E
// "Termination of an actor inside run_actor").
func (w *Worker) runActor(system *System, pid PID) {
	actor, ok := system.Registry.LookupPID(pid)
	if !ok {
		return
	}

	cb := actor.ControlBlock
	cb.ClearScheduled()
	cb.SetRunning(true)

	reason, terminated := actor.Poll()

	cb.SetRunning(false)

	if !terminated {
		if actor.HasMessages() && cb.TryScheduleCAS() {
			w.RunQueue.Push(pid)
		}
		return
	}

	log.Printf("actorcore: actor %s exited: %s", pid, reason)

	links := actor.Links()
	system.Registry.Remove(pid)

	for _, linked := range links {
		if child, ok := system.Registry.LookupPID(linked); ok {
			child.SendSignal(SignalExit{From: pid, Reason: reason})
			system.Scheduler.Schedule(linked)
		}
	}
}

// AvailableParallelism mirrors Rust's std::thread::available_parallelism,
// clamped >= 1 (spec.md §6).
func AvailableParallelism() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
