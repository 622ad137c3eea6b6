package actorcore

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
)

// maxWorkerSlots bounds the scheduler's worker array (spec.md §4.F uses
// 128 in original_source/src/scheduler.rs).
const maxWorkerSlots = 128

// balanceMargin is added to the mean run-queue length to get the
// balancer's target, smoothing out noise around the mean (spec.md §4.F).
const balanceMargin = 4

type slotState int

const (
	slotEmpty slotState = iota
	slotReserved
	slotActive
)

type workerSlot struct {
	mu    sync.RWMutex
	state slotState
	w     *Worker
}

// Scheduler owns the worker array and pushes PIDs into run queues
// (spec.md §4.F); the only other writer is a worker re-queuing an actor
// it has just polled (Worker.runActor).
type Scheduler struct {
	registry *Registry

	count  atomic.Int64
	slots  [maxWorkerSlots]*workerSlot
	stopped atomic.Bool

	balancing atomic.Bool
}

// NewScheduler builds a scheduler bound to registry.
func NewScheduler(registry *Registry) *Scheduler {
	s := &Scheduler{registry: registry}
	for i := range s.slots {
		s.slots[i] = &workerSlot{}
	}
	return s
}

// AllocateSlot reserves the next worker slot and returns its id.
func (s *Scheduler) AllocateSlot() WorkerID {
	idx := s.count.Add(1) - 1
	slot := s.slots[idx]
	slot.mu.Lock()
	slot.state = slotReserved
	slot.mu.Unlock()
	return WorkerID(idx)
}

// ReplaceSlot installs the active worker for a previously-reserved id.
func (s *Scheduler) ReplaceSlot(id WorkerID, w *Worker) {
	slot := s.slots[id]
	slot.mu.Lock()
	slot.state = slotActive
	slot.w = w
	slot.mu.Unlock()
}

// GetWorker returns the active worker for id, if any.
func (s *Scheduler) GetWorker(id WorkerID) (*Worker, bool) {
	if int(id) < 0 || int(id) >= maxWorkerSlots {
		return nil, false
	}
	slot := s.slots[id]
	slot.mu.RLock()
	defer slot.mu.RUnlock()
	if slot.state != slotActive {
		return nil, false
	}
	return slot.w, true
}

func (s *Scheduler) activeWorkerCount() int {
	return int(s.count.Load())
}

// WakeWorker unparks the given worker, if active.
func (s *Scheduler) WakeWorker(id WorkerID) {
	if w, ok := s.GetWorker(id); ok {
		w.Unpark()
	}
}

// Schedule looks up pid's ACB, CASes is_scheduled false->true, and on
// success pushes pid onto its home worker's run queue and wakes it
// (spec.md §4.F).
func (s *Scheduler) Schedule(pid PID) {
	if s.stopped.Load() {
		return
	}

	actor, ok := s.registry.LookupPID(pid)
	if !ok {
		return
	}

	cb := actor.ControlBlock
	workerID := WorkerID(cb.WorkerID())

	if !cb.TryScheduleCAS() {
		return
	}

	w, ok := s.GetWorker(workerID)
	if !ok {
		log.Printf("actorcore: pid %s assigned to invalid worker %d", pid, workerID)
		cb.ClearScheduled()
		return
	}

	w.RunQueue.Push(pid)
	w.Unpark()
}

// TrySteal ring-walks workers starting at self+1, popping the first PID
// whose actor is not currently running and reassigning its worker
// affinity to self (spec.md §4.E step 5, §4.F).
func (s *Scheduler) TrySteal(self WorkerID) (PID, bool) {
	count := s.activeWorkerCount()
	if count <= 1 {
		return InvalidPID, false
	}

	for i := 1; i < count; i++ {
		id := WorkerID((int(self) + i) % count)
		w, ok := s.GetWorker(id)
		if !ok {
			continue
		}

		pid, ok := w.RunQueue.TryPop()
		if !ok {
			continue
		}

		actor, ok := s.registry.LookupPID(pid)
		if !ok {
			continue
		}

		if actor.ControlBlock.IsRunning() {
			// Steal is a no-op on a running actor: return it to its
			// origin queue (spec.md §8 boundary behavior).
			w.RunQueue.Push(pid)
			continue
		}

		actor.ControlBlock.SetWorkerID(int(self))
		return pid, true
	}

	return InvalidPID, false
}

// TryBalance runs the load balancer, guarded so at most one balance pass
// runs at a time (spec.md §4.F).
func (s *Scheduler) TryBalance(self WorkerID) bool {
	if !s.balancing.CompareAndSwap(false, true) {
		return false
	}
	defer s.balancing.Store(false)

	count := s.activeWorkerCount()
	if count == 0 {
		return true
	}

	type observed struct {
		id     WorkerID
		w      *Worker
		length int64
	}

	workers := make([]observed, 0, count)
	var sum int64
	for i := 0; i < count; i++ {
		w, ok := s.GetWorker(WorkerID(i))
		if !ok {
			continue
		}
		length := w.MaxObservedLength()
		workers = append(workers, observed{id: WorkerID(i), w: w, length: length})
		sum += length
	}
	if len(workers) == 0 {
		return true
	}

	target := sum/int64(len(workers)) + balanceMargin

	sort.SliceStable(workers, func(i, j int) bool {
		if workers[i].length != workers[j].length {
			return workers[i].length < workers[j].length
		}
		return workers[i].id < workers[j].id
	})

	params := make(map[WorkerID]MigrationParams, len(workers))
	for _, w := range workers {
		params[w.id] = MigrationParams{Mode: MigrationNone}
	}

	lo, hi := 0, len(workers)-1
	for lo < hi {
		below := workers[lo]
		above := workers[hi]

		if below.length >= target || above.length < target {
			break
		}

		params[below.id] = MigrationParams{Target: int(above.id), Mode: MigrationPull, Balance: int(target)}
		params[above.id] = MigrationParams{Target: int(below.id), Mode: MigrationPush, Balance: int(target)}

		lo++
		hi--
	}

	for _, w := range workers {
		w.w.ResetBalanceWindow(params[w.id])
	}

	return true
}

// TryPush attempts to hand one non-running actor from self's queue to
// the migration target's queue.
func (s *Scheduler) TryPush(self WorkerID, params MigrationParams) bool {
	return s.migrate(self, WorkerID(params.Target), int64(params.Balance))
}

// TryPull attempts the reverse of TryPush: take one non-running actor
// from the migration target's queue into self's.
func (s *Scheduler) TryPull(self WorkerID, params MigrationParams) bool {
	return s.migrate(WorkerID(params.Target), self, int64(params.Balance))
}

// migrate moves at most one non-running actor from `from` to `to`,
// provided from's current length exceeds balance and to's is below it
// (spec.md §4.F "Push/pull rule").
func (s *Scheduler) migrate(from, to WorkerID, balance int64) bool {
	fromW, ok := s.GetWorker(from)
	if !ok {
		return false
	}
	toW, ok := s.GetWorker(to)
	if !ok {
		return false
	}

	if int64(fromW.RunQueue.Len()) <= balance || int64(toW.RunQueue.Len()) >= balance {
		return false
	}

	pid, ok := fromW.RunQueue.TryPop()
	if !ok {
		return false
	}

	actor, ok := s.registry.LookupPID(pid)
	if !ok {
		toW.RunQueue.Push(pid)
		return false
	}

	if actor.ControlBlock.IsRunning() {
		fromW.RunQueue.Push(pid)
		return false
	}

	actor.ControlBlock.SetWorkerID(int(to))
	toW.RunQueue.Push(pid)
	toW.Unpark()
	return true
}

// StopAll marks every worker non-running, wakes them, clears the
// registry, and marks the scheduler stopped. No new scheduling is
// accepted afterward (spec.md §4.F, §7).
func (s *Scheduler) StopAll() {
	count := s.activeWorkerCount()
	for i := 0; i < count; i++ {
		if w, ok := s.GetWorker(WorkerID(i)); ok {
			w.Stop()
		}
	}
	s.registry.RemoveAll()
	s.stopped.Store(true)
}

// Stopped reports whether StopAll has been called.
func (s *Scheduler) Stopped() bool { return s.stopped.Load() }
