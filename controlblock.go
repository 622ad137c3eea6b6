package actorcore

import (
	"sync"
	"sync/atomic"
)

// maxFastLinks is the cardinality of the control block's fast-path link
// array before an actor's links spill into the overflow slice
// (spec.md §3, original_source/src/actor/control_block.rs: MAX_LINKS=32).
const maxFastLinks = 32

// cachePad keeps hot atomics that are written from arbitrary threads on
// their own cache line, per spec.md §5 "Cache hygiene".
type cachePad [128 - 8]byte

// ControlBlock is the actor control block (ACB): the subset of an actor's
// state that is exclusively owned by the hydrated actor but read from
// arbitrary threads (spec.md §3).
type ControlBlock struct {
	Pid PID

	trapExit    atomic.Bool
	_           cachePad
	isScheduled atomic.Bool
	_           cachePad
	isRunning   atomic.Bool
	_           cachePad
	workerID    atomic.Int64

	linksMu   sync.RWMutex
	links     [maxFastLinks]PID
	linksOvf  []PID

	metaMu   sync.RWMutex
	metadata map[string]any
}

// NewControlBlock builds a fresh ACB for pid, homed on worker affinity.
func NewControlBlock(pid PID, workerID int) *ControlBlock {
	cb := &ControlBlock{Pid: pid, metadata: make(map[string]any)}
	for i := range cb.links {
		cb.links[i] = InvalidPID
	}
	cb.workerID.Store(int64(workerID))
	return cb
}

// TryScheduleCAS flips isScheduled false->true, reporting success. Callers
// that win may push the PID into a run queue.
func (cb *ControlBlock) TryScheduleCAS() bool {
	return cb.isScheduled.CompareAndSwap(false, true)
}

// ClearScheduled marks the PID as no longer sitting in any run queue.
func (cb *ControlBlock) ClearScheduled() { cb.isScheduled.Store(false) }

func (cb *ControlBlock) IsScheduled() bool { return cb.isScheduled.Load() }

func (cb *ControlBlock) SetRunning(v bool) { cb.isRunning.Store(v) }

func (cb *ControlBlock) IsRunning() bool { return cb.isRunning.Load() }

func (cb *ControlBlock) WorkerID() int { return int(cb.workerID.Load()) }

func (cb *ControlBlock) SetWorkerID(id int) { cb.workerID.Store(int64(id)) }

func (cb *ControlBlock) TrapExit() bool { return cb.trapExit.Load() }

func (cb *ControlBlock) SetTrapExit(v bool) { cb.trapExit.Store(v) }

// AddLink inserts pid into the link set, using the overflow list once the
// fast-path array is full. Always succeeds (spec.md §7: "best-effort
// boolean" is kept for API symmetry but overflow means it never actually
// fails in this implementation).
func (cb *ControlBlock) AddLink(pid PID) bool {
	cb.linksMu.Lock()
	defer cb.linksMu.Unlock()

	for i := range cb.links {
		if cb.links[i] == InvalidPID {
			cb.links[i] = pid
			return true
		}
	}
	cb.linksOvf = append(cb.linksOvf, pid)
	return true
}

// RemoveLink removes pid from the link set if present.
func (cb *ControlBlock) RemoveLink(pid PID) bool {
	cb.linksMu.Lock()
	defer cb.linksMu.Unlock()

	for i := range cb.links {
		if cb.links[i] == pid {
			cb.links[i] = InvalidPID
			return true
		}
	}
	for i, p := range cb.linksOvf {
		if p == pid {
			cb.linksOvf = append(cb.linksOvf[:i], cb.linksOvf[i+1:]...)
			return true
		}
	}
	return false
}

// Links returns a snapshot of every currently-linked PID.
func (cb *ControlBlock) Links() []PID {
	cb.linksMu.RLock()
	defer cb.linksMu.RUnlock()

	out := make([]PID, 0, maxFastLinks)
	for _, p := range cb.links {
		if p != InvalidPID {
			out = append(out, p)
		}
	}
	out = append(out, cb.linksOvf...)
	return out
}

// SetMetadata stores a scalar value under key.
func (cb *ControlBlock) SetMetadata(key string, value any) {
	cb.metaMu.Lock()
	cb.metadata[key] = value
	cb.metaMu.Unlock()
}

// Metadata reads a scalar value stored under key.
func (cb *ControlBlock) Metadata(key string) (any, bool) {
	cb.metaMu.RLock()
	defer cb.metaMu.RUnlock()
	v, ok := cb.metadata[key]
	return v, ok
}

// SnapshotMetadata copies the whole metadata map, used when a spawning
// actor's metadata is inherited by its child (spec.md §9 "Metadata
// inheritance").
func (cb *ControlBlock) SnapshotMetadata() map[string]any {
	cb.metaMu.RLock()
	defer cb.metaMu.RUnlock()
	out := make(map[string]any, len(cb.metadata))
	for k, v := range cb.metadata {
		out[k] = v
	}
	return out
}

// restoreMetadata bulk-loads metadata, used right after construction to
// apply an inherited snapshot.
func (cb *ControlBlock) restoreMetadata(m map[string]any) {
	cb.metaMu.Lock()
	defer cb.metaMu.Unlock()
	for k, v := range m {
		cb.metadata[k] = v
	}
}
