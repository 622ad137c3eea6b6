package actorcore

import (
	"fmt"
	"sync/atomic"
)

// PID is an opaque, monotonically allocated process identifier.
// PIDs are never reused within a run.
type PID uint64

// InvalidPID is the sentinel returned by lookups that found nothing.
const InvalidPID PID = ^PID(0)

// Valid reports whether the PID is not the invalid sentinel.
func (p PID) Valid() bool { return p != InvalidPID }

func (p PID) String() string {
	if p == InvalidPID {
		return "pid(invalid)"
	}
	return fmt.Sprintf("pid(%d)", uint64(p))
}

// Ref is anything that can be resolved to a PID against a Registry.
// A raw PID resolves to itself; a Name is looked up in the registry's
// name table. This generalizes spec.md's "to a PID" API to also accept
// registered names, following original_source/src/actor/references.rs.
type Ref interface {
	resolve(r *Registry) PID
}

// Name is a registered, process-wide actor name.
type Name string

func (p PID) resolve(*Registry) PID { return p }

func (n Name) resolve(r *Registry) PID {
	if pid, ok := r.LookupName(string(n)); ok {
		return pid
	}
	return InvalidPID
}

type pidAllocator struct {
	counter uint64
}

func (a *pidAllocator) allocate() PID {
	return PID(atomic.AddUint64(&a.counter, 1) - 1)
}
