package actorcore

import (
	"hash/maphash"
	"sync"
)

// registryShards is the shard count for the PID->handle map
// (spec.md §4.A: "≈64 shards hashed by PID").
const registryShards = 64

type registryShard struct {
	mu      sync.RWMutex
	actors  map[PID]*HydratedActor
}

// Registry is the process-wide source of truth mapping PID to live actor
// handle, and name to PID. It is the single owner that breaks what would
// otherwise be actor<->actor reference cycles (spec.md §9).
type Registry struct {
	alloc  pidAllocator
	shards [registryShards]*registryShard
	seed   maphash.Seed

	namesMu sync.RWMutex
	names   map[string]PID
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		seed:  maphash.MakeSeed(),
		names: make(map[string]PID),
	}
	for i := range r.shards {
		r.shards[i] = &registryShard{actors: make(map[PID]*HydratedActor)}
	}
	return r
}

// AllocatePID allocates the next monotonic PID.
func (r *Registry) AllocatePID() PID { return r.alloc.allocate() }

func (r *Registry) shardFor(pid PID) *registryShard {
	var h maphash.Hash
	h.SetSeed(r.seed)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(pid >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return r.shards[h.Sum64()%registryShards]
}

// Add inserts a newly-constructed hydrated actor into the registry.
func (r *Registry) Add(actor *HydratedActor) {
	shard := r.shardFor(actor.ControlBlock.Pid)
	shard.mu.Lock()
	shard.actors[actor.ControlBlock.Pid] = actor
	shard.mu.Unlock()
}

// LookupPID returns the live handle for pid, if any.
func (r *Registry) LookupPID(pid PID) (*HydratedActor, bool) {
	shard := r.shardFor(pid)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	a, ok := shard.actors[pid]
	return a, ok
}

// Remove deregisters pid. After this, sends to pid are silently dropped.
func (r *Registry) Remove(pid PID) {
	shard := r.shardFor(pid)
	shard.mu.Lock()
	delete(shard.actors, pid)
	shard.mu.Unlock()
}

// RemoveAll clears every actor, used by Scheduler.StopAll.
func (r *Registry) RemoveAll() {
	for _, shard := range r.shards {
		shard.mu.Lock()
		shard.actors = make(map[PID]*HydratedActor)
		shard.mu.Unlock()
	}
}

// Register (re)binds name to pid. Last writer wins; names are never
// garbage collected within a run (spec.md §3).
func (r *Registry) Register(name string, pid PID) {
	r.namesMu.Lock()
	r.names[name] = pid
	r.namesMu.Unlock()
}

// LookupName resolves a registered name to a PID.
func (r *Registry) LookupName(name string) (PID, bool) {
	r.namesMu.RLock()
	defer r.namesMu.RUnlock()
	pid, ok := r.names[name]
	return pid, ok
}

// Resolve turns any Ref into a concrete PID (InvalidPID if unresolvable).
func (r *Registry) Resolve(ref Ref) PID {
	if ref == nil {
		return InvalidPID
	}
	return ref.resolve(r)
}
