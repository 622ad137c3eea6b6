package actorcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AddLookupRemove(t *testing.T) {
	r := NewRegistry()
	pid := r.AllocatePID()
	cb := NewControlBlock(pid, 0)
	actor := NewHydratedActor(nil, cb, func() ActorFunc { return nil })

	r.Add(actor)
	got, ok := r.LookupPID(pid)
	assert.True(t, ok)
	assert.Same(t, actor, got)

	r.Remove(pid)
	_, ok = r.LookupPID(pid)
	assert.False(t, ok)
}

func TestRegistry_RemoveAllClearsEveryShard(t *testing.T) {
	r := NewRegistry()
	pids := make([]PID, 0, 200)
	for i := 0; i < 200; i++ {
		pid := r.AllocatePID()
		cb := NewControlBlock(pid, 0)
		r.Add(NewHydratedActor(nil, cb, func() ActorFunc { return nil }))
		pids = append(pids, pid)
	}

	r.RemoveAll()
	for _, pid := range pids {
		_, ok := r.LookupPID(pid)
		assert.False(t, ok)
	}
}

func TestRegistry_RegisterLastWriterWins(t *testing.T) {
	r := NewRegistry()
	a, b := r.AllocatePID(), r.AllocatePID()

	r.Register("svc", a)
	assert.Equal(t, a, r.Resolve(Name("svc")))

	r.Register("svc", b)
	assert.Equal(t, b, r.Resolve(Name("svc")))
}
