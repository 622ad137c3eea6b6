package actorcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPID_ValidAndInvalid(t *testing.T) {
	assert.True(t, PID(0).Valid())
	assert.False(t, InvalidPID.Valid())
	assert.Equal(t, "pid(invalid)", InvalidPID.String())
	assert.Equal(t, "pid(7)", PID(7).String())
}

func TestPidAllocator_MonotonicNeverReused(t *testing.T) {
	var alloc pidAllocator
	seen := make(map[PID]bool)
	for i := 0; i < 1000; i++ {
		pid := alloc.allocate()
		assert.False(t, seen[pid], "pid %s reused", pid)
		seen[pid] = true
	}
}

func TestName_ResolveAgainstRegistry(t *testing.T) {
	r := NewRegistry()
	pid := r.AllocatePID()
	r.Register("worker", pid)

	assert.Equal(t, pid, r.Resolve(Name("worker")))
	assert.Equal(t, InvalidPID, r.Resolve(Name("missing")))
	assert.Equal(t, pid, r.Resolve(pid))
	assert.Equal(t, InvalidPID, r.Resolve(nil))
}
