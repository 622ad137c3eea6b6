package actorcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingBehavior struct {
	DefaultBehavior
	received int
	done     chan int
}

func (b *countingBehavior) Handle(ctx *Context, message any) ExitReason {
	n, ok := message.(int)
	if !ok {
		return nil
	}
	b.received += n
	if b.received >= 10 {
		b.done <- b.received
		return ExitNormal{}
	}
	return nil
}

func TestFromBehavior_DispatchesMessagesUntilExit(t *testing.T) {
	done := make(chan int, 1)

	runScenario(func(ctx *Context) {
		pid := ctx.Spawn(FromBehavior(func() Behavior {
			return &countingBehavior{done: done}
		}))
		ctx.Send(pid, 4)
		ctx.Send(pid, 4)
		ctx.Send(pid, 4)
		ctx.Sleep(100 * time.Millisecond)
	})

	select {
	case total := <-done:
		assert.Equal(t, 12, total)
	case <-time.After(2 * time.Second):
		t.Fatal("behavior never reached its exit condition")
	}
}

// linkingBehavior links itself to a child that fails immediately, and
// reports the exit it observes through OnExit.
type linkingBehavior struct {
	DefaultBehavior
	observed chan ExitReason
}

func (b *linkingBehavior) Started(ctx *Context) ExitReason {
	ctx.SpawnLinked(func() ActorFunc {
		return func(*Context) ExitReason { return ExitError{Err: assertErr{"linked failure"}} }
	})
	return nil
}

func (b *linkingBehavior) Handle(*Context, any) ExitReason { return nil }

func (b *linkingBehavior) OnExit(ctx *Context, from PID, reason ExitReason) ExitReason {
	b.observed <- reason
	return reason
}

func TestFromBehavior_OnExitReceivesLinkedChildFailure(t *testing.T) {
	observed := make(chan ExitReason, 1)

	runScenario(func(ctx *Context) {
		ctx.Spawn(FromBehavior(func() Behavior {
			return &linkingBehavior{observed: observed}
		}))
		ctx.Sleep(100 * time.Millisecond)
	})

	select {
	case reason := <-observed:
		_, isErr := reason.(ExitError)
		assert.True(t, isErr)
	case <-time.After(2 * time.Second):
		t.Fatal("OnExit never observed the linked child's failure")
	}
}
