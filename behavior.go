package actorcore

// ActorFunc is a hydrated actor's user task: a function that runs on the
// actor's dedicated goroutine, suspending at Context.Receive/Sleep/
// YieldNow calls, and returning the ExitReason the actor terminates with.
type ActorFunc func(ctx *Context) ExitReason

// Factory builds a fresh ActorFunc. It is invoked once, lazily, on the
// actor's own goroutine at the first poll (the Waiting->Running
// transition of spec.md §4.C), so that both construction and execution
// panics are caught at the same poll boundary.
type Factory func() ActorFunc

// Behavior is the Go analogue of original_source/src/async_actor.rs's
// SimpleActor: a convenience interface for authors who prefer a
// mailbox-loop-per-message style over hand-writing the receive loop.
// FromBehavior adapts it into a Factory.
type Behavior interface {
	// Started runs once before the receive loop. Returning a non-nil
	// reason terminates the actor immediately.
	Started(ctx *Context) ExitReason
	// Handle processes one user message. Returning a non-nil reason
	// terminates the actor.
	Handle(ctx *Context, message any) ExitReason
	// OnExit handles a trapped exit from a linked actor. The default
	// behavior (when embedding DefaultBehavior) is to ignore a Normal exit
	// and terminate with any other reason, matching spec.md's non-trapping
	// default.
	OnExit(ctx *Context, from PID, reason ExitReason) ExitReason
}

// DefaultBehavior supplies a no-op Started and OnExit's usual default so
// concrete behaviors only need to implement Handle.
type DefaultBehavior struct{}

func (DefaultBehavior) Started(*Context) ExitReason { return nil }

func (DefaultBehavior) OnExit(_ *Context, _ PID, reason ExitReason) ExitReason {
	if reason.Equal(ExitNormal{}) {
		return nil
	}
	return reason
}

// FromBehavior turns a Behavior into a Factory whose ActorFunc traps
// exits, dispatches TrapExitMessage and plain messages to OnExit/Handle,
// and returns as soon as either reports a non-nil ExitReason.
func FromBehavior(newBehavior func() Behavior) Factory {
	return func() ActorFunc {
		return func(ctx *Context) ExitReason {
			b := newBehavior()
			ctx.TrapExit(true)

			if reason := b.Started(ctx); reason != nil {
				return reason
			}

			for {
				msg, _ := ctx.Receive(nil, func(any) bool { return true })
				switch m := msg.(type) {
				case TrapExitMessage:
					if reason := b.OnExit(ctx, m.Pid, m.Reason); reason != nil {
						return reason
					}
				default:
					if reason := b.Handle(ctx, msg); reason != nil {
						return reason
					}
				}
			}
		}
	}
}
