package actorcore

import (
	"fmt"
	"runtime/debug"
)

// actorPhase tracks the three-phase user-state lifecycle from spec.md
// §3: Waiting(factory) -> Running(task) -> Terminated.
type actorPhase int

const (
	phaseWaiting actorPhase = iota
	phaseRunning
	phaseTerminated
)

// pollStep is what the actor's dedicated goroutine sends back to poll()
// when it suspends or terminates.
type pollStep struct {
	done   bool
	reason ExitReason
}

// HydratedActor is the triple {ControlBlock, mailbox, user-state} from
// spec.md §3. Its Poll method is the single entry point a worker uses to
// advance the actor by one turn.
//
// The user task runs on its own dedicated goroutine (see SPEC_FULL.md's
// "stackless coroutine -> goroutine + handshake channel" translation
// note): Poll hands control to that goroutine via resumeCh and blocks on
// yieldCh until the task suspends at a Context.Receive/Sleep/YieldNow
// call or returns an ExitReason.
type HydratedActor struct {
	ControlBlock *ControlBlock
	Inbox        *inbox
	Queue        *messageQueue

	factory Factory
	ctx     *Context

	phase    actorPhase
	started  bool
	resumeCh chan struct{}
	yieldCh  chan pollStep
	abortCh  chan struct{}
}

// abortSignal is the panic value suspend() raises when abortCh fires. It
// unwinds the actor's dedicated goroutine out of a Context suspension
// point without the goroutine ever reaching its own yieldCh send again,
// since the Poll call that triggered the abort has already returned.
type abortSignal struct{}

// NewHydratedActor builds an actor ready to be registered and scheduled.
// system must not be nil; it is threaded through to the Context so the
// actor's own goroutine can call back into Send/Spawn/Schedule/etc.
func NewHydratedActor(system *System, cb *ControlBlock, factory Factory) *HydratedActor {
	h := &HydratedActor{
		ControlBlock: cb,
		Inbox:        newInbox(),
		Queue:        newMessageQueue(),
		factory:      factory,
		phase:        phaseWaiting,
		resumeCh:     make(chan struct{}),
		yieldCh:      make(chan pollStep),
		abortCh:      make(chan struct{}),
	}
	h.ctx = &Context{actor: h, system: system}
	return h
}

// SendSignal pushes a signal into the actor's inbox. Never fails.
func (h *HydratedActor) SendSignal(s Signal) { h.Inbox.push(s) }

// HasMessages reports whether the inbox still holds unconsumed signals.
func (h *HydratedActor) HasMessages() bool { return !h.Inbox.isEmpty() }

// Links returns a snapshot of the actor's current link set.
func (h *HydratedActor) Links() []PID { return h.ControlBlock.Links() }

// Poll drains at most one signal, then steps the user task once.
// It returns (reason, true) if the actor terminated this call, or
// (nil, false) if it is still alive.
func (h *HydratedActor) Poll() (ExitReason, bool) {
	if h.phase == phaseTerminated {
		return nil, false
	}

	if sig, ok := h.Inbox.pop(); ok {
		if reason, terminate := h.applySignal(sig); terminate {
			if h.phase == phaseRunning {
				// The goroutine is parked inside suspend(), blocked on
				// resumeCh (between polls in phaseRunning it always is).
				// Closing abortCh makes its select fire
				// the abort branch instead, unwinding it via panic/
				// recover so it never leaks blocked forever.
				close(h.abortCh)
			}
			h.phase = phaseTerminated
			return reason, true
		}
	}

	if h.phase == phaseWaiting {
		h.phase = phaseRunning
		h.started = true
		go h.run()
	}

	h.ctx.budget = 0
	h.resumeCh <- struct{}{}
	step := <-h.yieldCh

	if step.done {
		h.phase = phaseTerminated
		return step.reason, true
	}
	return nil, false
}

// applySignal implements spec.md §4.C step 1's per-signal reaction.
func (h *HydratedActor) applySignal(sig Signal) (reason ExitReason, terminate bool) {
	switch s := sig.(type) {
	case SignalExit:
		h.ControlBlock.RemoveLink(s.From)
		if h.ControlBlock.TrapExit() {
			h.Queue.push(TrapExitMessage{Pid: s.From, Reason: s.Reason})
		} else if !s.Reason.Equal(ExitNormal{}) {
			return s.Reason, true
		}
	case SignalKill:
		return ExitKilled{}, true
	case SignalLink:
		h.ControlBlock.AddLink(s.PID)
	case SignalUnlink:
		h.ControlBlock.RemoveLink(s.PID)
	case SignalTimerFired:
		// No-op: its purpose was only to cause a re-poll.
	case SignalMessage:
		h.Queue.push(s.Envelope)
	}
	return nil, false
}

// run is the body of the actor's dedicated goroutine. It blocks for the
// first resume signal (keeping the actor in phaseWaiting's semantics
// until a worker actually polls it), builds the task from the factory,
// and recovers panics into ExitPanic, matching the teacher's
// bollywood/process.go panic-recovery texture.
func (h *HydratedActor) run() {
	<-h.resumeCh

	var reason ExitReason
	aborted := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(abortSignal); ok {
					aborted = true
					return
				}
				reason = ExitPanic{Stack: fmt.Sprintf("%v\n%s", r, debug.Stack())}
			}
		}()
		entry := h.factory()
		reason = entry(h.ctx)
	}()

	if aborted {
		// Poll already transitioned the actor to phaseTerminated and
		// returned synchronously when it closed abortCh; nothing is
		// listening on yieldCh anymore.
		return
	}
	h.yieldCh <- pollStep{done: true, reason: reason}
}

// suspend is called from inside the actor's own goroutine at every
// Context suspension point. It hands control back to whichever worker is
// polling and blocks until the next Poll call resumes it, or unwinds via
// abortSignal if Poll instead terminated the actor from a signal while it
// was parked here.
func (h *HydratedActor) suspend() {
	h.yieldCh <- pollStep{done: false}
	select {
	case <-h.resumeCh:
	case <-h.abortCh:
		panic(abortSignal{})
	}
}
