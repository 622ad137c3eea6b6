package actorcore

// Signal is the only thing the inbox transports (spec.md §3).
type Signal interface {
	signal()
}

// SignalExit notifies a linked actor that `From` terminated with `Reason`.
type SignalExit struct {
	From   PID
	Reason ExitReason
}

func (SignalExit) signal() {}

// SignalKill forces unconditional termination at the next poll.
type SignalKill struct{}

func (SignalKill) signal() {}

// SignalLink adds PID to the receiver's link set.
type SignalLink struct{ PID PID }

func (SignalLink) signal() {}

// SignalUnlink removes PID from the receiver's link set.
type SignalUnlink struct{ PID PID }

func (SignalUnlink) signal() {}

// SignalTimerFired wakes a poll with no other effect; its purpose was
// only to cause a re-poll (used by Sleep).
type SignalTimerFired struct{}

func (SignalTimerFired) signal() {}

// SignalMessage carries an opaque message envelope destined for the
// actor's message queue.
type SignalMessage struct{ Envelope any }

func (SignalMessage) signal() {}

// TrapExitMessage is what a trapped SignalExit becomes once placed on the
// message queue of an actor with TrapExit(true) set. Named to match
// original_source/src/actor.rs's TrapExitMessage (see SPEC_FULL.md).
type TrapExitMessage struct {
	Pid    PID
	Reason ExitReason
}
