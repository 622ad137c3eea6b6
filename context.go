package actorcore

import "time"

// maxBudget is the cooperative-preemption threshold from spec.md §4.C:
// "initial value 0, max 16".
const maxBudget = 16

// Context is the actor-facing API (spec.md §4.H). Rust's thread-local
// GlobalContext pointer has no clean Go analogue, so this module threads
// an explicit *Context into each actor's entry function instead — see
// SPEC_FULL.md's Go-native translation note. All context-API operations
// below are methods on *Context and implicitly target "the current
// actor", i.e. the actor this Context was built for.
type Context struct {
	actor  *HydratedActor
	system *System
	budget int
}

// Pid returns the current actor's PID.
func (c *Context) Pid() PID { return c.actor.ControlBlock.Pid }

// WorkerID returns the id of the worker currently running this actor.
// Actors inherit their spawning parent's worker affinity at spawn time
// (system.spawn) and may later migrate via steal/balance (spec.md §4.E/F)
// — this exposes that affinity for observability and tests.
func (c *Context) WorkerID() int { return c.actor.ControlBlock.WorkerID() }

// System returns the process-wide System this actor runs under, for
// components that must inject signals from outside the poll loop (e.g.
// internal/port's background socket-reader goroutine).
func (c *Context) System() *System { return c.system }

// chargeBudget spends n budget units. When the running total reaches
// maxBudget, the actor reschedules itself and suspends once — this is
// the system's cooperative preemption point (spec.md §4.C "Budget").
func (c *Context) chargeBudget(n int) {
	c.budget += n
	if c.budget >= maxBudget {
		c.budget = 0
		c.system.Scheduler.Schedule(c.Pid())
		c.actor.suspend()
	}
}

// Stop halts the whole system (spec.md §4.H / §7 "stop()").
func (c *Context) Stop() { c.system.Scheduler.StopAll() }

// Register binds name to pid in the process-wide name table.
func (c *Context) Register(name string, pid PID) { c.system.Registry.Register(name, pid) }

// TrapExit toggles this actor's trap-exit flag.
func (c *Context) TrapExit(shouldTrap bool) {
	c.actor.ControlBlock.SetTrapExit(shouldTrap)
}

// Sleep suspends the current actor until at least duration has elapsed.
func (c *Context) Sleep(duration time.Duration) {
	c.chargeBudget(1)

	c.system.Timer.WakeUp(c.Pid(), duration)
	start := time.Now()
	for time.Since(start) < duration {
		c.actor.suspend()
	}
}

// SendSignal delivers a raw signal to `to`. A lookup miss drops it
// silently.
func (c *Context) SendSignal(to PID, signal Signal) {
	if actor, ok := c.system.Registry.LookupPID(to); ok {
		actor.SendSignal(signal)
		c.system.Scheduler.Schedule(to)
	}
}

// Exit delivers an Exit(to, reason) signal to the actor resolved by ref
// (spec.md §4.H "exit(to, reason)"), grounded the same way SendSignal is
// on the Rust source's free-function send_signal (global.rs). The signal
// names the target itself as its sender, so the target keeps its links:
// unless it traps exits it terminates with reason (a Normal reason is
// ignored), and its linked actors, the caller included when linked, then
// receive its exit as usual. If ref resolves to the caller itself, the
// actor yields immediately afterward so the self-targeted signal is
// applied on its very next poll.
func (c *Context) Exit(ref Ref, reason ExitReason) {
	pid := c.system.Registry.Resolve(ref)
	c.SendSignal(pid, SignalExit{From: pid, Reason: reason})
	if pid == c.Pid() {
		c.actor.suspend()
	}
}

// Schedule hands a message to the timer for delayed delivery to `to`.
func (c *Context) Schedule(to PID, message any, delay time.Duration) {
	c.chargeBudget(1)
	c.system.Timer.Add(to, delay, message)
}

// Send delivers message to the actor resolved by ref. A lookup miss
// (including an unresolvable name) drops the message silently.
func (c *Context) Send(ref Ref, message any) {
	c.chargeBudget(1)

	pid := c.system.Registry.Resolve(ref)
	if actor, ok := c.system.Registry.LookupPID(pid); ok {
		actor.SendSignal(SignalMessage{Envelope: message})
		c.system.Scheduler.Schedule(pid)
	}
}

// Spawn allocates a new actor from factory, inheriting this actor's
// worker affinity and a snapshot of its metadata, and schedules it.
func (c *Context) Spawn(factory Factory) PID {
	c.chargeBudget(1)
	return c.system.spawn(factory, c.actor.ControlBlock, nil)
}

// SpawnLinked is Spawn plus adding each side to the other's link set
// before scheduling the child.
func (c *Context) SpawnLinked(factory Factory) PID {
	c.chargeBudget(1)
	self := c.Pid()
	return c.system.spawn(factory, c.actor.ControlBlock, &self)
}

// YieldNow spends cost budget units and, if that crosses maxBudget,
// reschedules the current actor and suspends once.
func (c *Context) YieldNow(cost int) {
	c.chargeBudget(cost)
}

// Receive performs a selective receive (spec.md §4.H). predicate is
// applied head-to-tail over the message queue; the first match is
// removed and returned. If timeout is non-nil and elapses before any
// match, Receive returns (nil, false).
func (c *Context) Receive(timeout *time.Duration, predicate func(any) bool) (any, bool) {
	c.chargeBudget(1)

	var deadline time.Time
	if timeout != nil {
		c.system.Timer.WakeUp(c.Pid(), *timeout)
		deadline = time.Now().Add(*timeout)
	}

	for {
		if envelope, ok := c.actor.Queue.removeMatching(predicate); ok {
			return envelope, true
		}

		if timeout != nil && !time.Now().Before(deadline) {
			return nil, false
		}

		c.actor.suspend()
	}
}
