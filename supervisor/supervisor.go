// Package supervisor implements spec.md §4.I: a supervisor is itself an
// actor, with trap-exit enabled, that owns a table of children and
// restarts them according to a RestartPolicy and Strategy.
package supervisor

import (
	"github.com/lguibr/actorcore"
)

// RestartPolicy controls whether a child is restarted after it exits,
// depending on its exit reason (spec.md §4.I "Should-restart table").
type RestartPolicy int

const (
	// Permanent children are always restarted.
	Permanent RestartPolicy = iota
	// Transient children are restarted only on an abnormal exit.
	Transient
	// Temporary children are never restarted.
	Temporary
)

func (p RestartPolicy) shouldRestart(reason actorcore.ExitReason) bool {
	switch p {
	case Permanent:
		return true
	case Transient:
		return !reason.Equal(actorcore.ExitNormal{}) && !reason.Equal(actorcore.ExitShutdown{})
	default: // Temporary
		return false
	}
}

// Strategy selects how sibling children react to one child's failure.
type Strategy int

const (
	// OneForOne restarts only the failing child.
	OneForOne Strategy = iota
	// OneForAll kills and restarts every child when one fails.
	OneForAll
	// RestForOne kills and restarts the failing child and every child
	// started after it, in original order.
	RestForOne
)

type childState int

const (
	stateRunning childState = iota
	stateStopping
	stateDead
)

type child struct {
	pid     actorcore.PID
	factory actorcore.Factory
	name    string
	policy  RestartPolicy
	state   childState
}

// Handle is a reference to a running supervisor actor.
type Handle struct {
	Pid actorcore.PID
}

// addChildRequest is sent by Handle.Supervise/SuperviseNamed to the
// supervisor actor's own mailbox.
type addChildRequest struct {
	name    string
	factory actorcore.Factory
	policy  RestartPolicy
	replyTo actorcore.PID
}

type childSpawned struct{ pid actorcore.PID }

// SpawnLinked starts a supervisor actor under strategy, linked to the
// caller, and returns a Handle for registering children with it.
func SpawnLinked(ctx *actorcore.Context, strategy Strategy) Handle {
	return Handle{Pid: ctx.SpawnLinked(newSupervisorFactory(strategy))}
}

// Spawn starts a supervisor actor under strategy, unlinked.
func Spawn(ctx *actorcore.Context, strategy Strategy) Handle {
	return Handle{Pid: ctx.Spawn(newSupervisorFactory(strategy))}
}

// Supervise registers a new child under policy and blocks until it has
// been spawned, returning its PID.
func (h Handle) Supervise(ctx *actorcore.Context, policy RestartPolicy, factory actorcore.Factory) actorcore.PID {
	return h.supervise(ctx, "", policy, factory)
}

// SuperviseNamed is Supervise plus registering the child under name.
func (h Handle) SuperviseNamed(ctx *actorcore.Context, name string, policy RestartPolicy, factory actorcore.Factory) actorcore.PID {
	return h.supervise(ctx, name, policy, factory)
}

func (h Handle) supervise(ctx *actorcore.Context, name string, policy RestartPolicy, factory actorcore.Factory) actorcore.PID {
	ctx.Send(h.Pid, addChildRequest{name: name, factory: factory, policy: policy, replyTo: ctx.Pid()})

	msg, _ := ctx.Receive(nil, func(m any) bool {
		_, ok := m.(childSpawned)
		return ok
	})
	return msg.(childSpawned).pid
}

// supervisorState is the supervisor's own closed-over actor state.
type supervisorState struct {
	ctx      *actorcore.Context
	strategy Strategy
	children []*child

	stopping          bool
	stoppingSet       map[actorcore.PID]bool
	stoppingRemaining int
	stoppingStart     int
	stoppingReason    actorcore.ExitReason
}

func newSupervisorFactory(strategy Strategy) actorcore.Factory {
	return func() actorcore.ActorFunc {
		return func(ctx *actorcore.Context) actorcore.ExitReason {
			s := &supervisorState{ctx: ctx, strategy: strategy}
			ctx.TrapExit(true)

			for {
				msg, _ := ctx.Receive(nil, func(any) bool { return true })
				switch m := msg.(type) {
				case addChildRequest:
					s.addChild(m)
				case actorcore.TrapExitMessage:
					if terminate := s.handleExit(m.Pid, m.Reason); terminate {
						return m.Reason
					}
				}
			}
		}
	}
}

func (s *supervisorState) indexOf(pid actorcore.PID) int {
	for i, c := range s.children {
		if c.pid == pid {
			return i
		}
	}
	return -1
}

func (s *supervisorState) addChild(req addChildRequest) {
	pid := s.ctx.SpawnLinked(req.factory)
	s.children = append(s.children, &child{
		pid: pid, factory: req.factory, name: req.name, policy: req.policy, state: stateRunning,
	})
	if req.name != "" {
		s.ctx.Register(req.name, pid)
	}
	s.ctx.Send(req.replyTo, childSpawned{pid: pid})
}

// handleExit reacts to a (trapped) Exit from a linked actor: either one
// of our children, or — if pid is unknown — our own parent, in which
// case we terminate and propagate the reason upward (spec.md §4.I
// "Failure of the supervisor itself propagates to its own parent").
func (s *supervisorState) handleExit(pid actorcore.PID, reason actorcore.ExitReason) (terminate bool) {
	if s.stopping {
		if s.stoppingSet[pid] {
			delete(s.stoppingSet, pid)
			if idx := s.indexOf(pid); idx >= 0 {
				s.children[idx].state = stateDead
			}
			s.stoppingRemaining--
			if s.stoppingRemaining == 0 {
				s.stopping = false
				s.finishGroupRestart()
			}
		}
		return false
	}

	idx := s.indexOf(pid)
	if idx < 0 {
		return true
	}
	s.children[idx].state = stateDead

	switch s.strategy {
	case OneForOne:
		if s.children[idx].policy.shouldRestart(reason) {
			s.restartChild(idx)
		} else {
			s.removeChild(idx)
		}
	default: // OneForAll, RestForOne
		start := 0
		if s.strategy == RestForOne {
			start = idx
		}
		s.beginGroupRestart(start, idx, reason)
	}
	return false
}

// beginGroupRestart kills every still-running child from start onward
// (excluding the one that already failed) and enters the Stopping(n)
// state from spec.md §4.I, or restarts immediately if nothing needed
// killing.
func (s *supervisorState) beginGroupRestart(start, failedIdx int, reason actorcore.ExitReason) {
	set := make(map[actorcore.PID]bool)
	for i := start; i < len(s.children); i++ {
		if i == failedIdx {
			continue
		}
		c := s.children[i]
		if c.state != stateRunning {
			continue
		}
		c.state = stateStopping
		set[c.pid] = true
		s.ctx.SendSignal(c.pid, actorcore.SignalKill{})
	}

	s.stoppingStart = start
	s.stoppingReason = reason
	s.stoppingSet = set
	s.stoppingRemaining = len(set)

	if s.stoppingRemaining == 0 {
		s.finishGroupRestart()
	} else {
		s.stopping = true
	}
}

// finishGroupRestart restarts the subset of [stoppingStart, len) that its
// policy allows, in original order, replacing each restarted child's PID
// in place (spec.md §4.I "restart the subset that policy allows, in
// original order").
func (s *supervisorState) finishGroupRestart() {
	start := s.stoppingStart
	for i := start; i < len(s.children); i++ {
		c := s.children[i]
		effectiveReason := actorcore.ExitReason(actorcore.ExitKilled{})
		if i == start {
			effectiveReason = s.stoppingReason
		}
		if c.policy.shouldRestart(effectiveReason) {
			s.restartChild(i)
		} else {
			c.state = stateDead
		}
	}
	s.compactDead()
}

func (s *supervisorState) restartChild(idx int) {
	c := s.children[idx]
	pid := s.ctx.SpawnLinked(c.factory)
	c.pid = pid
	c.state = stateRunning
	if c.name != "" {
		s.ctx.Register(c.name, pid)
	}
}

func (s *supervisorState) removeChild(idx int) {
	s.children = append(s.children[:idx], s.children[idx+1:]...)
}

func (s *supervisorState) compactDead() {
	live := s.children[:0]
	for _, c := range s.children {
		if c.state != stateDead {
			live = append(live, c)
		}
	}
	s.children = live
}
