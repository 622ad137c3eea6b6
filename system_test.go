package actorcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// runScenario starts a full System with 2 workers and runs entry as the
// user's top-level actor. Once entry returns, the wrapper calls
// ctx.Stop(), and runScenario returns when the workers have exited.
func runScenario(entry func(ctx *Context)) {
	Run(func() ActorFunc {
		return func(ctx *Context) ExitReason {
			entry(ctx)
			ctx.Stop()
			return ExitNormal{}
		}
	}, Options{Workers: 2})
}

type pingMsg struct{ n int }
type pongMsg struct{ n int }

func TestSystem_PingPongRoundTrip(t *testing.T) {
	results := make(chan int, 1)

	runScenario(func(ctx *Context) {
		ponger := ctx.Spawn(func() ActorFunc {
			return func(pctx *Context) ExitReason {
				msg, _ := pctx.Receive(nil, func(m any) bool {
					_, ok := m.(pingMsg)
					return ok
				})
				p := msg.(pingMsg)
				pctx.Send(ctx.Pid(), pongMsg{n: p.n + 1})
				return ExitNormal{}
			}
		})

		ctx.Send(ponger, pingMsg{n: 41})
		msg, _ := ctx.Receive(nil, func(m any) bool {
			_, ok := m.(pongMsg)
			return ok
		})
		results <- msg.(pongMsg).n
	})

	select {
	case n := <-results:
		assert.Equal(t, 42, n)
	case <-time.After(2 * time.Second):
		t.Fatal("ping-pong never completed")
	}
}

func TestSystem_DelayedDeliveryViaSchedule(t *testing.T) {
	results := make(chan time.Duration, 1)

	runScenario(func(ctx *Context) {
		start := time.Now()
		ctx.Schedule(ctx.Pid(), "delayed", 40*time.Millisecond)
		ctx.Receive(nil, func(m any) bool {
			s, ok := m.(string)
			return ok && s == "delayed"
		})
		results <- time.Since(start)
	})

	select {
	case elapsed := <-results:
		assert.GreaterOrEqual(t, elapsed, 35*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed message never arrived")
	}
}

func TestSystem_SelectiveReceiveSkipsNonMatching(t *testing.T) {
	results := make(chan string, 1)

	runScenario(func(ctx *Context) {
		self := ctx.Pid()
		ctx.Send(self, "first")
		ctx.Send(self, "second")
		ctx.Send(self, 999)

		msg, _ := ctx.Receive(nil, func(m any) bool {
			n, ok := m.(int)
			return ok && n == 999
		})
		_ = msg

		ctx.Send(ctx.Pid(), "done")
		last, _ := ctx.Receive(nil, func(any) bool { return true })
		results <- last.(string)
	})

	select {
	case got := <-results:
		assert.Equal(t, "first", got)
	case <-time.After(2 * time.Second):
		t.Fatal("selective receive test never completed")
	}
}

func TestSystem_LinkPropagatesAbnormalExit(t *testing.T) {
	results := make(chan ExitReason, 1)

	runScenario(func(ctx *Context) {
		ctx.TrapExit(true)
		ctx.SpawnLinked(func() ActorFunc {
			return func(*Context) ExitReason { return ExitError{Err: assertErr{"boom"}} }
		})

		msg, _ := ctx.Receive(nil, func(any) bool { return true })
		trapped := msg.(TrapExitMessage)
		results <- trapped.Reason
	})

	select {
	case reason := <-results:
		_, isErr := reason.(ExitError)
		assert.True(t, isErr)
	case <-time.After(2 * time.Second):
		t.Fatal("link propagation never observed")
	}
}

func TestContext_ExitTerminatesTargetActor(t *testing.T) {
	results := make(chan ExitReason, 1)

	runScenario(func(ctx *Context) {
		ctx.TrapExit(true)
		target := ctx.SpawnLinked(func() ActorFunc {
			return func(tctx *Context) ExitReason {
				tctx.Receive(nil, func(any) bool { return false })
				return ExitNormal{}
			}
		})

		ctx.Exit(target, ExitShutdown{})

		msg, _ := ctx.Receive(nil, func(any) bool { return true })
		trapped := msg.(TrapExitMessage)
		results <- trapped.Reason
	})

	select {
	case reason := <-results:
		assert.Equal(t, ExitShutdown{}, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("Exit signal never reached the target")
	}
}

func TestContext_ExitToSelfTerminatesTheCallingActor(t *testing.T) {
	results := make(chan ExitReason, 1)

	runScenario(func(ctx *Context) {
		ctx.TrapExit(true)
		ctx.SpawnLinked(func() ActorFunc {
			return func(cctx *Context) ExitReason {
				cctx.Exit(cctx.Pid(), ExitShutdown{})
				cctx.Receive(nil, func(any) bool { return false })
				return ExitNormal{}
			}
		})

		msg, _ := ctx.Receive(nil, func(any) bool { return true })
		trapped := msg.(TrapExitMessage)
		results <- trapped.Reason
	})

	select {
	case reason := <-results:
		assert.Equal(t, ExitShutdown{}, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("self-targeted exit never terminated the calling actor")
	}
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func TestSystem_WorkStealingDrainsManyActorsAcrossWorkers(t *testing.T) {
	const n = 200
	type outcome struct {
		completed int
		migrated  int
	}
	results := make(chan outcome, 1)

	runScenario(func(ctx *Context) {
		ctx.TrapExit(true)
		for i := 0; i < n; i++ {
			ctx.SpawnLinked(func() ActorFunc {
				return func(wctx *Context) ExitReason {
					for j := 0; j < 8; j++ {
						wctx.YieldNow(1)
					}
					if wctx.WorkerID() != 0 {
						wctx.Send(ctx.Pid(), "migrated")
					}
					return ExitNormal{}
				}
			})
		}

		var out outcome
		for out.completed < n {
			msg, _ := ctx.Receive(nil, func(any) bool { return true })
			switch msg.(type) {
			case TrapExitMessage:
				out.completed++
			case string:
				out.migrated++
			}
		}
		results <- out
	})

	select {
	case out := <-results:
		assert.Equal(t, n, out.completed)
		assert.GreaterOrEqual(t, out.migrated, 1, "scenario 6 expects at least one actor to end up on a worker other than 0")
	case <-time.After(5 * time.Second):
		t.Fatal("not all actors completed")
	}
}
