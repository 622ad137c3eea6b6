package actorcore

import "sync"

// Options configures System.Run. Run treats the zero value like
// DefaultOptions(), mirroring the teacher's utils.Config/DefaultConfig() shape.
type Options struct {
	// Workers is the number of worker goroutines to start. Zero means
	// AvailableParallelism(), clamped >= 1 (spec.md §6).
	Workers int
}

// DefaultOptions returns an Options with AvailableParallelism() workers.
func DefaultOptions() Options {
	return Options{Workers: AvailableParallelism()}
}

// System is the process-wide collection of global mutable state: the
// registry, scheduler, timer, and worker pool (spec.md §9 "Global
// mutable state"). It is created by Run and lives for the run's
// duration; there are no ambient singletons beyond it.
type System struct {
	Registry  *Registry
	Scheduler *Scheduler
	Timer     *Timer

	workers []*Worker
	wg      sync.WaitGroup
}

func newSystem(opts Options) *System {
	registry := NewRegistry()
	scheduler := NewScheduler(registry)
	timer := NewTimer(registry, scheduler)

	return &System{
		Registry:  registry,
		Scheduler: scheduler,
		Timer:     timer,
	}
}

func (s *System) startWorker() {
	id := s.Scheduler.AllocateSlot()
	w := NewWorker(id)
	s.Scheduler.ReplaceSlot(id, w)
	s.workers = append(s.workers, w)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		w.Run(s)
	}()
}

// Deliver injects message into to's message queue from outside the poll
// loop — the mechanism internal/port's background socket-reader goroutine
// uses to turn inbound frames into ordinary messages. A lookup miss drops
// the message silently, same as Context.Send.
func (s *System) Deliver(to PID, message any) {
	if actor, ok := s.Registry.LookupPID(to); ok {
		actor.SendSignal(SignalMessage{Envelope: message})
		s.Scheduler.Schedule(to)
	}
}

// DeliverSignal injects a raw Signal into to's inbox from outside the
// poll loop, the Signal-level counterpart to Deliver.
func (s *System) DeliverSignal(to PID, signal Signal) {
	if actor, ok := s.Registry.LookupPID(to); ok {
		actor.SendSignal(signal)
		s.Scheduler.Schedule(to)
	}
}

// spawn is the shared implementation behind Context.Spawn/SpawnLinked and
// the initial root-actor insertion in Run.
func (s *System) spawn(factory Factory, parent *ControlBlock, linkTo *PID) PID {
	pid := s.Registry.AllocatePID()

	workerID := 0
	if parent != nil {
		workerID = parent.WorkerID()
	}

	cb := NewControlBlock(pid, workerID)
	if parent != nil {
		cb.restoreMetadata(parent.SnapshotMetadata())
	}

	actor := NewHydratedActor(s, cb, factory)

	if linkTo != nil {
		cb.AddLink(*linkTo)
		if parentActor, ok := s.Registry.LookupPID(*linkTo); ok {
			parentActor.ControlBlock.AddLink(pid)
		}
	}

	s.Registry.Add(actor)
	s.Scheduler.Schedule(pid)
	return pid
}

// rootFactory builds the system's single root actor: it links itself to
// the user entry point and, on any abnormal exit reaching it, halts the
// whole system via Stop (spec.md §6 "block until all workers exit", §7
// "failures above the top supervisor escalate to scheduler halt").
func rootFactory(entry Factory) Factory {
	return func() ActorFunc {
		return func(ctx *Context) ExitReason {
			ctx.TrapExit(true)
			ctx.SpawnLinked(entry)

			for {
				msg, _ := ctx.Receive(nil, func(any) bool { return true })
				if trapped, ok := msg.(TrapExitMessage); ok {
					if !trapped.Reason.Equal(ExitNormal{}) {
						ctx.Stop()
					}
					return ExitNormal{}
				}
			}
		}
	}
}

// Run boots a System: allocates the scheduler, registry and timer,
// starts opts.Workers worker goroutines and the timer goroutine, spawns
// a root actor that in turn spawns entry, and blocks until every worker
// has exited (spec.md §6).
func Run(entry Factory, opts Options) {
	if opts.Workers <= 0 {
		opts.Workers = AvailableParallelism()
	}

	system := newSystem(opts)

	for i := 0; i < opts.Workers; i++ {
		system.startWorker()
	}

	go system.Timer.Run()

	system.spawn(rootFactory(entry), nil, nil)

	system.wg.Wait()
	system.Timer.Stop()
}
