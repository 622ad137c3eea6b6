// Package port demonstrates the named external I/O-subsystem boundary
// spec.md calls out as out of core scope: a port is an addressable actor
// whose inbound side is driven by a dedicated goroutine outside the
// scheduler's poll loop, turning raw frames into ordinary messages.
//
// Grounded on lguibr-pongo's server/websocket.go connection bookkeeping
// and original_source/src/port.rs's port-as-actor-boundary concept.
package port

import (
	"io"

	"golang.org/x/net/websocket"

	"github.com/lguibr/actorcore"
)

// Frame is an inbound WebSocket text frame delivered to the port actor's
// owner as a plain message.
type Frame struct {
	Data string
}

// Outbound is sent to the port's PID to write data out over the socket.
type Outbound struct {
	Data string
}

// Closed is delivered to Owner when the connection is closed, either by
// the remote side or by a read/write error.
type Closed struct {
	Err error
}

// Spawn starts a port actor wrapping conn. Inbound frames and the Closed
// notification are forwarded as messages to owner; Outbound messages sent
// to the returned PID are written to conn in arrival order.
func Spawn(ctx *actorcore.Context, conn *websocket.Conn, owner actorcore.PID) actorcore.PID {
	pid := ctx.Spawn(factory(conn, owner))
	go pump(ctx.System(), conn, owner, pid)
	return pid
}

// factory builds the port's own ActorFunc: it only handles Outbound
// writes and its own shutdown, since inbound frames arrive at owner
// directly from pump, not through the port's mailbox.
func factory(conn *websocket.Conn, owner actorcore.PID) actorcore.Factory {
	return func() actorcore.ActorFunc {
		return func(ctx *actorcore.Context) actorcore.ExitReason {
			ctx.TrapExit(true)
			for {
				msg, _ := ctx.Receive(nil, func(any) bool { return true })
				switch m := msg.(type) {
				case Outbound:
					if err := websocket.Message.Send(conn, m.Data); err != nil {
						ctx.System().Deliver(owner, Closed{Err: err})
						_ = conn.Close()
						return actorcore.ExitError{Err: err}
					}
				case actorcore.TrapExitMessage:
					_ = conn.Close()
					return m.Reason
				}
			}
		}
	}
}

// pump blocks reading frames off conn and injects each as a Frame message
// to owner, outside the scheduler's poll loop entirely — this goroutine
// is the "dedicated I/O thread" a port wraps, not a hydrated actor turn.
func pump(sys *actorcore.System, conn *websocket.Conn, owner, self actorcore.PID) {
	for {
		var data string
		if err := websocket.Message.Receive(conn, &data); err != nil {
			if err != io.EOF {
				sys.Deliver(owner, Closed{Err: err})
			} else {
				sys.Deliver(owner, Closed{})
			}
			sys.DeliverSignal(self, actorcore.SignalKill{})
			return
		}
		sys.Deliver(owner, Frame{Data: data})
	}
}
