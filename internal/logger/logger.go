// Package logger provides a logging actor: a supervised process that
// owns a *log.Logger and serializes writes through its own mailbox,
// the way original_source/src/library/logger.rs makes the logger a
// regular actor rather than a global.
package logger

import (
	"io"
	"log"
	"os"

	"github.com/lguibr/actorcore"
)

// Name is the registry name the logger actor registers itself under.
const Name = "logger"

// Level is a coarse severity tag, logged alongside the message text.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Entry is the message type the logger actor consumes.
type Entry struct {
	Level   Level
	Message string
}

// Spawn starts the logger actor writing to os.Stderr, registers it under
// Name, and returns its PID. Callers elsewhere send it Entry values via
// ctx.Send or the Log helper.
func Spawn(ctx *actorcore.Context) actorcore.PID {
	return spawnWith(ctx, false, os.Stderr)
}

// SpawnLinked is Spawn but links the logger to the caller, so a logger
// crash is visible to whatever started it.
func SpawnLinked(ctx *actorcore.Context) actorcore.PID {
	return spawnWith(ctx, true, os.Stderr)
}

// SpawnTo is SpawnLinked but writes to out instead of os.Stderr, for
// embedders that want logs captured (files, buffers) rather than printed,
// and for tests that need to observe what the logger actor wrote.
func SpawnTo(ctx *actorcore.Context, out io.Writer) actorcore.PID {
	return spawnWith(ctx, true, out)
}

func spawnWith(ctx *actorcore.Context, linked bool, out io.Writer) actorcore.PID {
	f := factory(log.New(out, "", log.LstdFlags))
	var pid actorcore.PID
	if linked {
		pid = ctx.SpawnLinked(f)
	} else {
		pid = ctx.Spawn(f)
	}
	ctx.Register(Name, pid)
	return pid
}

// Log sends an Entry to the registered logger actor, dropping it silently
// if no logger is registered (mirrors every other Context.Send miss).
func Log(ctx *actorcore.Context, level Level, message string) {
	ctx.Send(actorcore.Name(Name), Entry{Level: level, Message: message})
}

func factory(out *log.Logger) actorcore.Factory {
	return func() actorcore.ActorFunc {
		return func(ctx *actorcore.Context) actorcore.ExitReason {
			ctx.TrapExit(true)
			for {
				msg, _ := ctx.Receive(nil, func(any) bool { return true })
				switch m := msg.(type) {
				case Entry:
					out.Printf("[%s] %s", m.Level, m.Message)
				case actorcore.TrapExitMessage:
					if !m.Reason.Equal(actorcore.ExitNormal{}) {
						out.Printf("[%s] linked actor %s exited: %s", Error, m.Pid, m.Reason)
					}
				}
			}
		}
	}
}
