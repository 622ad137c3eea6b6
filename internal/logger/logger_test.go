package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lguibr/actorcore"
)

// syncBuffer is a bytes.Buffer safe for the logger actor's goroutine to
// write to while the test goroutine polls its contents.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestLogger_LogWritesFormattedEntry(t *testing.T) {
	out := &syncBuffer{}

	actorcore.Run(func() actorcore.ActorFunc {
		return func(ctx *actorcore.Context) actorcore.ExitReason {
			SpawnTo(ctx, out)
			Log(ctx, Warn, "disk usage high")
			ctx.Sleep(20 * time.Millisecond)
			ctx.Stop()
			return actorcore.ExitNormal{}
		}
	}, actorcore.Options{Workers: 2})

	assert.True(t, strings.Contains(out.String(), "[WARN] disk usage high"))
}

func TestLogger_LinkedCrashIsReportedAsError(t *testing.T) {
	out := &syncBuffer{}

	actorcore.Run(func() actorcore.ActorFunc {
		return func(ctx *actorcore.Context) actorcore.ExitReason {
			loggerPid := SpawnTo(ctx, out)

			// crasher waits for a "go" message, then panics. Linking it to
			// the logger directly (rather than to this entry actor) lets
			// the logger observe the crash through its own TrapExitMessage
			// branch, independent of entry/logger's own link.
			crasher := ctx.Spawn(func() actorcore.ActorFunc {
				return func(cctx *actorcore.Context) actorcore.ExitReason {
					cctx.Receive(nil, func(any) bool { return true })
					panic("boom")
				}
			})
			ctx.SendSignal(crasher, actorcore.SignalLink{PID: loggerPid})
			ctx.Send(crasher, "go")

			ctx.Sleep(50 * time.Millisecond)
			ctx.Stop()
			return actorcore.ExitNormal{}
		}
	}, actorcore.Options{Workers: 2})

	assert.True(t, strings.Contains(out.String(), "[ERROR]"))
}

func TestLevel_StringNamesSeverity(t *testing.T) {
	assert.Equal(t, "INFO", Info.String())
	assert.Equal(t, "WARN", Warn.String())
	assert.Equal(t, "ERROR", Error.String())
}
