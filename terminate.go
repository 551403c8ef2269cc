package elog

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"golang.org/x/sys/unix"
)

// Terminator carries out the end of a FATAL or PANIC report. Neither
// method may return to its caller.
type Terminator interface {
	// Exit ends the execution context with the given status.
	Exit(code int)

	// Abort ends the process abnormally, leaving a core file where the
	// platform produces one.
	Abort()
}

// ProcessTerminator ends the whole process.
type ProcessTerminator struct{}

func (ProcessTerminator) Exit(code int) { os.Exit(code) }

func (ProcessTerminator) Abort() { abortProcess() }

// GoroutineTerminator ends only the calling goroutine on Exit, so a
// server that runs one session per goroutine loses only that session
// on FATAL. Deferred calls still run. Abort ends the process.
type GoroutineTerminator struct{}

func (GoroutineTerminator) Exit(int) { runtime.Goexit() }

func (GoroutineTerminator) Abort() { abortProcess() }

func abortProcess() {
	signal.Reset(unix.SIGABRT)
	_ = unix.Kill(unix.Getpid(), unix.SIGABRT)
	os.Exit(134)
}

// terminated is raised if a Terminator returns from Exit or Abort.
type terminated struct {
	code int
}

func (t terminated) String() string {
	return fmt.Sprintf("elog: terminator returned (exit status %d)", t.code)
}

func (c *Context) exit(code int) {
	c.log.WithField(fieldExitCode, code).Info("Terminating execution context")
	c.term.Exit(code)
	panic(terminated{code: code})
}

func (c *Context) abort() {
	c.log.WithField(fieldExitCode, 134).Warn("Aborting process")
	c.term.Abort()
	panic(terminated{code: 134})
}

func (c *Context) runExitHooks(code int) {
	hooks := c.exitHooks
	c.exitHooks = nil
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i](code)
	}
}

type syncer interface {
	Sync() error
}

type flusher interface {
	Flush() error
}

// flushStreams pushes buffered output towards its destination before
// the context goes away.
func (c *Context) flushStreams() {
	if c.frontend != nil {
		if err := c.frontend.Flush(); err != nil {
			c.log.WithError(err).WithField(fieldSink, sinkClient).Debug("Flush failed")
		}
	}
	for _, w := range []interface{}{c.out.Console, c.out.Collector} {
		switch w := w.(type) {
		case syncer:
			_ = w.Sync()
		case flusher:
			_ = w.Flush()
		}
	}
}
