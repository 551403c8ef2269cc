package elog

import (
	"fmt"

	"github.com/secureworks/elog/internal/runtime"
)

// Begin starts a report at severity sev, taking the caller as its
// origin. It returns false when the report would go nowhere, in which
// case the caller must skip the field calls and Finish.
//
// A report at ERROR or above always returns true, possibly after being
// promoted to a more severe level.
func (c *Context) Begin(sev Severity) bool {
	return c.begin(sev, CallerAt(1), "")
}

// BeginAt is Begin with an explicit origin and message domain.
func (c *Context) BeginAt(sev Severity, origin Frame, domain string) bool {
	return c.begin(sev, origin, domain)
}

func (c *Context) begin(sev Severity, origin Frame, domain string) bool {
	if sev >= Error {
		sev = c.promote(sev)
	}

	toServer, toClient := c.route(sev)
	verbose := false
	if sev == VerboseMessage {
		toClient = true
		verbose = true
	}
	if c.kind.Background() && sev >= Error {
		toClient = false
	}
	if sev < Error && !toServer && !toClient {
		return false
	}

	if c.recursion > 0 && sev >= Error {
		// Error during error processing. The frames below will never be
		// returned to, so their text can go.
		c.abandonFrames()
		if c.recursion > 1 {
			c.callbacks = nil
			c.debugQuery = ""
		}
	}
	c.recursion++

	rec := c.push()
	rec.Severity = sev
	rec.Verbose = verbose
	rec.OutputToServer = toServer
	rec.OutputToClient = toClient
	if origin != nil {
		function, file, line := origin.Location()
		rec.Filename = c.arena.String(runtime.FileBase(file))
		rec.Lineno = line
		rec.Funcname = c.arena.String(function)
	}
	rec.Domain = domain
	if rec.Domain == "" {
		rec.Domain = DefaultDomain
	}
	rec.Code = defaultCode(sev)
	rec.SavedErrno = c.errno
	rec.Module = ModuleDefault

	c.recursion--
	return true
}

// promote raises an ERROR-or-worse severity according to the state of
// the context.
func (c *Context) promote(sev Severity) Severity {
	if c.CritSectionCount > 0 {
		sev = Panic
	}
	if sev == Error {
		if len(c.points) == 0 || c.ProcExitInProgress {
			sev = Fatal
		}
		if c.cfg.ExitOnAnyError && c.kind != KindSupervisor {
			if c.kind.ShutdownCritical() {
				sev = Fatal
			} else {
				sev = Panic
			}
		}
		if c.TestErrType >= 3 {
			n := c.TestErrType
			c.TestErrType = 0
			c.Elog(Error, "ERR CONTAINS ERR, %d", n)
		}
	}
	for i := 0; i <= c.depth; i++ {
		if c.stack[i].Severity > sev {
			sev = c.stack[i].Severity
		}
	}
	return sev
}

// route decides whether a report at sev goes to the server log and to
// the client.
func (c *Context) route(sev Severity) (toServer, toClient bool) {
	if c.cfg.Standalone {
		toServer = sev >= c.cfg.LogMinMessages
	} else {
		toServer = IsLogLevelOutput(sev, c.cfg.LogMinMessages)
	}
	if c.dest == DestRemote && sev != CommError {
		if c.ClientAuthInProgress {
			toClient = sev >= Error
		} else {
			toClient = sev >= c.cfg.ClientMinMessages || sev == Info
		}
	}
	return toServer, toClient
}

// push claims the next stack slot. Overflow means errors are being
// raised while recovering from errors without end, so it aborts.
func (c *Context) push() *Record {
	c.depth++
	if c.depth >= StackSize {
		c.depth = -1
		c.ImmediateInterruptOK = false
		c.writeConsole([]byte("ERRORDATA_STACK_SIZE exceeded\n"))
		c.abort()
	}
	rec := &c.stack[c.depth]
	*rec = Record{}
	return rec
}

// checkStack returns the top frame, raising an internal error if no
// report is in progress.
func (c *Context) checkStack() *Record {
	if rec := c.top(); rec != nil {
		return rec
	}
	c.recursion = 0
	c.Elog(Error, "errstart was not called")
	return nil
}

// Finish completes the report started by Begin: it runs the callback
// chain, emits the report and applies the action its severity calls
// for. Finish returns only for severities below ERROR. An ERROR unwinds
// to the newest recovery point, leaving the frame on the stack for the
// handler. FATAL and PANIC terminate through the Terminator.
func (c *Context) Finish() {
	rec := c.checkStack()
	sev := rec.Severity

	c.recursion++
	for cb := c.callbacks; cb != nil; cb = cb.prev {
		cb.fn()
	}
	rec = c.top()

	rec.Backtrace = ""
	if sev >= c.cfg.BacktraceMinMessages {
		rec.Backtrace = c.arena.String(fmt.Sprintf("%+v", CallStackAt(1)))
	}

	if sev == Error {
		c.ImmediateInterruptOK = false
		c.InterruptHoldoffCount = 0
		c.QueryCancelHoldoffCount = 0
		c.CritSectionCount = 0
		c.recursion--
		c.ReThrow()
	}

	if rec.Severity == VerboseMessage {
		rec.Severity = Info
		rec.HandleInClient = true
	}
	c.EmitErrorReport()

	c.depth--
	c.recursion--
	if c.depth < 0 && c.recursion == 0 {
		c.arena.Reset()
	}

	switch sev {
	case Fatal:
		c.ImmediateInterruptOK = false
		if len(c.points) == 0 && c.dest == DestRemote {
			c.dest = DestNone
		}
		c.flushStreams()
		c.flushImmediately = true
		c.runExitHooks(1)
		c.exit(1)
	case Panic:
		c.ImmediateInterruptOK = false
		c.flushStreams()
		c.abort()
	}
}
