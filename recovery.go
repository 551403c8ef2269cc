package elog

import "fmt"

// recoveryPoint is a Protect call that has not returned yet.
type recoveryPoint struct {
	callbacks *callback
}

// unwindSignal is the panic value carrying an ERROR to a recovery
// point. It only ever travels within the goroutine that owns ctx.
type unwindSignal struct {
	ctx   *Context
	point *recoveryPoint
}

func (s *unwindSignal) String() string {
	if rec := s.ctx.top(); rec != nil {
		return fmt.Sprintf("elog: unhandled %s: %s", rec.Severity, rec.Error())
	}
	return "elog: unhandled error unwind"
}

// Protect runs body with a recovery point registered. If body (or
// anything it calls on this context) finishes an ERROR report, control
// returns from Protect with caught set and the report still on the
// error stack; the caller then either handles it (CopyErrorData,
// EmitErrorReport, FlushErrorState) or passes it on with ReThrow.
//
// Panics that are not unwinds of this context pass through untouched.
func (c *Context) Protect(body func()) (caught bool) {
	n := len(c.points)
	pt := &recoveryPoint{callbacks: c.callbacks}
	c.points = append(c.points, pt)
	defer func() {
		c.points = c.points[:n]
		r := recover()
		if r == nil {
			return
		}
		if sig, ok := r.(*unwindSignal); !ok || sig.ctx != c || sig.point != pt {
			panic(r)
		}
		c.callbacks = pt.callbacks
		c.metrics.recordCaught()
		caught = true
	}()
	body()
	return false
}

// Try runs body and returns the ERROR it raised, if any, as an owned
// copy. The error stack is cleared before Try returns.
func (c *Context) Try(body func()) error {
	if !c.Protect(body) {
		return nil
	}
	rec := c.CopyErrorData()
	c.FlushErrorState()
	return rec
}

// Exec runs body as a statement: an ERROR it raises is reported to the
// configured sinks, then returned as an owned copy with the error stack
// cleared.
func (c *Context) Exec(body func()) error {
	if !c.Protect(body) {
		return nil
	}
	c.EmitErrorReport()
	rec := c.CopyErrorData()
	c.FlushErrorState()
	return rec
}

// CopyErrorData returns a copy of the report being handled that stays
// valid after FlushErrorState.
func (c *Context) CopyErrorData() *Record {
	return c.checkStack().Clone()
}

// FlushErrorState discards every report on the stack and releases
// their text.
func (c *Context) FlushErrorState() {
	c.depth = -1
	c.recursion = 0
	c.arena.Reset()
}

// ReThrow passes the report on top of the stack to the next recovery
// point out. With none left the report is turned into a FATAL one and
// finished.
func (c *Context) ReThrow() {
	if n := len(c.points); n > 0 {
		panic(&unwindSignal{ctx: c, point: c.points[n-1]})
	}

	rec := c.checkStack()
	rec.Severity = Fatal
	rec.OutputToServer, rec.OutputToClient = c.route(Fatal)
	c.callbacks = nil
	c.Finish()
}

// ReThrowError raises a copy of rec, typically one obtained from
// CopyErrorData, as if it had just been finished. Only ERROR reports
// can be re-raised.
func (c *Context) ReThrowError(rec *Record) {
	if rec.Severity != Error {
		c.Elog(Error, "ReThrowError called with severity %s", rec.Severity)
	}

	c.recursion++
	c.depth++
	if c.depth >= StackSize {
		c.depth = -1
		c.Elog(Panic, "ERRORDATA_STACK_SIZE exceeded")
	}
	c.stack[c.depth] = *rec.Clone()
	c.recursion--

	c.ReThrow()
}
