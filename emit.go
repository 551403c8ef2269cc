package elog

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/secureworks/elog/internal/logpipe"
)

// sinkError is a failed write to one output.
type sinkError struct {
	sink string
	err  error
}

func (e *sinkError) Error() string { return e.sink + ": " + e.err.Error() }

func (e *sinkError) Unwrap() error { return e.err }

func sinkErr(sink string, err error) error {
	if err == nil {
		return nil
	}
	return &sinkError{sink: sink, err: err}
}

// EmitErrorReport writes the report on top of the stack to the server
// log and the client, as its routing says. Failed writes are counted
// and logged but never raised: there is nowhere left to report them.
func (c *Context) EmitErrorReport() {
	rec := c.checkStack()
	c.recursion++

	var errs []error
	if rec.OutputToServer && c.moduleEnabled(rec) {
		errs = append(errs, c.sendToServerLog(rec)...)
	}
	if rec.OutputToClient && !c.withheldForRetry(rec) {
		errs = append(errs, sinkErr(sinkClient, c.sendToClient(rec)))
	}
	c.metrics.recordReport(rec.Severity)

	if merr := NewMultiError(errs...); merr.Len() > 0 {
		for _, err := range merr.Errors() {
			if se, ok := err.(*sinkError); ok {
				c.metrics.recordSinkError(se.sink)
			}
		}
		c.log.WithError(merr.ErrorOrNil()).WithFields(logrus.Fields{
			fieldSeverity: rec.Severity.String(),
			fieldSQLState: rec.Code,
		}).Warn("Failed to emit report")
	}

	c.recursion--
}

func (c *Context) moduleEnabled(rec *Record) bool {
	return rec.Severity >= Log || rec.Module == ModuleDefault || c.cfg.moduleEnabled(rec.Module)
}

// withheldForRetry reports whether the client must not see rec because
// the statement is going to be retried transparently.
func (c *Context) withheldForRetry(rec *Record) bool {
	return c.cfg.StmtRetry && rec.Severity < Fatal && c.cfg.retryable(rec.Code)
}

// sendToServerLog renders rec once and writes it to every configured
// log destination.
func (c *Context) sendToServerLog(rec *Record) (errs []error) {
	c.logTime = time.Time{}
	c.buf.Reset()
	c.writeTextReport(&c.buf, rec)

	dest := c.cfg.Destination
	if dest&DestSyslog != 0 {
		errs = append(errs, sinkErr(sinkSyslog, c.writeSyslog(rec.Severity, c.buf.String())))
	}
	if dest&DestEventLog != 0 && c.out.EventLog != nil {
		errs = append(errs, sinkErr(sinkEventLog, writeEventLog(c.out.EventLog, rec.Severity, c.buf.String())))
	}

	if dest&DestStderr != 0 {
		if c.out.redirected() {
			errs = append(errs, sinkErr(sinkStderr, c.writePipe(logpipe.KindStderr, c.buf.Bytes())))
		} else {
			errs = append(errs, sinkErr(sinkConsole, c.writeConsole(c.buf.Bytes())))
		}
	}

	if dest&DestCSVLog != 0 {
		if c.out.redirected() {
			c.buf.Reset()
			c.writeCSVReport(&c.buf, rec)
			errs = append(errs, sinkErr(sinkCSV, c.writePipe(logpipe.KindCSV, c.buf.Bytes())))
		} else if dest&DestStderr == 0 {
			// No collector to hand CSV to yet: the text goes to the
			// console so the report is not lost.
			errs = append(errs, sinkErr(sinkConsole, c.writeConsole(c.buf.Bytes())))
		}
	}
	return errs
}

// writeConsole writes straight to the console.
func (c *Context) writeConsole(p []byte) error {
	if c.out.Console == nil {
		return nil
	}
	_, err := c.out.Console.Write(p)
	return err
}

// writePipe sends p to the log collector in chunks. If the pipe fails
// the text goes to the console instead.
func (c *Context) writePipe(kind logpipe.Kind, p []byte) error {
	err := logpipe.WriteChunks(c.out.Collector, c.session.PID, kind, p)
	if err == nil {
		return nil
	}
	if cerr := c.writeConsole(p); cerr != nil {
		return fmt.Errorf("collector: %w (console fallback: %v)", err, cerr)
	}
	return fmt.Errorf("collector: %w", err)
}
