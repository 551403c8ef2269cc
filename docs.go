// Package elog is the diagnostic and error propagation core of a
// relational database server process. It builds reports (a severity,
// a SQLSTATE, a message and its satellite fields), decides where they
// go, writes them to the server log and the client, and unwinds the
// stack to the nearest recovery point when a report is an ERROR.
//
// # Reports
//
// Every thread of control owns one *Context. A report is started with
// Begin, filled in with the field methods and finished with Finish:
//
//	if ctx.Begin(elog.Warning) {
//	    ctx.Msg("could not remove file %q: %m", path)
//	    ctx.CodeForFileAccess()
//	    ctx.Finish()
//	}
//
// Begin returns false when nothing would be written, so the field calls
// cost nothing for suppressed messages. Report wraps the same sequence
// in a single call:
//
//	ctx.Report(elog.Error,
//	    elog.Code(pgerrcode.UndefinedTable),
//	    elog.Msg("relation %q does not exist", name),
//	    elog.Position(pos),
//	)
//
// Reports nest: a report raised while another one is being built (say
// from an error context callback) gets its own frame on a stack of
// StackSize frames. Text for every frame lives in a scratch arena that
// is reset once the stack is empty again.
//
// # Severities
//
// Below ERROR, Finish writes the report and returns. At ERROR, Finish
// hands control to the nearest recovery point. FATAL writes the report
// and ends the context through its Terminator; PANIC aborts the
// process. An ERROR raised inside a critical section, or with no
// recovery point to catch it, is promoted.
//
// # Recovery points
//
// Protect, Try and Exec establish a recovery point around a function:
//
//	err := ctx.Try(func() {
//	    runStatement(ctx, stmt)
//	})
//	if rec, ok := err.(*elog.Record); ok {
//	    log.Printf("statement failed with %s", rec.SQLState())
//	}
//
// Inside Protect the error is still on the stack: the handler can look
// at it with CopyErrorData, drop it with FlushErrorState, or pass it on
// with ReThrow. Panics that did not come from an unwind are never
// caught.
//
// # Output
//
// The server log destinations (stderr, csvlog, syslog and an event log)
// are selected by Config.Destination and share the process-wide
// writers of an Output. Once a log collector is attached, stderr and
// csvlog output is framed for the collector pipe; see the logpipe
// package and the elogctl command. Client output is encoded with
// pgproto3 and sent through a Frontend.
//
// Statements and internal queries are passed through MaskQuery before
// they are written anywhere, so passwords and keys they contain are
// replaced by asterisks. The scanner lives in the redact package.
//
// # Errors from elsewhere
//
// FromError turns a Go error into report fields, picking up the
// SQLSTATE of a pgconn.PgError (or anything with a SQLState method),
// the errno of a wrapped syscall.Errno and the call frames attached by
// WithFrame. Record itself implements error, fmt.Formatter and
// json.Marshaler, and its frames print with %+v.
package elog

import (
	_ "github.com/secureworks/elog/internal/constraints"
)
