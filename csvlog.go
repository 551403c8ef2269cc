package elog

import (
	"bytes"
	"strconv"
)

// appendCSVLiteral writes s as a quoted CSV field with embedded quotes
// doubled. An empty s writes nothing, so an absent value and an empty
// one both load as NULL.
func appendCSVLiteral(buf *bytes.Buffer, s string) {
	if s == "" {
		return
	}
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			buf.WriteByte('"')
		}
		buf.WriteByte(s[i])
	}
	buf.WriteByte('"')
}

// writeCSVReport renders rec as one csvlog row. The columns are, in
// order: log time, node, user, database, pid, remote host, session
// tag, line number, ps display, session start, vxid, xid, query id,
// module, severity, SQLSTATE, message, detail, hint, internal query,
// internal position, context, statement, statement position, location
// and application name.
func (c *Context) writeCSVReport(buf *bytes.Buffer, rec *Record) {
	s := &c.session
	if c.csvLinePID != s.PID {
		c.csvLineNumber = 0
		c.csvLinePID = s.PID
	}
	c.csvLineNumber++

	buf.WriteString(c.stamp().Format(logTimeLayout))
	buf.WriteByte(',')
	appendCSVLiteral(buf, c.cfg.NodeName)
	buf.WriteByte(',')
	appendCSVLiteral(buf, s.user())
	buf.WriteByte(',')
	appendCSVLiteral(buf, s.database())
	buf.WriteByte(',')
	if s.PID != 0 {
		buf.WriteString(strconv.FormatInt(s.PID, 10))
	}
	buf.WriteByte(',')
	appendCSVLiteral(buf, s.remoteHostPort())
	buf.WriteByte(',')
	buf.WriteString(s.sessionTag())
	buf.WriteByte(',')
	buf.WriteString(strconv.Itoa(c.csvLineNumber))
	buf.WriteByte(',')
	if s.Port != nil {
		appendCSVLiteral(buf, s.psDisplay())
	}
	buf.WriteByte(',')
	buf.WriteString(c.startTime())
	buf.WriteByte(',')
	buf.WriteString(s.vxid())
	buf.WriteByte(',')
	buf.WriteString(strconv.FormatUint(s.xid(), 10))
	buf.WriteByte(',')
	if !c.cfg.Standalone {
		buf.WriteString(strconv.FormatUint(s.QueryID, 10))
	}
	buf.WriteByte(',')
	appendCSVLiteral(buf, rec.Module.String())
	buf.WriteByte(',')
	buf.WriteString(rec.Severity.String())
	buf.WriteByte(',')
	buf.WriteString(rec.Code)
	buf.WriteByte(',')
	appendCSVLiteral(buf, rec.Message)
	buf.WriteByte(',')
	if rec.DetailLog != "" {
		appendCSVLiteral(buf, rec.DetailLog)
	} else {
		appendCSVLiteral(buf, rec.Detail)
	}
	buf.WriteByte(',')
	appendCSVLiteral(buf, rec.Hint)
	buf.WriteByte(',')
	appendCSVLiteral(buf, c.MaskQuery(rec.InternalQuery))
	buf.WriteByte(',')
	if rec.InternalPos > 0 && rec.InternalQuery != "" {
		buf.WriteString(strconv.Itoa(rec.InternalPos))
	}
	buf.WriteByte(',')
	appendCSVLiteral(buf, rec.Context)
	buf.WriteByte(',')

	printStmt := c.printStatement(rec)
	if printStmt {
		appendCSVLiteral(buf, c.MaskQuery(c.debugQuery))
	}
	buf.WriteByte(',')
	if printStmt && rec.CursorPos > 0 {
		buf.WriteString(strconv.Itoa(rec.CursorPos))
	}
	buf.WriteByte(',')
	if c.cfg.ErrorVerbosity >= VerbosityVerbose {
		if rec.Funcname == "" && rec.Filename != "" {
			appendCSVLiteral(buf, ","+location(rec, ","))
		} else {
			appendCSVLiteral(buf, location(rec, ","))
		}
	}
	buf.WriteByte(',')
	appendCSVLiteral(buf, s.ApplicationName)
	buf.WriteByte('\n')
}
